package place

import (
	"log/slog"
	"math"

	"github.com/sarchlab/annealplace/fpga"
)

// checkPlace verifies that annealing has not confused the data structures:
// the grid and block structures agree about the location of every block,
// blocks sit on legal sub-tiles, macros are intact, and the incrementally
// maintained costs are within round-off of a from-scratch recomputation.
// Every error found is logged; any error aborts the run.
func (p *Placer) checkPlace() error {
	numErrors := 0

	numErrors += p.checkPlacementConsistency()
	numErrors += p.checkPlacementCosts()

	if numErrors != 0 {
		return &ConsistencyError{NumErrors: numErrors}
	}

	slog.Info("completed placement consistency check successfully")
	return nil
}

func (p *Placer) checkPlacementCosts() int {
	numErrors := 0

	bbCostCheck := p.compBBCost(bbCheck)
	if math.Abs(bbCostCheck-p.costs.bbCost) > p.costs.bbCost*errorTol {
		slog.Error("bb cost differs in placement check",
			"recomputed", bbCostCheck, "running", p.costs.bbCost)
		numErrors++
	}

	if p.opts.Algorithm == PathTimingDriven {
		timingCostCheck := 0.0
		p.compTDCosts(&timingCostCheck)
		if math.Abs(timingCostCheck-p.costs.timingCost) >
			p.costs.timingCost*errorTol {
			slog.Error("timing cost differs in placement check",
				"recomputed", timingCostCheck, "running", p.costs.timingCost)
			numErrors++
		}
	}

	return numErrors
}

func (p *Placer) checkPlacementConsistency() int {
	return p.checkBlockPlacementConsistency() + p.checkMacroPlacementConsistency()
}

// checkBlockPlacementConsistency steps through the grid occupancy and the
// block locations, checking them against each other.
func (p *Placer) checkBlockPlacementConsistency() int {
	numErrors := 0

	bdone := make([]int, p.nlist.NumBlocks())

	width, height := p.grid.Size()
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			tileType := p.grid.Tile(x, y).Type

			if p.occupancy.usage[x][y] > tileType.Capacity {
				slog.Error("grid location overused",
					"x", x, "y", y, "usage", p.occupancy.usage[x][y])
				numErrors++
			}

			usageCheck := 0
			for s := 0; s < tileType.Capacity; s++ {
				b := p.occupancy.blocks[x][y][s]
				if b == fpga.NoBlock {
					continue
				}

				lt := p.nlist.BlockType(b)
				if !tileType.Compatible(lt) {
					slog.Error("block type does not match grid location type",
						"block", p.nlist.BlockName(b),
						"blockType", lt.Name,
						"x", x, "y", y, "tileType", tileType.Name)
					numErrors++
				}

				loc := p.blockLocs[b]
				if loc.X != x || loc.Y != y ||
					!tileType.SubtileCompatible(lt, loc.Subtile) {
					slog.Error("block location disagrees with grid occupancy",
						"block", p.nlist.BlockName(b),
						"blockLoc", loc,
						"gridX", x, "gridY", y, "gridSubtile", s)
					numErrors++
				}
				usageCheck++
				bdone[b]++
			}
			if usageCheck != p.occupancy.usage[x][y] {
				slog.Error("grid usage miscount",
					"x", x, "y", y,
					"recorded", p.occupancy.usage[x][y], "actual", usageCheck)
				numErrors++
			}
		}
	}

	// Every block must appear in the grid exactly once.
	for b := range bdone {
		if bdone[b] != 1 {
			slog.Error("block listed in grid data structures wrong number of times",
				"block", p.nlist.BlockName(fpga.BlockID(b)), "times", bdone[b])
			numErrors++
		}
	}

	return numErrors
}

// checkMacroPlacementConsistency verifies every macro member sits at its
// head's location plus the member offset, in both indices over the
// placement relation.
func (p *Placer) checkMacroPlacementConsistency() int {
	numErrors := 0

	for im := range p.macros {
		head := p.macros[im].Members[0].Block

		for _, member := range p.macros[im].Members {
			memberPos := p.blockLocs[head].Offset(member.Offset)

			if p.blockLocs[member.Block] != memberPos {
				slog.Error("macro member not placed in the proper orientation",
					"block", p.nlist.BlockName(member.Block), "macro", im)
				numErrors++
			}

			if p.occupancy.blocks[memberPos.X][memberPos.Y][memberPos.Subtile] !=
				member.Block {
				slog.Error("macro member missing from its grid slot",
					"block", p.nlist.BlockName(member.Block), "macro", im)
				numErrors++
			}
		}
	}

	return numErrors
}
