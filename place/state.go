package place

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/annealplace/fpga"
)

// Flags for the states of a net's shadow bounding box within one move.
const (
	notUpdatedYet  byte = iota // committed state is current
	updatedOnce                // shadow holds the result of a prior pin update
	gotFromScratch             // shadow was rebuilt from scratch; do not touch again
)

// bbox is an axis-aligned bounding box in grid coordinates. The same struct
// doubles as the per-edge pin counter (Xmin = number of pins on the xmin
// edge, and so on).
type bbox struct {
	Xmin, Xmax int
	Ymin, Ymax int
}

// costs accumulates the composite objective. Deltas are computed in float64
// to keep round-off small relative to the totals on large designs.
type costs struct {
	cost       float64
	bbCost     float64
	timingCost float64
}

// prevInverseCosts normalizes the bb and timing objectives each outer
// iteration.
type prevInverseCosts struct {
	bbCost     float64
	timingCost float64
}

// gridOccupancy is the lazily updated inverse of blockLocs: it maps every
// sub-tile slot back to its occupant. It is only written on move commit, so
// it must not be consulted while a move is being evaluated.
type gridOccupancy struct {
	blocks [][][]fpga.BlockID // [x][y][subtile]
	usage  [][]int            // [x][y]
}

func newGridOccupancy(g *fpga.Grid) *gridOccupancy {
	o := &gridOccupancy{
		blocks: make([][][]fpga.BlockID, g.Width),
		usage:  make([][]int, g.Width),
	}
	for x := 0; x < g.Width; x++ {
		o.blocks[x] = make([][]fpga.BlockID, g.Height)
		o.usage[x] = make([]int, g.Height)
		for y := 0; y < g.Height; y++ {
			slots := make([]fpga.BlockID, g.Tile(x, y).Type.Capacity)
			for s := range slots {
				slots[s] = fpga.NoBlock
			}
			o.blocks[x][y] = slots
		}
	}
	return o
}

// Placer owns all mutable placement state. All annealing mutation happens on
// its call stack; external collaborators are invoked synchronously.
type Placer struct {
	opts  Options
	grid  *fpga.Grid
	nlist *fpga.Netlist

	macros     []fpga.Macro
	blockMacro []int // index into macros, or -1

	delayModel DelayModel
	timing     TimingAnalyzer
	moveGen    MoveGenerator

	rng *rand.Rand

	blockLocs []fpga.Loc
	occupancy *gridOccupancy

	// Committed per-net wirelength state.
	netCost      []float64
	bbCoords     []bbox
	bbNumOnEdges []bbox

	// Channel cost factors, chanX[high][low] and chanY[high][low].
	chanXCostFac [][]float64
	chanYCostFac [][]float64

	// Shadow buffers owned by the in-flight trySwap. proposedNetCost also
	// acts as the affected-net mark: -1 means unmarked.
	proposedNetCost []float64
	tsBBCoordNew    []bbox
	tsBBEdgeNew     []bbox
	tsNetsToUpdate  []fpga.NetID
	bbUpdatedBefore []byte

	// Committed and proposed timing state, [net][ipin] with ipin >= 1.
	connDelay              [][]float64
	proposedConnDelay      [][]float64
	connTimingCost         [][]float64
	proposedConnTimingCost [][]float64

	// Per-net timing cost sums, maintained lazily so incremental totals
	// reduce in the same connection -> net -> total order as a from-scratch
	// recomputation.
	netTimingCost []float64
	netTCostDirty []bool

	costs   costs
	prevInv prevInverseCosts

	blocksAffected BlocksAffected

	numSwapAccepted int
	numSwapRejected int
	numSwapAborted  int
	numTSCalled     int

	moveLog *moveStatsLog
	status  *statusReport
}

// NewPlacer builds a placer over an already-legalized initial placement.
// initial gives the starting location of every block; macros lists the rigid
// block groups. In PathTimingDriven mode delayModel and timing must be
// non-nil. A nil moveGen selects the uniform random generator.
func NewPlacer(
	grid *fpga.Grid,
	nlist *fpga.Netlist,
	initial []fpga.Loc,
	macros []fpga.Macro,
	opts Options,
	delayModel DelayModel,
	timing TimingAnalyzer,
	moveGen MoveGenerator,
) (*Placer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(initial) != nlist.NumBlocks() {
		return nil, fmt.Errorf("place: %d initial locations for %d blocks",
			len(initial), nlist.NumBlocks())
	}
	if opts.Algorithm == PathTimingDriven {
		if delayModel == nil {
			return nil, fmt.Errorf("place: timing-driven placement needs a delay model")
		}
		if timing == nil {
			return nil, fmt.Errorf("place: timing-driven placement needs a timing analyzer")
		}
	}
	if moveGen == nil {
		moveGen = &UniformMoveGenerator{}
	}

	p := &Placer{
		opts:       opts,
		grid:       grid,
		nlist:      nlist,
		macros:     macros,
		delayModel: delayModel,
		timing:     timing,
		moveGen:    moveGen,
		rng:        rand.New(rand.NewSource(opts.Seed)),
	}

	p.blockLocs = make([]fpga.Loc, len(initial))
	copy(p.blockLocs, initial)

	p.blockMacro = make([]int, nlist.NumBlocks())
	for i := range p.blockMacro {
		p.blockMacro[i] = -1
	}
	for im, m := range macros {
		for _, member := range m.Members {
			p.blockMacro[member.Block] = im
		}
	}

	p.occupancy = newGridOccupancy(grid)
	if err := p.loadOccupancy(); err != nil {
		return nil, err
	}

	p.allocPlacementStructs()
	p.allocChanCostFactors(opts.PlaceCostExp)

	return p, nil
}

// loadOccupancy derives the grid inverse lookup from the initial block
// locations, rejecting out-of-range or doubly occupied slots.
func (p *Placer) loadOccupancy() error {
	for b := fpga.BlockID(0); int(b) < p.nlist.NumBlocks(); b++ {
		loc := p.blockLocs[b]
		if !p.grid.Inside(loc.X, loc.Y) {
			return fmt.Errorf("place: block %s placed outside the grid at (%d,%d)",
				p.nlist.BlockName(b), loc.X, loc.Y)
		}
		tile := p.grid.Tile(loc.X, loc.Y)
		if loc.Subtile < 0 || loc.Subtile >= tile.Type.Capacity {
			return fmt.Errorf("place: block %s placed at invalid sub-tile (%d,%d,%d)",
				p.nlist.BlockName(b), loc.X, loc.Y, loc.Subtile)
		}
		if occ := p.occupancy.blocks[loc.X][loc.Y][loc.Subtile]; occ != fpga.NoBlock {
			return fmt.Errorf("place: blocks %s and %s both placed at (%d,%d,%d)",
				p.nlist.BlockName(occ), p.nlist.BlockName(b),
				loc.X, loc.Y, loc.Subtile)
		}
		p.occupancy.blocks[loc.X][loc.Y][loc.Subtile] = b
		p.occupancy.usage[loc.X][loc.Y]++
	}
	return nil
}

// allocPlacementStructs sizes every cost buffer and shadow buffer once, up
// front, so the annealing hot loop never allocates.
func (p *Placer) allocPlacementStructs() {
	numNets := p.nlist.NumNets()

	p.netCost = make([]float64, numNets)
	p.proposedNetCost = make([]float64, numNets)
	p.bbCoords = make([]bbox, numNets)
	p.bbNumOnEdges = make([]bbox, numNets)
	p.tsBBCoordNew = make([]bbox, numNets)
	p.tsBBEdgeNew = make([]bbox, numNets)
	p.tsNetsToUpdate = make([]fpga.NetID, numNets)
	p.bbUpdatedBefore = make([]byte, numNets)
	for i := range p.netCost {
		p.netCost[i] = -1
		p.proposedNetCost[i] = -1
		p.bbUpdatedBefore[i] = notUpdatedYet
	}

	if p.opts.Algorithm == PathTimingDriven {
		p.connDelay = make([][]float64, numNets)
		p.proposedConnDelay = make([][]float64, numNets)
		p.connTimingCost = make([][]float64, numNets)
		p.proposedConnTimingCost = make([][]float64, numNets)
		p.netTimingCost = make([]float64, numNets)
		p.netTCostDirty = make([]bool, numNets)

		for n := fpga.NetID(0); int(n) < numNets; n++ {
			numPins := len(p.nlist.NetPins(n))
			p.connDelay[n] = make([]float64, numPins)
			p.proposedConnDelay[n] = make([]float64, numPins)
			p.connTimingCost[n] = make([]float64, numPins)
			p.proposedConnTimingCost[n] = make([]float64, numPins)
			for ipin := 1; ipin < numPins; ipin++ {
				p.proposedConnDelay[n][ipin] = invalidDelay
				p.proposedConnTimingCost[n][ipin] = invalidDelay
				p.connTimingCost[n][ipin] = invalidDelay
			}
		}
	}

	p.blocksAffected.Moved = make([]MovedBlock, 0, p.nlist.NumBlocks())
	p.blocksAffected.AffectedPins = make([]fpga.PinID, 0, p.nlist.NumPins())
}

// Grid returns the device the placer operates on.
func (p *Placer) Grid() *fpga.Grid { return p.grid }

// Netlist returns the circuit the placer operates on.
func (p *Placer) Netlist() *fpga.Netlist { return p.nlist }

// BlockLoc returns the current location of a block.
func (p *Placer) BlockLoc(b fpga.BlockID) fpga.Loc { return p.blockLocs[b] }

// BlockMacro returns the macro index a block belongs to, or -1.
func (p *Placer) BlockMacro(b fpga.BlockID) int { return p.blockMacro[b] }

// Macro returns the im-th placement macro.
func (p *Placer) Macro(im int) fpga.Macro { return p.macros[im] }

// GridBlock returns the committed occupant of a sub-tile slot, or NoBlock.
// The inverse lookup is only refreshed on move commit, so it must not be
// consulted for blocks that are part of the move being evaluated.
func (p *Placer) GridBlock(x, y, subtile int) fpga.BlockID {
	return p.occupancy.blocks[x][y][subtile]
}

// Rand returns the placer's random stream. The move generator and the
// acceptance test share this single stream so a fixed seed replays.
func (p *Placer) Rand() *rand.Rand { return p.rng }

// pinLoc returns the physical coordinates of a pin: its block's location
// plus the pin offset of the tile type at that location.
func (p *Placer) pinLoc(pin fpga.PinID) (x, y int) {
	b := p.nlist.PinBlock(pin)
	loc := p.blockLocs[b]
	ox, oy := p.grid.Tile(loc.X, loc.Y).Type.PinOffset(p.nlist.PinTileIndex(pin))
	return loc.X + ox, loc.Y + oy
}

// applyMoveBlocks tentatively applies a move to the primary index
// (blockLocs). The grid inverse lookup is left untouched until commit.
func (p *Placer) applyMoveBlocks(ba *BlocksAffected) {
	for i := range ba.Moved {
		p.blockLocs[ba.Moved[i].Block] = ba.Moved[i].NewLoc
	}
}

// revertMoveBlocks restores blockLocs to its state before the move.
func (p *Placer) revertMoveBlocks(ba *BlocksAffected) {
	for i := range ba.Moved {
		p.blockLocs[ba.Moved[i].Block] = ba.Moved[i].OldLoc
	}
}

// commitMoveBlocks updates the grid inverse lookup after an accepted move.
// All old slots are vacated before any new slot is claimed so block swaps
// commit cleanly.
func (p *Placer) commitMoveBlocks(ba *BlocksAffected) {
	for i := range ba.Moved {
		old := ba.Moved[i].OldLoc
		p.occupancy.blocks[old.X][old.Y][old.Subtile] = fpga.NoBlock
		p.occupancy.usage[old.X][old.Y]--
	}
	for i := range ba.Moved {
		loc := ba.Moved[i].NewLoc
		p.occupancy.blocks[loc.X][loc.Y][loc.Subtile] = ba.Moved[i].Block
		p.occupancy.usage[loc.X][loc.Y]++
	}
}

// recordAffectedNet marks a net as touched by the current move, at most
// once. A non-negative proposedNetCost doubles as the mark.
func (p *Placer) recordAffectedNet(net fpga.NetID, numAffected *int) {
	if p.proposedNetCost[net] < 0 {
		p.tsNetsToUpdate[*numAffected] = net
		*numAffected++
		p.proposedNetCost[net] = 1
	}
}

// updateMoveNets copies the shadow bounding boxes and net costs into the
// committed state and clears the shadow flags, after an accepted move.
func (p *Placer) updateMoveNets(numAffected int) {
	for i := 0; i < numAffected; i++ {
		net := p.tsNetsToUpdate[i]

		p.bbCoords[net] = p.tsBBCoordNew[net]
		if p.nlist.NetSinks(net) >= smallNet {
			p.bbNumOnEdges[net] = p.tsBBEdgeNew[net]
		}

		p.netCost[net] = p.proposedNetCost[net]

		// Negative proposedNetCost doubles as the unmarked flag.
		p.proposedNetCost[net] = -1
		p.bbUpdatedBefore[net] = notUpdatedYet
	}
}

// resetMoveNets clears the shadow flags after a rejected move.
func (p *Placer) resetMoveNets(numAffected int) {
	for i := 0; i < numAffected; i++ {
		net := p.tsNetsToUpdate[i]
		p.proposedNetCost[net] = -1
		p.bbUpdatedBefore[net] = notUpdatedYet
	}
}
