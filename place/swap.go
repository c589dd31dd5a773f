package place

import (
	"math"

	"github.com/sarchlab/annealplace/fpga"
)

// assessSwap samples the annealing acceptance test. Downhill and sideways
// moves always pass; at zero temperature nothing else does; otherwise an
// uphill move passes with probability exp(-deltaC/t).
func (p *Placer) assessSwap(deltaC, t float64) MoveResult {
	if deltaC <= 0 {
		return Accepted
	}

	if t == 0 {
		return Rejected
	}

	if math.Exp(-deltaC/t) > p.rng.Float64() {
		return Accepted
	}

	return Rejected
}

// composeDelta folds the wirelength and timing deltas into the scalar
// objective change. In timing-driven mode both components are normalized by
// the previous iteration's inverse costs, so the result is expressed
// relative to 1.
func (p *Placer) composeDelta(bbDeltaC, timingDeltaC float64) float64 {
	if p.opts.Algorithm == PathTimingDriven {
		return (1-p.opts.TimingTradeoff)*bbDeltaC*p.prevInv.bbCost +
			p.opts.TimingTradeoff*timingDeltaC*p.prevInv.timingCost
	}
	return bbDeltaC
}

// findAffectedNetsAndUpdateCosts walks every pin of every moved block,
// marks each reachable net once, refreshes its shadow bounding box and, in
// timing-driven mode, its timing delta. It then prices each affected net
// once and accumulates the wirelength delta. Returns the number of affected
// nets.
func (p *Placer) findAffectedNetsAndUpdateCosts(
	ba *BlocksAffected,
	bbDeltaC, timingDeltaC *float64,
) (int, error) {
	numAffected := 0

	for i := range ba.Moved {
		mb := &ba.Moved[i]

		for _, pin := range p.nlist.BlockPins(mb.Block) {
			net := p.nlist.PinNet(pin)

			// Ignored nets span the whole chip and contribute no cost.
			if p.nlist.NetIsIgnored(net) {
				continue
			}

			p.recordAffectedNet(net, &numAffected)

			// The net cost itself is priced once per net below, not once
			// per pin.
			p.updateNetBB(net, mb, pin)

			if p.opts.Algorithm == PathTimingDriven {
				err := p.updateTDDeltaCosts(net, pin, ba, timingDeltaC)
				if err != nil {
					return numAffected, err
				}
			}
		}
	}

	for i := 0; i < numAffected; i++ {
		net := p.tsNetsToUpdate[i]
		p.proposedNetCost[net] = p.getNetCost(net, &p.tsBBCoordNew[net])
		*bbDeltaC += p.proposedNetCost[net] - p.netCost[net]
	}

	return numAffected, nil
}

// trySwap asks the move generator for a tentative relocation, prices it
// incrementally, samples acceptance, and either commits or reverts. On
// either exit every shadow buffer is back in its cleared state.
func (p *Placer) trySwap(t, rlim float64) (MoveResult, error) {
	p.numTSCalled++

	// proposedNetCost doubles as the affected-net mark, so the cost
	// function must never go negative.

	deltaC := 0.0 // change in cost due to this swap
	bbDeltaC := 0.0
	timingDeltaC := 0.0

	// Allow some fraction of moves to ignore the range limit, in the hope
	// of better escaping local minima.
	if p.opts.RlimEscapeFraction > 0 && p.rng.Float64() < p.opts.RlimEscapeFraction {
		rlim = math.Inf(1)
	}

	ba := &p.blocksAffected
	createOutcome := p.moveGen.Propose(p, ba, rlim)

	p.moveLog.proposed(t, p, ba)

	var outcome MoveResult
	var stats MoveStats

	if createOutcome == MoveAbort {
		// Proposed move is not legal; give up on this attempt.
		ba.Clear()
		outcome = Aborted
		p.moveLog.outcome(math.NaN(), math.NaN(), math.NaN(), "ABORTED", "illegal move")
	} else {
		// Evaluating the move is simpler when the blocks already sit at
		// their new locations, so blockLocs is updated first and the
		// deltas are computed after. The grid inverse lookup is refreshed
		// only on acceptance; it must not be consulted while evaluating.
		p.applyMoveBlocks(ba)

		numAffected, err := p.findAffectedNetsAndUpdateCosts(
			ba, &bbDeltaC, &timingDeltaC)
		if err != nil {
			return Aborted, err
		}

		deltaC = p.composeDelta(bbDeltaC, timingDeltaC)

		outcome = p.assessSwap(deltaC, t)

		if outcome == Accepted {
			p.costs.cost += deltaC
			p.costs.bbCost += bbDeltaC

			if p.opts.Algorithm == PathTimingDriven {
				p.costs.timingCost += timingDeltaC

				// Must precede commitTDCost, which consumes the
				// proposed-vs-committed delay comparison.
				p.invalidateAffectedConnectionDelays(ba)
				p.commitTDCost(ba)
			}

			p.updateMoveNets(numAffected)
			p.commitMoveBlocks(ba)
		} else {
			p.resetMoveNets(numAffected)
			p.revertMoveBlocks(ba)

			if p.opts.Algorithm == PathTimingDriven {
				p.revertTDCost(ba)
			}
		}

		stats.DeltaCostNorm = deltaC
		stats.DeltaBBCostNorm = bbDeltaC * p.prevInv.bbCost
		stats.DeltaTimingCostNorm = timingDeltaC * p.prevInv.timingCost
		stats.DeltaBBCostAbs = bbDeltaC
		stats.DeltaTimingCostAbs = timingDeltaC

		p.moveLog.outcome(deltaC, bbDeltaC, timingDeltaC, outcome.Name(), "")
	}

	stats.Outcome = outcome
	p.moveGen.ProcessOutcome(stats)

	ba.Clear()

	return outcome, nil
}

// uniformFindTo picks a location within rlim (Chebyshev) of from whose tile
// type can host the given logical type, trying a bounded number of draws.
func (p *Placer) uniformFindTo(
	from fpga.Loc,
	lt *fpga.LogicalType,
	rlim float64,
) (fpga.Loc, bool) {
	width, height := p.grid.Size()

	// Compare before converting: rlim may be +Inf from the escape hatch,
	// and a float-to-int conversion of +Inf is unspecified.
	maxDim := max(width-1, height-1)
	rlimI := maxDim
	if rlim < float64(maxDim) {
		rlimI = int(rlim)
	}
	if rlimI < 1 {
		rlimI = 1
	}

	const maxTries = 12

	for try := 0; try < maxTries; try++ {
		x := from.X + p.rng.Intn(2*rlimI+1) - rlimI
		y := from.Y + p.rng.Intn(2*rlimI+1) - rlimI
		if !p.grid.Inside(x, y) {
			continue
		}

		tileType := p.grid.Tile(x, y).Type
		if !tileType.Compatible(lt) {
			continue
		}

		sub := p.rng.Intn(tileType.Capacity)
		to := fpga.Loc{X: x, Y: y, Subtile: sub}
		if to == from {
			continue
		}
		return to, true
	}

	return fpga.Loc{}, false
}

// UniformMoveGenerator proposes uniform random displacements within the
// range limit. Macros move rigidly; a single block landing on an occupied
// slot swaps with the occupant when the occupant fits the vacated slot.
type UniformMoveGenerator struct{}

// Propose implements MoveGenerator.
func (g *UniformMoveGenerator) Propose(
	p *Placer,
	ba *BlocksAffected,
	rlim float64,
) ProposeResult {
	nlist := p.Netlist()

	b := fpga.BlockID(p.Rand().Intn(nlist.NumBlocks()))
	from := p.BlockLoc(b)

	to, ok := p.uniformFindTo(from, nlist.BlockType(b), rlim)
	if !ok {
		return MoveAbort
	}

	if im := p.BlockMacro(b); im >= 0 {
		return g.proposeMacroMove(p, ba, im, to.X-from.X, to.Y-from.Y)
	}

	occupant := p.GridBlock(to.X, to.Y, to.Subtile)
	if occupant == b {
		return MoveAbort
	}
	if occupant != fpga.NoBlock {
		// Swap, unless the occupant is rigid or cannot use the vacated
		// slot.
		if p.BlockMacro(occupant) >= 0 {
			return MoveAbort
		}
		fromType := p.Grid().Tile(from.X, from.Y).Type
		if !fromType.SubtileCompatible(nlist.BlockType(occupant), from.Subtile) {
			return MoveAbort
		}
		ba.Record(occupant, to, from)
	}

	ba.Record(b, from, to)
	return MoveValid
}

// proposeMacroMove translates a whole macro by (dx, dy). Any member landing
// outside the grid, on an incompatible tile, or on a slot held by a
// non-member aborts the move.
func (g *UniformMoveGenerator) proposeMacroMove(
	p *Placer,
	ba *BlocksAffected,
	im, dx, dy int,
) ProposeResult {
	nlist := p.Netlist()
	macro := p.Macro(im)

	for _, member := range macro.Members {
		from := p.BlockLoc(member.Block)
		to := fpga.Loc{X: from.X + dx, Y: from.Y + dy, Subtile: from.Subtile}

		if !p.Grid().Inside(to.X, to.Y) {
			return MoveAbort
		}
		tileType := p.Grid().Tile(to.X, to.Y).Type
		if !tileType.SubtileCompatible(nlist.BlockType(member.Block), to.Subtile) {
			return MoveAbort
		}

		occupant := p.GridBlock(to.X, to.Y, to.Subtile)
		if occupant != fpga.NoBlock && p.BlockMacro(occupant) != im {
			return MoveAbort
		}

		ba.Record(member.Block, from, to)
	}

	return MoveValid
}

// ProcessOutcome implements MoveGenerator. The uniform generator does not
// adapt.
func (g *UniformMoveGenerator) ProcessOutcome(stats MoveStats) {}
