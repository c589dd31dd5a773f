package place

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sarchlab/annealplace/fpga"
)

// Result summarizes a completed placement run.
type Result struct {
	Cost       float64
	BBCost     float64
	TimingCost float64

	NumTemps  int
	TotalIter int

	SwapsAccepted int
	SwapsRejected int
	SwapsAborted  int
	SwapsCalled   int
}

// placerStats accumulates the per-temperature statistics the schedule
// consumes.
type placerStats struct {
	avCost       float64
	avBBCost     float64
	avTimingCost float64
	sumOfSquares float64
	successSum   int
}

func (p *Placer) calcPlacerStats(stats *placerStats, moveLim int) (successRat, sd float64) {
	successRat = float64(stats.successSum) / float64(moveLim)
	if stats.successSum == 0 {
		stats.avCost = p.costs.cost
		stats.avBBCost = p.costs.bbCost
		stats.avTimingCost = p.costs.timingCost
	} else {
		stats.avCost /= float64(stats.successSum)
		stats.avBBCost /= float64(stats.successSum)
		stats.avTimingCost /= float64(stats.successSum)
	}

	sd = stdDev(stats.successSum, stats.sumOfSquares, stats.avCost)
	return successRat, sd
}

// recomputeCriticalities runs the STA to refresh slacks, re-sharpens the
// criticalities, and refreshes the timing cost total.
func (p *Placer) recomputeCriticalities(critExponent float64) {
	p.timing.Update()
	p.timing.UpdateCriticalities(critExponent)
	p.updateTDCosts(&p.costs.timingCost)
	p.timing.ResetInvalidation()
}

// outerLoopRecomputeCriticalities refreshes criticalities on the configured
// outer-loop cadence and re-normalizes the cost inverses for the next
// temperature. The normalization must follow the most recent criticality
// update so delta blending uses consistent scales.
func (p *Placer) outerLoopRecomputeCriticalities(
	critExponent float64,
	outerCritIterCount *int,
) {
	if p.opts.Algorithm != PathTimingDriven {
		return
	}

	if *outerCritIterCount >= p.opts.RecomputeCritIter ||
		p.opts.InnerLoopRecomputeDivider != 0 {
		p.recomputeCriticalities(critExponent)
		*outerCritIterCount = 0
	}
	*outerCritIterCount++

	p.prevInv.bbCost = 1 / p.costs.bbCost
	// Prevent the inverse timing cost from going to infinity.
	p.prevInv.timingCost = math.Min(1/p.costs.timingCost, maxInvTimingCost)
}

// recomputeCostsFromScratch sheds the round-off that accumulates in the
// incrementally updated totals over many moves, and verifies they drifted
// no further than the error tolerance. Larger drift means the incremental
// cost code is buggy, which is fatal.
func (p *Placer) recomputeCostsFromScratch() error {
	newBBCost := p.recomputeBBCost()
	if math.Abs(newBBCost-p.costs.bbCost) > p.costs.bbCost*errorTol {
		return &CostDriftError{What: "bb_cost", New: newBBCost, Old: p.costs.bbCost}
	}
	p.costs.bbCost = newBBCost

	if p.opts.Algorithm == PathTimingDriven {
		newTimingCost := 0.0
		p.compTDCosts(&newTimingCost)
		if math.Abs(newTimingCost-p.costs.timingCost) > p.costs.timingCost*errorTol {
			return &CostDriftError{
				What: "timing_cost", New: newTimingCost, Old: p.costs.timingCost}
		}
		p.costs.timingCost = newTimingCost
	} else {
		p.costs.cost = newBBCost
	}

	return nil
}

// startingT estimates the hot-condition starting temperature by probing
// min(maxMoves, number of blocks) moves at an essentially infinite
// temperature and returning 20 times the standard deviation of the
// accepted-move costs.
func (p *Placer) startingT(maxMoves int) (float64, error) {
	if p.opts.Sched.Type == UserSched {
		return p.opts.Sched.InitT, nil
	}

	moveLim := min(maxMoves, p.nlist.NumBlocks())

	numAccepted := 0
	av := 0.0
	sumOfSquares := 0.0

	for i := 0; i < moveLim; i++ {
		result, err := p.trySwap(math.Inf(1), float64(maxRlim(p.grid)))
		if err != nil {
			return 0, err
		}

		switch result {
		case Accepted:
			numAccepted++
			av += p.costs.cost
			sumOfSquares += p.costs.cost * p.costs.cost
			p.numSwapAccepted++
		case Aborted:
			p.numSwapAborted++
		default:
			p.numSwapRejected++
		}
	}

	if numAccepted != 0 {
		av /= float64(numAccepted)
	} else {
		av = 0
	}

	sd := stdDev(numAccepted, sumOfSquares, av)

	if numAccepted != moveLim {
		slog.Warn("starting temperature estimate accepted fewer configurations than probed",
			"accepted", numAccepted, "probed", moveLim)
	}

	Trace("StartingT", "stdDev", sd, "avCost", av, "startingT", 20*sd)

	// 20 times the standard deviation adjusts the initial temperature to
	// the circuit.
	return 20 * sd, nil
}

// placementInnerLoop runs one temperature's worth of moves, accumulating
// statistics, periodically re-running STA mid-temperature, shedding
// round-off every maxMovesBeforeRecompute moves, and dumping placement
// checkpoints when configured.
func (p *Placer) placementInnerLoop(
	t float64,
	tempNum int,
	rlim float64,
	moveLim int,
	critExponent float64,
	innerRecomputeLimit int,
	stats *placerStats,
	movesSinceCostRecompute *int,
) error {
	stats.avCost = 0
	stats.avBBCost = 0
	stats.avTimingCost = 0
	stats.sumOfSquares = 0
	stats.successSum = 0

	innerCritIterCount := 1
	innerPlacementSaveCount := 0

	for innerIter := 0; innerIter < moveLim; innerIter++ {
		swapResult, err := p.trySwap(t, rlim)
		if err != nil {
			return err
		}

		switch swapResult {
		case Accepted:
			stats.successSum++
			stats.avCost += p.costs.cost
			stats.avBBCost += p.costs.bbCost
			stats.avTimingCost += p.costs.timingCost
			stats.sumOfSquares += p.costs.cost * p.costs.cost
			p.numSwapAccepted++
		case Aborted:
			p.numSwapAborted++
		default:
			p.numSwapRejected++
		}

		if p.opts.Algorithm == PathTimingDriven {
			// Re-run the timing analysis once in a while (it is expensive),
			// but never on the last move of the temperature.
			if innerCritIterCount >= innerRecomputeLimit &&
				innerIter != moveLim-1 {
				innerCritIterCount = 0
				p.recomputeCriticalities(critExponent)
			}
			innerCritIterCount++
		}

		// Prevent round-off from accumulating in the cost over many
		// incremental updates; unchecked, the periodic consistency checks
		// start failing on totals that differ from a fresh recomputation.
		*movesSinceCostRecompute++
		if *movesSinceCostRecompute > maxMovesBeforeRecompute {
			if err := p.recomputeCostsFromScratch(); err != nil {
				return err
			}
			*movesSinceCostRecompute = 0
		}

		if p.opts.PlacementSavesPerTemperature >= 1 &&
			innerIter > 0 &&
			(innerIter+1)%(moveLim/p.opts.PlacementSavesPerTemperature) == 0 {
			filename := fmt.Sprintf("placement_%03d_%03d.place",
				tempNum+1, innerPlacementSaveCount)
			slog.Info("saving placement checkpoint",
				"move", innerIter, "moveLim", moveLim, "file", filename)
			if err := p.savePlacement(filename); err != nil {
				return err
			}
			innerPlacementSaveCount++
		}
	}

	return nil
}

func maxRlim(g *fpga.Grid) int {
	w, h := g.Size()
	return max(w-1, h-1)
}

// moveLimit scales the moves-per-temperature budget per the configured
// effort scaling.
func (p *Placer) moveLimit() int {
	numBlocks := float64(p.nlist.NumBlocks())

	var moveLim int
	switch p.opts.EffortScaling {
	case Circuit:
		moveLim = int(p.opts.Sched.InnerNum * math.Pow(numBlocks, 4.0/3.0))
	case DeviceCircuit:
		// For highly utilized devices this matches the Circuit scaling;
		// for low utilization the larger search space warrants more moves.
		w, h := p.grid.Size()
		deviceSize := float64(w * h)
		moveLim = int(p.opts.Sched.InnerNum *
			math.Pow(deviceSize, 2.0/3.0) * math.Pow(numBlocks, 2.0/3.0))
	}

	// A zero move limit causes division by zero and zero-length vector
	// problems, so floor at one (too small to optimize anything, but the
	// router is sometimes run on a random placement).
	if moveLim <= 0 {
		moveLim = 1
	}

	return moveLim
}

// Place runs the full simulated annealing: starting temperature probe,
// outer loop over temperatures, zero-temperature quench, and the final
// consistency check.
func (p *Placer) Place() (Result, error) {
	var err error

	p.numSwapAccepted = 0
	p.numSwapRejected = 0
	p.numSwapAborted = 0
	p.numTSCalled = 0

	if p.opts.MoveStatsFile != "" {
		p.moveLog, err = newMoveStatsLog(p.opts.MoveStatsFile)
		if err != nil {
			return Result{}, err
		}
		defer p.moveLog.close()
	}

	numConnections := 0
	outerCritIterCount := 0
	firstCritExponent := 0.0

	if p.opts.Algorithm == PathTimingDriven {
		p.costs.bbCost = p.compBBCost(bbNormal)

		// Modified later as the range limit starts to shrink.
		firstCritExponent = p.opts.TDPlaceExpFirst

		numConnections = p.countConnections()
		slog.Info("point to point connections in this circuit",
			"connections", numConnections)

		if err := p.compTDConnectionDelays(); err != nil {
			return Result{}, err
		}

		outerCritIterCount = 1
		p.recomputeCriticalities(firstCritExponent)

		p.prevInv.timingCost = 1 / p.costs.timingCost
		p.prevInv.bbCost = 1 / p.costs.bbCost
		// The timing-driven cost function works on normalized deltas, so
		// the scalar cost is pinned to 1 at each temperature.
		p.costs.cost = 1
	} else {
		p.costs.bbCost = p.compBBCost(bbNormal)
		p.costs.cost = p.costs.bbCost
		p.costs.timingCost = 0
		p.prevInv.timingCost = 0
		p.prevInv.bbCost = 0
	}

	// The initial placement must already be legal.
	if err := p.checkPlace(); err != nil {
		return Result{}, err
	}

	slog.Info("initial placement cost",
		"cost", p.costs.cost,
		"bbCost", p.costs.bbCost,
		"tdCost", p.costs.timingCost)

	if p.opts.PlacementSavesPerTemperature >= 1 {
		filename := fmt.Sprintf("placement_%03d_%03d.place", 0, 0)
		slog.Info("saving initial placement", "file", filename)
		if err := p.savePlacement(filename); err != nil {
			return Result{}, err
		}
	}

	moveLim := p.moveLimit()
	slog.Info("moves per temperature", "moves", moveLim)

	innerRecomputeLimit := moveLim + 1 // no inner recompute
	if p.opts.InnerLoopRecomputeDivider != 0 {
		innerRecomputeLimit = int(0.5 +
			float64(moveLim)/float64(p.opts.InnerLoopRecomputeDivider))
	}

	quenchRecomputeLimit := moveLim + 1 // no quench recompute
	if p.opts.QuenchRecomputeDivider != 0 {
		quenchRecomputeLimit = int(0.5 +
			float64(moveLim)/float64(p.opts.QuenchRecomputeDivider))
	}

	firstRlim := float64(maxRlim(p.grid))

	firstT, err := p.startingT(moveLim)
	if err != nil {
		return Result{}, err
	}

	var state annealingState
	p.initAnnealingState(&state, firstT, firstRlim, moveLim, firstCritExponent)

	p.status = newStatusReport()

	var stats placerStats
	totIter := 0
	movesSinceCostRecompute := 0
	numTemps := 0

	// Outer loop of the simulated annealing.
	for {
		tempStart := time.Now()
		if p.opts.Algorithm == PathTimingDriven {
			p.costs.cost = 1
		}

		p.outerLoopRecomputeCriticalities(state.critExponent, &outerCritIterCount)

		err = p.placementInnerLoop(state.t, numTemps, state.rlim,
			state.moveLim, state.critExponent, innerRecomputeLimit,
			&stats, &movesSinceCostRecompute)
		if err != nil {
			return Result{}, err
		}

		totIter += state.moveLim

		successRat, sd := p.calcPlacerStats(&stats, state.moveLim)

		numTemps++

		p.status.addRow(numTemps, time.Since(tempStart), state.t, state.alpha,
			&stats, successRat, sd, state.rlim, state.critExponent, totIter)

		if !p.updateAnnealingState(&state, successRat) {
			break
		}
	}

	// Quench: one more pass at zero temperature, accepting only downhill
	// moves.
	{
		quenchStart := time.Now()

		p.outerLoopRecomputeCriticalities(state.critExponent, &outerCritIterCount)

		state.t = 0 // freeze out

		err = p.placementInnerLoop(state.t, numTemps, state.rlim,
			moveLim, state.critExponent, quenchRecomputeLimit,
			&stats, &movesSinceCostRecompute)
		if err != nil {
			return Result{}, err
		}

		totIter += moveLim
		numTemps++

		successRat, sd := p.calcPlacerStats(&stats, moveLim)

		p.status.addRow(numTemps, time.Since(quenchStart), state.t, state.alpha,
			&stats, successRat, sd, state.rlim, state.critExponent, totIter)
	}

	if p.opts.PlacementSavesPerTemperature >= 1 {
		filename := fmt.Sprintf("placement_%03d_%03d.place", numTemps+1, 0)
		slog.Info("saving final placement", "file", filename)
		if err := p.savePlacement(filename); err != nil {
			return Result{}, err
		}
	}

	if err := p.checkPlace(); err != nil {
		return Result{}, err
	}

	if p.opts.Algorithm == PathTimingDriven {
		// Final timing estimate on the quenched placement.
		p.recomputeCriticalities(state.critExponent)
	}

	slog.Info("placement done",
		"cost", p.costs.cost,
		"bbCost", p.costs.bbCost,
		"tdCost", p.costs.timingCost,
		"swapsCalled", p.numTSCalled)

	fmt.Print(p.status.render())
	fmt.Print(p.renderResourceUtilization())
	p.reportSwapStats(numTemps)

	return Result{
		Cost:          p.costs.cost,
		BBCost:        p.costs.bbCost,
		TimingCost:    p.costs.timingCost,
		NumTemps:      numTemps,
		TotalIter:     totIter,
		SwapsAccepted: p.numSwapAccepted,
		SwapsRejected: p.numSwapRejected,
		SwapsAborted:  p.numSwapAborted,
		SwapsCalled:   p.numTSCalled,
	}, nil
}
