package place

import (
	"math"
)

// annealingState carries the evolving schedule variables across outer
// iterations.
type annealingState struct {
	t                float64 // temperature
	rlim             float64 // range limit for swaps
	inverseDeltaRlim float64 // used to interpolate the criticality exponent
	alpha            float64 // temperature decay per outer iteration
	restartT         float64 // restart temperature for the dusty schedule
	critExponent     float64 // sharpens timing criticality in timing-driven mode
	moveLimMax       int
	moveLim          int
}

func (p *Placer) initAnnealingState(
	state *annealingState,
	t, rlim float64,
	moveLimMax int,
	critExponent float64,
) {
	sched := p.opts.Sched

	state.alpha = sched.AlphaMin
	state.t = t
	state.restartT = t
	state.rlim = rlim
	state.inverseDeltaRlim = 1 / (rlim - finalRlim)
	state.moveLimMax = max(1, moveLimMax)
	if sched.Type == DustySched {
		state.moveLim = max(1, int(float64(state.moveLimMax)*sched.SuccessTarget))
	} else {
		state.moveLim = state.moveLimMax
	}
	state.critExponent = critExponent
}

// updateRlim adapts the range limit to keep the acceptance probability near
// 0.44. The range limit stays floating point so low temperatures see
// gradual transitions.
func (p *Placer) updateRlim(rlim *float64, successRat float64) {
	width, height := p.grid.Size()

	*rlim = *rlim * (1 - 0.44 + successRat)
	upperLim := float64(max(width-1, height-1))
	*rlim = math.Min(*rlim, upperLim)
	*rlim = math.Max(*rlim, 1)
}

// updateAnnealingState advances the schedule after an outer iteration:
//
//	UserSched:  fixed alpha and exit criterion.
//	AutoSched:  alpha varies with the success ratio.
//	DustySched: jumps backward and slows down in response to the success
//	            ratio.
//
// Returns false when the exit criterion is met.
func (p *Placer) updateAnnealingState(state *annealingState, successRat float64) bool {
	sched := p.opts.Sched

	if sched.Type == UserSched {
		state.t *= sched.AlphaT
		return state.t >= sched.ExitT
	}

	tExit := 0.005 * p.costs.cost / float64(p.nlist.NumNets())

	if sched.Type == DustySched {
		// tExit is NaN when the netlist has no nets.
		restartTemp := state.t < tExit || math.IsNaN(tExit)
		if successRat < sched.SuccessMin || restartTemp {
			if state.alpha > sched.AlphaMax {
				return false
			}
			// Take a half step back from the restart temperature.
			state.t = state.restartT / math.Sqrt(state.alpha)
			state.alpha = 1.0 - ((1.0 - state.alpha) * sched.AlphaDecay)
		} else {
			if successRat > sched.SuccessTarget {
				state.restartT = state.t
			}
			state.t *= state.alpha
		}
		state.moveLim = max(1, min(state.moveLimMax,
			int(float64(state.moveLimMax)*(sched.SuccessTarget/successRat))))
	} else { // AutoSched
		switch {
		case successRat > 0.96:
			state.alpha = 0.5
		case successRat > 0.8:
			state.alpha = 0.9
		case successRat > 0.15 || state.rlim > 1:
			state.alpha = 0.95
		default:
			state.alpha = 0.8
		}
		state.t *= state.alpha

		// The exit check runs before the range-limit update below, so the
		// final iteration leaves rlim untouched. Kept this way to preserve
		// the established behavior.
		if state.t < tExit || math.IsNaN(tExit) {
			return false
		}
	}

	p.updateRlim(&state.rlim, successRat)

	if p.opts.Algorithm == PathTimingDriven {
		// As the range limit shrinks we are fine-tuning an already good
		// placement, so the exponent climbs toward its final value and
		// optimization concentrates on the most critical connections.
		state.critExponent = (1-(state.rlim-finalRlim)*state.inverseDeltaRlim)*
			(p.opts.TDPlaceExpLast-p.opts.TDPlaceExpFirst) +
			p.opts.TDPlaceExpFirst
	}

	return true
}

// stdDev returns the standard deviation over n samples given the sum of
// squares and the mean. Double precision matters here: round-off is a real
// problem in the initial-temperature estimate for big circuits.
func stdDev(n int, sumXSquared, avX float64) float64 {
	if n <= 1 {
		return 0
	}

	sd := (sumXSquared - float64(n)*avX*avX) / float64(n-1)
	if sd > 0 {
		// Very small variances sometimes round negative.
		return math.Sqrt(sd)
	}
	return 0
}
