package place

import (
	"fmt"
	"math"
)

// Cut off for incremental bounding box updates. Nets with at least this
// many sinks maintain per-edge pin counts so their bounding boxes can be
// updated incrementally.
const smallNet = 4

// Error tolerance for the floating point cost variables. 0.01 means the
// incrementally maintained totals may drift at most 1% from a from-scratch
// recomputation before the placer aborts.
const errorTol = 0.01

// The final rlim (range limit) is 1, the smallest value that can still make
// progress, since an rlim of 0 wouldn't allow any swaps.
const finalRlim = 1

// Maximum number of swap attempts before the once-in-a-while from-scratch
// cost recomputation and round-off check.
const maxMovesBeforeRecompute = 500000

// Stops the inverse timing cost from going to infinity with very lax timing
// constraints, which avoids multiplying by a gigantic inverse cost when
// auto-normalizing.
const maxInvTimingCost = 1.e9

// invalidDelay marks shadow delay and timing-cost entries as unset between
// moves.
var invalidDelay = math.NaN()

// Algorithm selects the cost function the annealer optimizes.
type Algorithm int

const (
	// BoundingBox optimizes estimated wirelength only.
	BoundingBox Algorithm = iota
	// PathTimingDriven blends wirelength with connection timing costs.
	PathTimingDriven
)

// Name returns the name of the algorithm.
func (a Algorithm) Name() string {
	switch a {
	case BoundingBox:
		return "BoundingBox"
	case PathTimingDriven:
		return "PathTimingDriven"
	default:
		panic("invalid algorithm")
	}
}

// EffortScaling selects how the moves-per-temperature budget scales with
// design and device size.
type EffortScaling int

const (
	// Circuit scales the move limit proportional to numBlocks^(4/3).
	Circuit EffortScaling = iota
	// DeviceCircuit scales the move limit proportional to
	// deviceSize^(2/3) * numBlocks^(2/3), performing more moves on lightly
	// utilized devices where the search space is larger.
	DeviceCircuit
)

// ScheduleType selects the annealing schedule.
type ScheduleType int

const (
	// UserSched is a manual fixed schedule with fixed alpha and exit
	// temperature.
	UserSched ScheduleType = iota
	// AutoSched varies alpha based on the move success ratio.
	AutoSched
	// DustySched jumps backward and slows down in response to the success
	// ratio.
	DustySched
)

// AnnealingSched bundles the schedule type with its sub-parameters. Only
// the fields relevant to the selected type are consulted.
type AnnealingSched struct {
	Type ScheduleType

	// UserSched parameters.
	InitT  float64
	ExitT  float64
	AlphaT float64

	// Moves-per-temperature scaling factor (all schedules).
	InnerNum float64

	// DustySched parameters.
	AlphaMin      float64
	AlphaMax      float64
	AlphaDecay    float64
	SuccessMin    float64
	SuccessTarget float64
}

// Options configures the placement core.
type Options struct {
	Algorithm      Algorithm
	TimingTradeoff float64 // lambda in [0,1]; blends bb vs timing deltas
	PlaceCostExp   float64 // channel-capacity exponent
	EffortScaling  EffortScaling
	Sched          AnnealingSched

	// RlimEscapeFraction is the probability that a move ignores the range
	// limit, to help escape local minima.
	RlimEscapeFraction float64

	// Criticality sharpening exponent range for timing-driven placement.
	TDPlaceExpFirst float64
	TDPlaceExpLast  float64

	// RecomputeCritIter is the outer-loop STA cadence.
	RecomputeCritIter int
	// InnerLoopRecomputeDivider and QuenchRecomputeDivider set the
	// mid-temperature STA cadence; 0 disables.
	InnerLoopRecomputeDivider int
	QuenchRecomputeDivider    int

	// PlacementSavesPerTemperature enables periodic placement checkpoints
	// when >= 1.
	PlacementSavesPerTemperature int

	// MoveStatsFile streams one CSV row per proposed move when non-empty.
	MoveStatsFile string

	Seed int64
}

// DefaultOptions returns a bounding-box configuration with the automatic
// schedule.
func DefaultOptions() Options {
	return Options{
		Algorithm:      BoundingBox,
		TimingTradeoff: 0.5,
		PlaceCostExp:   1.0,
		EffortScaling:  Circuit,
		Sched: AnnealingSched{
			Type:          AutoSched,
			InitT:         100.0,
			ExitT:         0.01,
			AlphaT:        0.8,
			InnerNum:      1.0,
			AlphaMin:      0.2,
			AlphaMax:      0.9,
			AlphaDecay:    0.7,
			SuccessMin:    0.1,
			SuccessTarget: 0.44,
		},
		RlimEscapeFraction: 0.0,
		TDPlaceExpFirst:    1.0,
		TDPlaceExpLast:     8.0,
		RecomputeCritIter:  1,
	}
}

func (o Options) validate() error {
	switch o.Algorithm {
	case BoundingBox, PathTimingDriven:
	default:
		return fmt.Errorf("place: unrecognized algorithm %d", o.Algorithm)
	}

	switch o.EffortScaling {
	case Circuit, DeviceCircuit:
	default:
		return fmt.Errorf("place: unrecognized placer effort scaling %d", o.EffortScaling)
	}

	switch o.Sched.Type {
	case UserSched, AutoSched, DustySched:
	default:
		return fmt.Errorf("place: unrecognized annealing schedule %d", o.Sched.Type)
	}

	if o.TimingTradeoff < 0 || o.TimingTradeoff > 1 {
		return fmt.Errorf("place: timing tradeoff %g outside [0,1]", o.TimingTradeoff)
	}
	if o.RlimEscapeFraction < 0 || o.RlimEscapeFraction > 1 {
		return fmt.Errorf("place: rlim escape fraction %g outside [0,1]", o.RlimEscapeFraction)
	}
	if o.PlaceCostExp < 0 {
		return fmt.Errorf("place: negative place cost exponent %g", o.PlaceCostExp)
	}
	if o.Sched.InnerNum <= 0 {
		return fmt.Errorf("place: inner_num must be positive, got %g", o.Sched.InnerNum)
	}
	if o.Algorithm == PathTimingDriven && o.RecomputeCritIter < 1 {
		return fmt.Errorf("place: recompute_crit_iter must be at least 1, got %d",
			o.RecomputeCritIter)
	}

	return nil
}
