package place

import (
	"errors"
	"math"
	"testing"

	"github.com/sarchlab/annealplace/fpga"
)

func timingOpts() Options {
	opts := DefaultOptions()
	opts.Algorithm = PathTimingDriven
	return opts
}

// buildTimingFixture wires a small timing-driven circuit: two nets sharing
// blocks so driver and sink roles interact.
func buildTimingFixture(t *testing.T) (*Placer, *stubTiming, []fpga.BlockID) {
	c := newTestCircuit()
	a := c.addBlock(1, 1)
	b := c.addBlock(2, 3)
	d := c.addBlock(4, 2)
	e := c.addBlock(3, 4)
	c.addNet(a, b, d)    // net 0: a -> {b, d}
	c.addNet(b, d, e, a) // net 1: b -> {d, e, a}

	nlist := c.nb.Build()
	ta := newStubTiming(nlist)

	grid := fpga.GridBuilder{}.
		WithSize(6, 6).
		WithFillType(c.tile).
		WithUniformChannels(2).
		Build("TestDevice")

	p, err := NewPlacer(grid, nlist, c.locs, nil, timingOpts(),
		manhattanDelayModel{perUnit: 0.5}, ta, nil)
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}

	p.costs.bbCost = p.compBBCost(bbNormal)
	if err := p.compTDConnectionDelays(); err != nil {
		t.Fatalf("compTDConnectionDelays: %v", err)
	}
	p.recomputeCriticalities(1.0)

	return p, ta, []fpga.BlockID{a, b, d, e}
}

func TestCompTDConnectionDelay(t *testing.T) {
	p, _, _ := buildTimingFixture(t)

	// a(1,1) -> b(2,3): Manhattan distance 3 at 0.5 per unit.
	delay, err := p.compTDConnectionDelay(0, 1)
	if err != nil {
		t.Fatalf("compTDConnectionDelay: %v", err)
	}
	if delay != 1.5 {
		t.Errorf("delay = %g, want 1.5", delay)
	}
}

func TestNegativeDelayIsFatal(t *testing.T) {
	c := newTestCircuit()
	a := c.addBlock(1, 1)
	b := c.addBlock(2, 2)
	c.addNet(a, b)
	nlist := c.nb.Build()

	p, err := NewPlacer(c.grid(4, 4, 1), nlist, c.locs, nil, timingOpts(),
		negativeDelayModel{}, newStubTiming(nlist), nil)
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}

	err = p.compTDConnectionDelays()
	var dmErr *DelayModelError
	if !errors.As(err, &dmErr) {
		t.Fatalf("err = %v, want DelayModelError", err)
	}
	if dmErr.Delay != -1 {
		t.Errorf("reported delay = %g, want -1", dmErr.Delay)
	}
}

func TestConnectionTimingCostInvariant(t *testing.T) {
	p, ta, _ := buildTimingFixture(t)

	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
			want := ta.Criticality(net, ipin) * p.connDelay[net][ipin]
			if p.connTimingCost[net][ipin] != want {
				t.Errorf("connTimingCost[%d][%d] = %g, want criticality*delay = %g",
					net, ipin, p.connTimingCost[net][ipin], want)
			}
		}
	}
}

// A moved driver must re-evaluate every sink; a moved sink only itself; a
// sink whose driver also moved must not be double counted.
func TestUpdateTDDeltaCostsDriverAndSink(t *testing.T) {
	p, _, blks := buildTimingFixture(t)
	a, b := blks[0], blks[1]

	// Move a and b together: a drives net 0 (pins to b and d), b drives
	// net 1 (pins to d, e, a). a's sink pin on net 1 must be skipped.
	ba := &p.blocksAffected
	ba.Record(a, p.BlockLoc(a), fpga.Loc{X: 2, Y: 1})
	ba.Record(b, p.BlockLoc(b), fpga.Loc{X: 3, Y: 3})
	p.applyMoveBlocks(ba)

	deltaT := 0.0
	for i := range ba.Moved {
		for _, pin := range p.nlist.BlockPins(ba.Moved[i].Block) {
			err := p.updateTDDeltaCosts(p.nlist.PinNet(pin), pin, ba, &deltaT)
			if err != nil {
				t.Fatalf("updateTDDeltaCosts: %v", err)
			}
		}
	}

	// Net 0 has 2 sinks, net 1 has 3; every connection of both nets was
	// re-evaluated exactly once.
	if len(ba.AffectedPins) != 5 {
		t.Fatalf("affected pins = %d, want 5", len(ba.AffectedPins))
	}

	// The delta must equal the sum over affected connections of the
	// proposed minus committed timing cost.
	want := 0.0
	for _, pin := range ba.AffectedPins {
		net := p.nlist.PinNet(pin)
		ipin := p.nlist.PinNetIndex(pin)
		want += p.proposedConnTimingCost[net][ipin] - p.connTimingCost[net][ipin]
	}
	if math.Abs(deltaT-want) > 1e-12 {
		t.Errorf("delta = %g, want %g", deltaT, want)
	}

	p.revertMoveBlocks(ba)
	p.revertTDCost(ba)
	ba.Clear()
}

func TestRevertTDCostClearsShadows(t *testing.T) {
	p, _, blks := buildTimingFixture(t)
	a := blks[0]

	ba := &p.blocksAffected
	ba.Record(a, p.BlockLoc(a), fpga.Loc{X: 3, Y: 1})
	p.applyMoveBlocks(ba)

	deltaT := 0.0
	for _, pin := range p.nlist.BlockPins(a) {
		err := p.updateTDDeltaCosts(p.nlist.PinNet(pin), pin, ba, &deltaT)
		if err != nil {
			t.Fatalf("updateTDDeltaCosts: %v", err)
		}
	}

	p.revertMoveBlocks(ba)
	p.revertTDCost(ba)

	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
			if !math.IsNaN(p.proposedConnDelay[net][ipin]) {
				t.Errorf("proposedConnDelay[%d][%d] not invalidated", net, ipin)
			}
			if !math.IsNaN(p.proposedConnTimingCost[net][ipin]) {
				t.Errorf("proposedConnTimingCost[%d][%d] not invalidated", net, ipin)
			}
		}
	}
	ba.Clear()
}

func TestInvalidateSkipsUnchangedDelays(t *testing.T) {
	p, ta, blks := buildTimingFixture(t)
	a := blks[0]

	// Slide a from (1,1) to (0,2): every Manhattan distance to its
	// connected endpoints is preserved, so no delay changes.
	ba := &p.blocksAffected
	ba.Record(a, p.BlockLoc(a), fpga.Loc{X: 0, Y: 2})
	p.applyMoveBlocks(ba)

	deltaT := 0.0
	for _, pin := range p.nlist.BlockPins(a) {
		err := p.updateTDDeltaCosts(p.nlist.PinNet(pin), pin, ba, &deltaT)
		if err != nil {
			t.Fatalf("updateTDDeltaCosts: %v", err)
		}
	}

	ta.invalidated = nil
	p.invalidateAffectedConnectionDelays(ba)

	if len(ta.invalidated) != 0 {
		t.Errorf("%d connections invalidated, want 0 (delays unchanged)",
			len(ta.invalidated))
	}

	for _, pin := range ba.AffectedPins {
		net := p.nlist.PinNet(pin)
		ipin := p.nlist.PinNetIndex(pin)
		changed := p.proposedConnDelay[net][ipin] != p.connDelay[net][ipin]

		found := false
		for _, inv := range ta.invalidated {
			if inv == pin {
				found = true
			}
		}
		if changed != found {
			t.Errorf("pin %d: delay changed %v but invalidated %v",
				pin, changed, found)
		}
	}

	p.revertMoveBlocks(ba)
	p.revertTDCost(ba)
	ba.Clear()
}

// After any move sequence, an incremental timing-cost update must match the
// from-scratch recomputation bit for bit, not merely within tolerance.
func TestIncrementalVsScratchTimingParity(t *testing.T) {
	c := newTestCircuit()
	var blks []fpga.BlockID
	for i := 0; i < 12; i++ {
		blks = append(blks, c.addBlock(1+i%4, 1+i/4))
	}
	for i := 0; i < 10; i++ {
		d := blks[i%len(blks)]
		s1 := blks[(i*3+1)%len(blks)]
		s2 := blks[(i*5+2)%len(blks)]
		s3 := blks[(i*7+5)%len(blks)]
		c.addNet(d, s1, s2, s3)
	}

	nlist := c.nb.Build()
	ta := newStubTiming(nlist)

	opts := timingOpts()
	opts.Seed = 7

	grid := fpga.GridBuilder{}.
		WithSize(8, 8).
		WithFillType(c.tile).
		WithUniformChannels(3).
		Build("TestDevice")

	p, err := NewPlacer(grid, nlist, c.locs, nil, opts,
		manhattanDelayModel{perUnit: 0.25}, ta, nil)
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}

	p.costs.bbCost = p.compBBCost(bbNormal)
	if err := p.compTDConnectionDelays(); err != nil {
		t.Fatalf("compTDConnectionDelays: %v", err)
	}
	p.recomputeCriticalities(1.0)
	p.prevInv.bbCost = 1 / p.costs.bbCost
	p.prevInv.timingCost = math.Min(1/p.costs.timingCost, maxInvTimingCost)

	for round := 0; round < 20; round++ {
		for m := 0; m < 100; m++ {
			if _, err := p.trySwap(0.8, 4); err != nil {
				t.Fatalf("trySwap: %v", err)
			}
		}

		ta.Update()
		ta.UpdateCriticalities(1.0 + 0.1*float64(round))

		incremental := 0.0
		p.updateTDCosts(&incremental)

		scratch := 0.0
		p.compTDCosts(&scratch)

		if incremental != scratch {
			t.Fatalf("round %d: incremental %v != scratch %v (diff %g)",
				round, incremental, scratch, incremental-scratch)
		}
	}
}

func TestCountConnections(t *testing.T) {
	c := newTestCircuit()
	a := c.addBlock(1, 1)
	b := c.addBlock(2, 2)
	d := c.addBlock(3, 3)
	c.addNet(a, b, d)
	clk := c.addNet(d, a, b)
	c.nb.SetIgnored(clk)

	p := c.placer(t, c.grid(6, 6, 1), DefaultOptions(), nil, nil, nil)

	if got := p.countConnections(); got != 2 {
		t.Errorf("countConnections = %d, want 2 (ignored nets excluded)", got)
	}
}
