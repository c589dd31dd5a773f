package place

import (
	"fmt"
	"testing"

	"github.com/sarchlab/annealplace/fpga"
)

// testCircuit assembles small devices and netlists for the engine tests.
// Every tile is a capacity-1 "clb" with all pin offsets zero unless a test
// says otherwise.
type testCircuit struct {
	logical *fpga.LogicalType
	tile    *fpga.PhysicalType
	nb      *fpga.NetlistBuilder
	locs    []fpga.Loc
	macros  []fpga.Macro
}

func newTestCircuit() *testCircuit {
	lt := &fpga.LogicalType{Name: "clb", NumPins: 8}
	pt := &fpga.PhysicalType{
		Name:       "clb",
		Capacity:   1,
		PinOffsetX: make([]int, 8),
		PinOffsetY: make([]int, 8),
	}
	pt.AddCompatible(lt)

	return &testCircuit{
		logical: lt,
		tile:    pt,
		nb:      fpga.NewNetlistBuilder(),
	}
}

func (c *testCircuit) addBlock(x, y int) fpga.BlockID {
	b := c.nb.AddBlock(fmt.Sprintf("blk_%d", len(c.locs)), c.logical)
	c.locs = append(c.locs, fpga.Loc{X: x, Y: y})
	return b
}

// addNet wires the driver's pin 0 to pin 1 of every sink block.
func (c *testCircuit) addNet(driver fpga.BlockID, sinks ...fpga.BlockID) fpga.NetID {
	conns := make([]fpga.Conn, len(sinks))
	for i, s := range sinks {
		conns[i] = fpga.Conn{Block: s, Pin: 1}
	}
	return c.nb.AddNet(fmt.Sprintf("net_%d", len(conns)),
		fpga.Conn{Block: driver, Pin: 0}, conns...)
}

func (c *testCircuit) grid(width, height, tracks int) *fpga.Grid {
	return fpga.GridBuilder{}.
		WithSize(width, height).
		WithFillType(c.tile).
		WithUniformChannels(tracks).
		Build("TestDevice")
}

func (c *testCircuit) placer(
	t *testing.T,
	grid *fpga.Grid,
	opts Options,
	dm DelayModel,
	ta TimingAnalyzer,
	mg MoveGenerator,
) *Placer {
	t.Helper()

	p, err := NewPlacer(grid, c.nb.Build(), c.locs, c.macros, opts, dm, ta, mg)
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}
	return p
}

// manhattanDelayModel charges a fixed delay per unit of Manhattan distance.
type manhattanDelayModel struct {
	perUnit float64
}

func (m manhattanDelayModel) Delay(x1, y1, pin1, x2, y2, pin2 int) float64 {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	return m.perUnit * float64(dx+dy)
}

// negativeDelayModel always misbehaves.
type negativeDelayModel struct{}

func (negativeDelayModel) Delay(x1, y1, pin1, x2, y2, pin2 int) float64 {
	return -1
}

// stubTiming is a deterministic TimingAnalyzer stand-in. Criticalities are
// derived from the net and sink indices so they are stable, non-uniform and
// inside [0,1]; every STA update reports all sink pins as modified (a
// superset of the truly changed set is always allowed).
type stubTiming struct {
	nlist       *fpga.Netlist
	exponent    float64
	updates     int
	invalidated []fpga.PinID
}

func newStubTiming(nlist *fpga.Netlist) *stubTiming {
	return &stubTiming{nlist: nlist, exponent: 1}
}

func (s *stubTiming) Update() {
	s.updates++
}

func (s *stubTiming) UpdateCriticalities(exponent float64) {
	s.exponent = exponent
}

func (s *stubTiming) Criticality(net fpga.NetID, ipin int) float64 {
	return 1 / (1 + 0.25*float64(int(net)+ipin))
}

func (s *stubTiming) PinsWithModifiedCriticality() []fpga.PinID {
	var pins []fpga.PinID
	for net := fpga.NetID(0); int(net) < s.nlist.NumNets(); net++ {
		for ipin := 1; ipin < len(s.nlist.NetPins(net)); ipin++ {
			pins = append(pins, s.nlist.NetPin(net, ipin))
		}
	}
	return pins
}

func (s *stubTiming) Invalidate(pin fpga.PinID) {
	s.invalidated = append(s.invalidated, pin)
}

func (s *stubTiming) ResetInvalidation() {
	s.invalidated = s.invalidated[:0]
}

// scriptedMove relocates one block to a fixed target.
type scriptedMove struct {
	block fpga.BlockID
	to    fpga.Loc
}

// scriptedMoveGen replays a fixed move sequence, then aborts forever.
type scriptedMoveGen struct {
	script [][]scriptedMove
	next   int
}

func (g *scriptedMoveGen) Propose(p *Placer, ba *BlocksAffected, rlim float64) ProposeResult {
	if g.next >= len(g.script) {
		return MoveAbort
	}
	for _, m := range g.script[g.next] {
		ba.Record(m.block, p.BlockLoc(m.block), m.to)
	}
	g.next++
	return MoveValid
}

func (g *scriptedMoveGen) ProcessOutcome(stats MoveStats) {}
