package place

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/annealplace/fpga"
)

var _ = Describe("TrySwap", func() {
	var (
		mockCtrl *gomock.Controller
		mockGen  *MockMoveGenerator
		placer   *Placer
		a, b     fpga.BlockID
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockGen = NewMockMoveGenerator(mockCtrl)

		c := newTestCircuit()
		a = c.addBlock(1, 1)
		b = c.addBlock(2, 2)
		c.addNet(a, b)

		var err error
		placer, err = NewPlacer(
			c.grid(5, 5, 1), c.nb.Build(), c.locs, nil,
			DefaultOptions(), nil, nil, mockGen)
		Expect(err).ToNot(HaveOccurred())

		placer.costs.bbCost = placer.compBBCost(bbNormal)
		placer.costs.cost = placer.costs.bbCost
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should commit an accepted downhill move", func() {
		// Pulling b next to a shrinks the net's bounding box.
		mockGen.EXPECT().
			Propose(placer, gomock.Any(), 3.0).
			DoAndReturn(func(p *Placer, ba *BlocksAffected, rlim float64) ProposeResult {
				ba.Record(b, p.BlockLoc(b), fpga.Loc{X: 1, Y: 2})
				return MoveValid
			})
		mockGen.EXPECT().
			ProcessOutcome(gomock.Any()).
			Do(func(stats MoveStats) {
				Expect(stats.Outcome).To(Equal(Accepted))
				Expect(stats.DeltaBBCostAbs).To(BeNumerically("<", 0))
			})

		result, err := placer.trySwap(0, 3)

		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(Accepted))
		Expect(placer.BlockLoc(b)).To(Equal(fpga.Loc{X: 1, Y: 2}))
		Expect(placer.GridBlock(1, 2, 0)).To(Equal(b))
		Expect(placer.GridBlock(2, 2, 0)).To(Equal(fpga.NoBlock))
		Expect(placer.costs.bbCost).To(BeNumerically("<", 4.0))
	})

	It("should revert a rejected uphill move at zero temperature", func() {
		// Stretching the net to (3,3) grows the bounding box.
		mockGen.EXPECT().
			Propose(placer, gomock.Any(), 3.0).
			DoAndReturn(func(p *Placer, ba *BlocksAffected, rlim float64) ProposeResult {
				ba.Record(b, p.BlockLoc(b), fpga.Loc{X: 3, Y: 3})
				return MoveValid
			})
		mockGen.EXPECT().
			ProcessOutcome(gomock.Any()).
			Do(func(stats MoveStats) {
				Expect(stats.Outcome).To(Equal(Rejected))
			})

		before := placer.BlockLoc(b)
		costBefore := placer.costs.bbCost

		result, err := placer.trySwap(0, 3)

		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(Rejected))
		Expect(placer.BlockLoc(b)).To(Equal(before))
		Expect(placer.costs.bbCost).To(Equal(costBefore))
		Expect(placer.GridBlock(3, 3, 0)).To(Equal(fpga.NoBlock))
	})

	It("should count an aborted proposal without touching state", func() {
		mockGen.EXPECT().
			Propose(placer, gomock.Any(), 3.0).
			Return(MoveAbort)
		mockGen.EXPECT().
			ProcessOutcome(gomock.Any()).
			Do(func(stats MoveStats) {
				Expect(stats.Outcome).To(Equal(Aborted))
			})

		before := placer.BlockLoc(a)

		result, err := placer.trySwap(1, 3)

		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(Aborted))
		Expect(placer.BlockLoc(a)).To(Equal(before))
		Expect(placer.blocksAffected.Moved).To(BeEmpty())
	})

	It("should hand the escape-hatch range limit to the generator", func() {
		opts := DefaultOptions()
		opts.RlimEscapeFraction = 1.0 // every move escapes

		c := newTestCircuit()
		c.addBlock(1, 1)
		var err error
		placer, err = NewPlacer(
			c.grid(4, 4, 1), c.nb.Build(), c.locs, nil,
			opts, nil, nil, mockGen)
		Expect(err).ToNot(HaveOccurred())
		placer.costs.bbCost = placer.compBBCost(bbNormal)

		mockGen.EXPECT().
			Propose(placer, gomock.Any(), gomock.Any()).
			DoAndReturn(func(p *Placer, ba *BlocksAffected, rlim float64) ProposeResult {
				Expect(rlim).To(BeNumerically(">", 1e30))
				return MoveAbort
			})
		mockGen.EXPECT().ProcessOutcome(gomock.Any())

		_, err = placer.trySwap(1, 2)
		Expect(err).ToNot(HaveOccurred())
	})
})
