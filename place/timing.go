package place

import (
	"github.com/sarchlab/annealplace/fpga"
)

// compTDConnectionDelay returns the delay of one driver-to-sink connection
// under the current block locations. Ignored nets are assumed to have zero
// delay. A negative delay from the oracle is fatal.
func (p *Placer) compTDConnectionDelay(net fpga.NetID, ipin int) (float64, error) {
	if p.nlist.NetIsIgnored(net) {
		return 0, nil
	}

	srcPin := p.nlist.NetPin(net, 0)
	sinkPin := p.nlist.NetPin(net, ipin)

	srcBlock := p.nlist.PinBlock(srcPin)
	sinkBlock := p.nlist.PinBlock(sinkPin)

	srcIpin := p.nlist.PinTileIndex(srcPin)
	sinkIpin := p.nlist.PinTileIndex(sinkPin)

	srcLoc := p.blockLocs[srcBlock]
	sinkLoc := p.blockLocs[sinkBlock]

	delay := p.delayModel.Delay(
		srcLoc.X, srcLoc.Y, srcIpin,
		sinkLoc.X, sinkLoc.Y, sinkIpin)
	if delay < 0 {
		return 0, &DelayModelError{
			Delay:    delay,
			SrcX:     srcLoc.X,
			SrcY:     srcLoc.Y,
			SrcPin:   srcIpin,
			SrcType:  p.grid.Tile(srcLoc.X, srcLoc.Y).Type.Name,
			SinkX:    sinkLoc.X,
			SinkY:    sinkLoc.Y,
			SinkPin:  sinkIpin,
			SinkType: p.grid.Tile(sinkLoc.X, sinkLoc.Y).Type.Name,
		}
	}

	return delay, nil
}

// compTDConnectionDelays recomputes every point-to-point delay, loading the
// committed delays from the initial placement.
func (p *Placer) compTDConnectionDelays() error {
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
			delay, err := p.compTDConnectionDelay(net, ipin)
			if err != nil {
				return err
			}
			p.connDelay[net][ipin] = delay
		}
	}
	return nil
}

// drivenByMovedBlock reports whether a net's driver block is part of the
// current move.
func (p *Placer) drivenByMovedBlock(net fpga.NetID, ba *BlocksAffected) bool {
	driver := p.nlist.NetDriverBlock(net)
	for i := range ba.Moved {
		if driver == ba.Moved[i].Block {
			return true
		}
	}
	return false
}

// updateTDDeltaCosts evaluates the timing-cost change contributed by one
// pin of a moved block. A moved driver re-evaluates every sink of the net;
// a moved sink re-evaluates only its own connection, and only when the
// net's driver did not also move (the driver pass already covered it —
// counting it again would corrupt the delta). Every re-evaluated sink pin
// is pushed onto ba.AffectedPins for the later commit/revert/invalidate.
func (p *Placer) updateTDDeltaCosts(
	net fpga.NetID,
	pin fpga.PinID,
	ba *BlocksAffected,
	deltaTimingCost *float64,
) error {
	if p.nlist.PinType(pin) == fpga.Driver {
		for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
			tempDelay, err := p.compTDConnectionDelay(net, ipin)
			if err != nil {
				return err
			}
			p.proposedConnDelay[net][ipin] = tempDelay

			p.proposedConnTimingCost[net][ipin] =
				p.timing.Criticality(net, ipin) * tempDelay
			*deltaTimingCost +=
				p.proposedConnTimingCost[net][ipin] - p.connTimingCost[net][ipin]

			ba.AffectedPins = append(ba.AffectedPins, p.nlist.NetPin(net, ipin))
		}
		return nil
	}

	if p.drivenByMovedBlock(net, ba) {
		return nil
	}

	ipin := p.nlist.PinNetIndex(pin)

	tempDelay, err := p.compTDConnectionDelay(net, ipin)
	if err != nil {
		return err
	}
	p.proposedConnDelay[net][ipin] = tempDelay

	p.proposedConnTimingCost[net][ipin] =
		p.timing.Criticality(net, ipin) * tempDelay
	*deltaTimingCost +=
		p.proposedConnTimingCost[net][ipin] - p.connTimingCost[net][ipin]

	ba.AffectedPins = append(ba.AffectedPins, pin)

	return nil
}

// setConnTimingCost rewrites one committed connection timing cost and marks
// the net's cached sum stale.
func (p *Placer) setConnTimingCost(net fpga.NetID, ipin int, cost float64) {
	p.connTimingCost[net][ipin] = cost
	p.netTCostDirty[net] = true
}

// commitTDCost copies the proposed delays and timing costs of every
// connection touched by an accepted move into the committed state, and
// resets the shadow entries.
func (p *Placer) commitTDCost(ba *BlocksAffected) {
	for i := range ba.Moved {
		bnum := ba.Moved[i].Block
		for _, pin := range p.nlist.BlockPins(bnum) {
			net := p.nlist.PinNet(pin)

			if p.nlist.NetIsIgnored(net) {
				continue
			}

			if p.nlist.PinType(pin) == fpga.Driver {
				// The driver moved; every connection on the net changed.
				for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
					p.commitConnection(net, ipin)
				}
			} else if !p.drivenByMovedBlock(net, ba) {
				// Guarded so a sink whose driver also moved is not
				// committed twice.
				p.commitConnection(net, p.nlist.PinNetIndex(pin))
			}
		}
	}
}

func (p *Placer) commitConnection(net fpga.NetID, ipin int) {
	p.connDelay[net][ipin] = p.proposedConnDelay[net][ipin]
	p.proposedConnDelay[net][ipin] = invalidDelay
	p.setConnTimingCost(net, ipin, p.proposedConnTimingCost[net][ipin])
	p.proposedConnTimingCost[net][ipin] = invalidDelay
}

// revertTDCost resets the shadow delay and timing-cost entries of a
// rejected move. Committed state is untouched.
func (p *Placer) revertTDCost(ba *BlocksAffected) {
	for _, pin := range ba.AffectedPins {
		net := p.nlist.PinNet(pin)
		ipin := p.nlist.PinNetIndex(pin)
		p.proposedConnDelay[net][ipin] = invalidDelay
		p.proposedConnTimingCost[net][ipin] = invalidDelay
	}
}

// invalidateAffectedConnectionDelays marks the timing-graph edges of every
// connection whose delay actually changed. Connections whose proposed delay
// equals the committed delay (e.g. a sink moved to a position with the same
// dx/dy from its driver) are skipped to minimize the next incremental STA.
// Must run before commitTDCost, which wipes the proposed values it compares.
func (p *Placer) invalidateAffectedConnectionDelays(ba *BlocksAffected) {
	for _, pin := range ba.AffectedPins {
		net := p.nlist.PinNet(pin)
		ipin := p.nlist.PinNetIndex(pin)

		if p.proposedConnDelay[net][ipin] != p.connDelay[net][ipin] {
			p.timing.Invalidate(pin)
		}
	}
}

// sumTDNetCost returns the timing cost of one net by summing its committed
// connection costs in sink order.
func (p *Placer) sumTDNetCost(net fpga.NetID) float64 {
	netTDCost := 0.0
	for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
		netTDCost += p.connTimingCost[net][ipin]
	}
	return netTDCost
}

// sumTDCosts returns the total timing cost by summing the cached per-net
// sums in net order, refreshing stale sums on the way. Because every sum —
// cached or refreshed — is produced by the same connection-then-net
// left-to-right reduction compTDCosts uses, the incremental total is
// bit-identical to a from-scratch recomputation, not merely within
// tolerance.
func (p *Placer) sumTDCosts() float64 {
	tdCost := 0.0
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if p.nlist.NetIsIgnored(net) {
			continue
		}
		if p.netTCostDirty[net] {
			p.netTimingCost[net] = p.sumTDNetCost(net)
			p.netTCostDirty[net] = false
		}
		tdCost += p.netTimingCost[net]
	}
	return tdCost
}

// updateTDCosts incrementally refreshes the timing cost after an STA
// update. Only connections whose criticality changed are rewritten; the
// grand total is then re-derived through the hierarchical per-net sums.
func (p *Placer) updateTDCosts(timingCost *float64) {
	for _, pin := range p.timing.PinsWithModifiedCriticality() {
		if p.nlist.PinType(pin) == fpga.Driver {
			continue
		}

		net := p.nlist.PinNet(pin)
		if p.nlist.NetIsIgnored(net) {
			continue
		}

		ipin := p.nlist.PinNetIndex(pin)
		p.setConnTimingCost(net, ipin,
			p.timing.Criticality(net, ipin)*p.connDelay[net][ipin])
	}

	*timingCost = p.sumTDCosts()
}

// compTDCosts recomputes the timing cost of every connection, net and the
// grand total from scratch, from the committed delays and the current
// criticalities. The hierarchical connection -> net -> total order must
// match sumTDCosts exactly; see there.
func (p *Placer) compTDCosts(timingCost *float64) {
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if p.nlist.NetIsIgnored(net) {
			continue
		}

		for ipin := 1; ipin < len(p.nlist.NetPins(net)); ipin++ {
			p.connTimingCost[net][ipin] =
				p.timing.Criticality(net, ipin) * p.connDelay[net][ipin]
		}

		p.netTimingCost[net] = p.sumTDNetCost(net)
		p.netTCostDirty[net] = false
	}

	total := 0.0
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if p.nlist.NetIsIgnored(net) {
			continue
		}
		total += p.netTimingCost[net]
	}
	*timingCost = total
}

// countConnections counts the non-ignored point-to-point connections.
func (p *Placer) countConnections() int {
	count := 0
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if p.nlist.NetIsIgnored(net) {
			continue
		}
		count += p.nlist.NetSinks(net)
	}
	return count
}
