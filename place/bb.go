package place

import (
	"log/slog"

	"github.com/sarchlab/annealplace/fpga"
)

// Expected crossing counts for nets with different numbers of pins, from
// ICCAD 94 pp. 690-695 with linear interpolation. Multiplied into the
// bounding box span to better estimate wirelength for higher fanout nets.
// Entry i is the correction factor for a net with i+1 pins.
var crossCount = [50]float64{
	1.0, 1.0, 1.0, 1.0828, 1.1536, 1.2206, 1.2823, 1.3385, 1.3991, 1.4493,
	1.4974, 1.5455, 1.5937, 1.6418, 1.6899, 1.7304, 1.7709, 1.8114, 1.8519,
	1.8924, 1.9288, 1.9652, 2.0015, 2.0379, 2.0743, 2.1061, 2.1379, 2.1698,
	2.2016, 2.2334, 2.2646, 2.2958, 2.3271, 2.3583, 2.3895, 2.4187, 2.4479,
	2.4772, 2.5064, 2.5356, 2.5610, 2.5864, 2.6117, 2.6371, 2.6625, 2.6887,
	2.7148, 2.7410, 2.7671, 2.7933,
}

// wirelengthCrossingCount returns the expected crossing count of a net with
// the given number of pins, extrapolating beyond the table.
func wirelengthCrossingCount(numPins int) float64 {
	if numPins > 50 {
		return 2.7933 + 0.02616*float64(numPins-50)
	}
	return crossCount[numPins-1]
}

// clampToChannels clips a pin coordinate into [1, dim-2]. Channels do not
// exist beyond that margin, and every channel impinging on a bounding box is
// counted as inside it, so perimeter blocks are treated as one cell in.
func clampToChannels(v, dim int) int {
	if v > dim-2 {
		v = dim - 2
	}
	if v < 1 {
		v = 1
	}
	return v
}

// bbCostMethod selects how compBBCost builds bounding boxes. bbNormal keeps
// edge counts for large nets so later moves can update them incrementally;
// bbCheck rebuilds everything with the simple routine to cross-check the
// incremental code.
type bbCostMethod int

const (
	bbNormal bbCostMethod = iota
	bbCheck
)

// getBBFromScratch finds the bounding box of a net from only the block
// location information, including the number of pins on each box edge. It
// should only be called when the stored bounding box is not valid.
func (p *Placer) getBBFromScratch(net fpga.NetID, coords, numOnEdges *bbox) {
	width, height := p.grid.Size()

	pins := p.nlist.NetPins(net)
	x, y := p.pinLoc(pins[0])
	x = clampToChannels(x, width)
	y = clampToChannels(y, height)

	xmin, xmax, ymin, ymax := x, x, y, y
	xminEdge, xmaxEdge, yminEdge, ymaxEdge := 1, 1, 1, 1

	for _, pin := range pins[1:] {
		x, y = p.pinLoc(pin)
		x = clampToChannels(x, width)
		y = clampToChannels(y, height)

		if x == xmin {
			xminEdge++
		}
		if x == xmax { // xmin may equal xmax, so no else here
			xmaxEdge++
		} else if x < xmin {
			xmin = x
			xminEdge = 1
		} else if x > xmax {
			xmax = x
			xmaxEdge = 1
		}

		if y == ymin {
			yminEdge++
		}
		if y == ymax {
			ymaxEdge++
		} else if y < ymin {
			ymin = y
			yminEdge = 1
		} else if y > ymax {
			ymax = y
			ymaxEdge = 1
		}
	}

	coords.Xmin, coords.Xmax = xmin, xmax
	coords.Ymin, coords.Ymax = ymin, ymax
	numOnEdges.Xmin, numOnEdges.Xmax = xminEdge, xmaxEdge
	numOnEdges.Ymin, numOnEdges.Ymax = yminEdge, ymaxEdge
}

// getNonUpdateableBB finds the bounding box of a net without the per-edge
// pin counts. Cheaper than getBBFromScratch, but the result cannot be
// updated incrementally later; used for small nets and for the check path.
func (p *Placer) getNonUpdateableBB(net fpga.NetID, coords *bbox) {
	width, height := p.grid.Size()

	pins := p.nlist.NetPins(net)
	x, y := p.pinLoc(pins[0])
	xmin, xmax, ymin, ymax := x, x, y, y

	for _, pin := range pins[1:] {
		x, y = p.pinLoc(pin)
		if x < xmin {
			xmin = x
		} else if x > xmax {
			xmax = x
		}
		if y < ymin {
			ymin = y
		} else if y > ymax {
			ymax = y
		}
	}

	coords.Xmin = clampToChannels(xmin, width)
	coords.Xmax = clampToChannels(xmax, width)
	coords.Ymin = clampToChannels(ymin, height)
	coords.Ymax = clampToChannels(ymax, height)
}

// updateBB incrementally updates the bounding box of a large net for one pin
// moving from (xold, yold) to (xnew, ynew), writing the result into the
// shadow buffers. The committed coordinate and edge information for the net
// must be valid before the first call of a move. When a pin leaves an edge
// it alone populated, the whole box is rebuilt from scratch and the net is
// flagged terminal for the rest of the move.
func (p *Placer) updateBB(net fpga.NetID, xold, yold, xnew, ynew int) {
	width, height := p.grid.Size()

	xnew = clampToChannels(xnew, width)
	ynew = clampToChannels(ynew, height)
	xold = clampToChannels(xold, width)
	yold = clampToChannels(yold, height)

	var currCoord, currEdge *bbox
	switch p.bbUpdatedBefore[net] {
	case gotFromScratch:
		// Already rebuilt from scratch this move; do not update again.
		return
	case notUpdatedYet:
		currCoord = &p.bbCoords[net]
		currEdge = &p.bbNumOnEdges[net]
		p.bbUpdatedBefore[net] = updatedOnce
	default:
		currCoord = &p.tsBBCoordNew[net]
		currEdge = &p.tsBBEdgeNew[net]
	}

	coordNew := &p.tsBBCoordNew[net]
	edgeNew := &p.tsBBEdgeNew[net]

	if xnew < xold { // moving left
		if xold == currCoord.Xmax {
			if currEdge.Xmax == 1 {
				p.getBBFromScratch(net, coordNew, edgeNew)
				p.bbUpdatedBefore[net] = gotFromScratch
				return
			}
			edgeNew.Xmax = currEdge.Xmax - 1
			coordNew.Xmax = currCoord.Xmax
		} else {
			coordNew.Xmax = currCoord.Xmax
			edgeNew.Xmax = currEdge.Xmax
		}

		if xnew < currCoord.Xmin { // moved past xmin
			coordNew.Xmin = xnew
			edgeNew.Xmin = 1
		} else if xnew == currCoord.Xmin { // moved onto xmin
			coordNew.Xmin = xnew
			edgeNew.Xmin = currEdge.Xmin + 1
		} else {
			coordNew.Xmin = currCoord.Xmin
			edgeNew.Xmin = currEdge.Xmin
		}
	} else if xnew > xold { // moving right
		if xold == currCoord.Xmin {
			if currEdge.Xmin == 1 {
				p.getBBFromScratch(net, coordNew, edgeNew)
				p.bbUpdatedBefore[net] = gotFromScratch
				return
			}
			edgeNew.Xmin = currEdge.Xmin - 1
			coordNew.Xmin = currCoord.Xmin
		} else {
			coordNew.Xmin = currCoord.Xmin
			edgeNew.Xmin = currEdge.Xmin
		}

		if xnew > currCoord.Xmax { // moved past xmax
			coordNew.Xmax = xnew
			edgeNew.Xmax = 1
		} else if xnew == currCoord.Xmax { // moved onto xmax
			coordNew.Xmax = xnew
			edgeNew.Xmax = currEdge.Xmax + 1
		} else {
			coordNew.Xmax = currCoord.Xmax
			edgeNew.Xmax = currEdge.Xmax
		}
	} else { // no x motion
		coordNew.Xmin, coordNew.Xmax = currCoord.Xmin, currCoord.Xmax
		edgeNew.Xmin, edgeNew.Xmax = currEdge.Xmin, currEdge.Xmax
	}

	if ynew < yold { // moving down
		if yold == currCoord.Ymax {
			if currEdge.Ymax == 1 {
				p.getBBFromScratch(net, coordNew, edgeNew)
				p.bbUpdatedBefore[net] = gotFromScratch
				return
			}
			edgeNew.Ymax = currEdge.Ymax - 1
			coordNew.Ymax = currCoord.Ymax
		} else {
			coordNew.Ymax = currCoord.Ymax
			edgeNew.Ymax = currEdge.Ymax
		}

		if ynew < currCoord.Ymin {
			coordNew.Ymin = ynew
			edgeNew.Ymin = 1
		} else if ynew == currCoord.Ymin {
			coordNew.Ymin = ynew
			edgeNew.Ymin = currEdge.Ymin + 1
		} else {
			coordNew.Ymin = currCoord.Ymin
			edgeNew.Ymin = currEdge.Ymin
		}
	} else if ynew > yold { // moving up
		if yold == currCoord.Ymin {
			if currEdge.Ymin == 1 {
				p.getBBFromScratch(net, coordNew, edgeNew)
				p.bbUpdatedBefore[net] = gotFromScratch
				return
			}
			edgeNew.Ymin = currEdge.Ymin - 1
			coordNew.Ymin = currCoord.Ymin
		} else {
			coordNew.Ymin = currCoord.Ymin
			edgeNew.Ymin = currEdge.Ymin
		}

		if ynew > currCoord.Ymax {
			coordNew.Ymax = ynew
			edgeNew.Ymax = 1
		} else if ynew == currCoord.Ymax {
			coordNew.Ymax = ynew
			edgeNew.Ymax = currEdge.Ymax + 1
		} else {
			coordNew.Ymax = currCoord.Ymax
			edgeNew.Ymax = currEdge.Ymax
		}
	} else { // no y motion
		coordNew.Ymin, coordNew.Ymax = currCoord.Ymin, currCoord.Ymax
		edgeNew.Ymin, edgeNew.Ymax = currEdge.Ymin, currEdge.Ymax
	}

	if p.bbUpdatedBefore[net] == notUpdatedYet {
		p.bbUpdatedBefore[net] = updatedOnce
	}
}

// updateNetBB refreshes the shadow bounding box of one net for one moved
// pin. Small nets are rebuilt brute force (faster than maintaining edge
// counts); large nets go through the incremental path.
func (p *Placer) updateNetBB(net fpga.NetID, mb *MovedBlock, pin fpga.PinID) {
	if p.nlist.NetSinks(net) < smallNet {
		// Brute-force recompute; block locations already hold the move.
		if p.bbUpdatedBefore[net] == notUpdatedYet {
			p.getNonUpdateableBB(net, &p.tsBBCoordNew[net])
		}
		return
	}

	loc := p.blockLocs[mb.Block]
	ox, oy := p.grid.Tile(loc.X, loc.Y).Type.PinOffset(p.nlist.PinTileIndex(pin))

	p.updateBB(net,
		mb.OldLoc.X+ox, mb.OldLoc.Y+oy,
		mb.NewLoc.X+ox, mb.NewLoc.Y+oy)
}

// getNetCost returns the wirelength cost of one net from its bounding box:
// span+1 in each direction, weighted by the crossing count and by the
// channel capacity factor covering the box.
func (p *Placer) getNetCost(net fpga.NetID, bb *bbox) float64 {
	crossing := wirelengthCrossingCount(len(p.nlist.NetPins(net)))

	ncost := float64(bb.Xmax-bb.Xmin+1) * crossing *
		p.chanXCostFac[bb.Ymax][bb.Ymin-1]
	ncost += float64(bb.Ymax-bb.Ymin+1) * crossing *
		p.chanYCostFac[bb.Xmax][bb.Xmin-1]

	return ncost
}

// netWirelength estimates the wirelength of one net from its bounding box,
// without channel capacity weighting.
func (p *Placer) netWirelength(net fpga.NetID, bb *bbox) float64 {
	crossing := wirelengthCrossingCount(len(p.nlist.NetPins(net)))

	ncost := float64(bb.Xmax-bb.Xmin+1) * crossing
	ncost += float64(bb.Ymax-bb.Ymin+1) * crossing

	return ncost
}

// compBBCost computes the total wirelength cost from scratch, loading the
// committed bounding boxes on the way. Used after initial placement and by
// the consistency checks; incremental updates cover everything in between.
func (p *Placer) compBBCost(method bbCostMethod) float64 {
	cost := 0.0
	expectedWirelength := 0.0

	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if p.nlist.NetIsIgnored(net) {
			continue
		}
		if p.nlist.NetSinks(net) >= smallNet && method == bbNormal {
			p.getBBFromScratch(net, &p.bbCoords[net], &p.bbNumOnEdges[net])
		} else {
			p.getNonUpdateableBB(net, &p.bbCoords[net])
		}

		p.netCost[net] = p.getNetCost(net, &p.bbCoords[net])
		cost += p.netCost[net]
		if method == bbCheck {
			expectedWirelength += p.netWirelength(net, &p.bbCoords[net])
		}
	}

	if method == bbCheck {
		slog.Info("BB estimate of min-dist (placement) wire length",
			"wirelength", expectedWirelength)
	}
	return cost
}

// recomputeBBCost re-totals the committed per-net costs to shed accumulated
// round-off. The bounding boxes themselves are already correct.
func (p *Placer) recomputeBBCost() float64 {
	cost := 0.0
	for net := fpga.NetID(0); int(net) < p.nlist.NumNets(); net++ {
		if !p.nlist.NetIsIgnored(net) {
			cost += p.netCost[net]
		}
	}
	return cost
}
