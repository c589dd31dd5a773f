package place

import (
	"log/slog"
	"math"
)

// allocChanCostFactors precomputes the chanXCostFac and chanYCostFac
// lower-triangular matrices with the inverse of the average number of tracks
// per channel between rows (or columns) [low] and [high], raised to the
// place cost exponent. The wirelength cost divides net spans by the average
// channel capacity in each direction, so storing the inverse turns that into
// a multiplication; exponents other than one penalize narrow channels more
// heavily. Access them as chanXCostFac[high][low] with high >= low.
func (p *Placer) allocChanCostFactors(placeCostExp float64) {
	width, height := p.grid.Size()

	p.chanXCostFac = make([][]float64, height)
	for i := 0; i < height; i++ {
		p.chanXCostFac[i] = make([]float64, i+1)
	}
	p.chanYCostFac = make([][]float64, width)
	for i := 0; i < width; i++ {
		p.chanYCostFac[i] = make([]float64, i+1)
	}

	// First accumulate the number of tracks between channel high and
	// channel low, inclusive, with a running sum.
	p.chanXCostFac[0][0] = float64(p.grid.ChanX[0])
	for high := 1; high < height; high++ {
		p.chanXCostFac[high][high] = float64(p.grid.ChanX[high])
		for low := 0; low < high; low++ {
			p.chanXCostFac[high][low] =
				p.chanXCostFac[high-1][low] + float64(p.grid.ChanX[high])
		}
	}

	for high := 0; high < height; high++ {
		for low := 0; low <= high; low++ {
			// A zero-width span would make the normalization factor
			// infinite; substitute a single-track capacity.
			if p.chanXCostFac[high][low] == 0 {
				slog.Warn("CHANX place cost fac is 0", "high", high, "low", low)
				p.chanXCostFac[high][low] = 1
			}
			p.chanXCostFac[high][low] =
				float64(high-low+1) / p.chanXCostFac[high][low]
			p.chanXCostFac[high][low] =
				math.Pow(p.chanXCostFac[high][low], placeCostExp)
		}
	}

	// Same for the y-directed channels.
	p.chanYCostFac[0][0] = float64(p.grid.ChanY[0])
	for high := 1; high < width; high++ {
		p.chanYCostFac[high][high] = float64(p.grid.ChanY[high])
		for low := 0; low < high; low++ {
			p.chanYCostFac[high][low] =
				p.chanYCostFac[high-1][low] + float64(p.grid.ChanY[high])
		}
	}

	for high := 0; high < width; high++ {
		for low := 0; low <= high; low++ {
			if p.chanYCostFac[high][low] == 0 {
				slog.Warn("CHANY place cost fac is 0", "high", high, "low", low)
				p.chanYCostFac[high][low] = 1
			}
			p.chanYCostFac[high][low] =
				float64(high-low+1) / p.chanYCostFac[high][low]
			p.chanYCostFac[high][low] =
				math.Pow(p.chanYCostFac[high][low], placeCostExp)
		}
	}
}
