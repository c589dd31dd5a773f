package main

import (
	"fmt"
	"math/rand"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/annealplace/fpga"
	"github.com/sarchlab/annealplace/place"
)

var width = 12
var height = 12

// buildDevice creates a device with a CLB core and an IO ring, unit-free
// uniform channels.
func buildDevice(clb, io *fpga.PhysicalType) *fpga.Grid {
	b := fpga.GridBuilder{}.
		WithSize(width, height).
		WithFillType(clb)
	for x := 0; x < width; x++ {
		b = b.WithTileType(x, 0, io).WithTileType(x, height-1, io)
	}
	for y := 1; y < height-1; y++ {
		b = b.WithTileType(0, y, io).WithTileType(width-1, y, io)
	}
	return b.WithUniformChannels(8).Build("Device")
}

func main() {
	clbLogical := &fpga.LogicalType{Name: "clb", NumPins: 4}
	ioLogical := &fpga.LogicalType{Name: "io", NumPins: 1}

	clbTile := &fpga.PhysicalType{
		Name:       "clb",
		Capacity:   1,
		PinOffsetX: []int{0, 0, 0, 0},
		PinOffsetY: []int{0, 0, 0, 0},
	}
	clbTile.AddCompatible(clbLogical)

	ioTile := &fpga.PhysicalType{
		Name:       "io",
		Capacity:   2,
		PinOffsetX: []int{0},
		PinOffsetY: []int{0},
	}
	ioTile.AddCompatible(ioLogical)

	grid := buildDevice(clbTile, ioTile)

	rng := rand.New(rand.NewSource(42))

	// A synthetic circuit: CLBs in the core, IOs on the ring, random
	// connectivity.
	nb := fpga.NewNetlistBuilder()

	var clbs, ios []fpga.BlockID
	var initial []fpga.Loc

	numCLBs := 60
	for i := 0; i < numCLBs; i++ {
		clbs = append(clbs, nb.AddBlock(fmt.Sprintf("clb_%d", i), clbLogical))
	}
	numIOs := 16
	for i := 0; i < numIOs; i++ {
		ios = append(ios, nb.AddBlock(fmt.Sprintf("io_%d", i), ioLogical))
	}

	// Initial placement: CLBs packed row-major into the core, IOs spread
	// along the bottom edge.
	idx := 0
	for y := 1; y < height-1 && idx < numCLBs; y++ {
		for x := 1; x < width-1 && idx < numCLBs; x++ {
			initial = append(initial, fpga.Loc{X: x, Y: y})
			idx++
		}
	}
	for i := 0; i < numIOs; i++ {
		initial = append(initial, fpga.Loc{X: 1 + i%(width-2), Y: 0, Subtile: i / (width - 2)})
	}

	for i := 0; i < 90; i++ {
		driver := clbs[rng.Intn(len(clbs))]
		numSinks := 1 + rng.Intn(4)
		var sinks []fpga.Conn
		for s := 0; s < numSinks; s++ {
			sinks = append(sinks, fpga.Conn{Block: clbs[rng.Intn(len(clbs))], Pin: 1 + rng.Intn(3)})
		}
		nb.AddNet(fmt.Sprintf("net_%d", i), fpga.Conn{Block: driver, Pin: 0}, sinks...)
	}
	for i, io := range ios {
		nb.AddNet(fmt.Sprintf("ionet_%d", i),
			fpga.Conn{Block: io, Pin: 0},
			fpga.Conn{Block: clbs[rng.Intn(len(clbs))], Pin: 2})
	}

	nlist := nb.Build()

	opts := place.DefaultOptions()
	opts.Seed = 1

	placer, err := place.NewPlacer(grid, nlist, initial, nil, opts, nil, nil, nil)
	if err != nil {
		panic(err)
	}

	result, err := placer.Place()
	if err != nil {
		panic(err)
	}

	fmt.Printf("final bb cost: %g after %d temperatures, %d moves\n",
		result.BBCost, result.NumTemps, result.TotalIter)

	atexit.Exit(0)
}
