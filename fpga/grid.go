package fpga

// Tile is one cell of the device grid.
type Tile struct {
	Type *PhysicalType
}

// A Grid is a two-dimensional heterogeneous FPGA device. Tiles can be
// retrieved using g.Tile(x, y). ChanX holds the horizontal channel widths
// per row [0..Height-1]; ChanY the vertical channel widths per column
// [0..Width-1].
type Grid struct {
	Name          string
	Width, Height int
	ChanX, ChanY  []int

	tiles [][]Tile
}

// Size returns the width and height of the device.
func (g *Grid) Size() (width, height int) {
	return g.Width, g.Height
}

// Tile returns the tile at the given coordinates.
func (g *Grid) Tile(x, y int) *Tile {
	return &g.tiles[x][y]
}

// Inside reports whether (x, y) is a valid grid coordinate.
func (g *Grid) Inside(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// GridBuilder can build device grids.
type GridBuilder struct {
	width, height int
	chanX, chanY  []int
	fill          *PhysicalType
	overrides     []tileOverride
}

type tileOverride struct {
	x, y int
	pt   *PhysicalType
}

// WithSize sets the width and height of the grid.
func (b GridBuilder) WithSize(width, height int) GridBuilder {
	b.width = width
	b.height = height
	return b
}

// WithFillType sets the tile type used for every tile not overridden later.
func (b GridBuilder) WithFillType(pt *PhysicalType) GridBuilder {
	b.fill = pt
	return b
}

// WithTileType overrides the tile type at a single coordinate.
func (b GridBuilder) WithTileType(x, y int, pt *PhysicalType) GridBuilder {
	b.overrides = append(b.overrides, tileOverride{x: x, y: y, pt: pt})
	return b
}

// WithUniformChannels sets every channel, in both directions, to the given
// track count.
func (b GridBuilder) WithUniformChannels(tracks int) GridBuilder {
	b.chanX = nil
	b.chanY = nil
	for i := 0; i < b.height; i++ {
		b.chanX = append(b.chanX, tracks)
	}
	for i := 0; i < b.width; i++ {
		b.chanY = append(b.chanY, tracks)
	}
	return b
}

// WithChannelWidths sets the per-row and per-column channel widths.
func (b GridBuilder) WithChannelWidths(chanX, chanY []int) GridBuilder {
	b.chanX = chanX
	b.chanY = chanY
	return b
}

// Build creates a grid.
func (b GridBuilder) Build(name string) *Grid {
	if b.width <= 0 || b.height <= 0 {
		panic("grid must have positive dimensions")
	}
	if b.fill == nil {
		panic("grid needs a fill tile type")
	}
	if len(b.chanX) != b.height || len(b.chanY) != b.width {
		panic("channel width lists must match grid dimensions")
	}

	g := &Grid{
		Name:   name,
		Width:  b.width,
		Height: b.height,
		ChanX:  b.chanX,
		ChanY:  b.chanY,
		tiles:  make([][]Tile, b.width),
	}
	for x := 0; x < b.width; x++ {
		g.tiles[x] = make([]Tile, b.height)
		for y := 0; y < b.height; y++ {
			g.tiles[x][y] = Tile{Type: b.fill}
		}
	}
	for _, o := range b.overrides {
		if !g.Inside(o.x, o.y) {
			panic("tile type override outside the grid")
		}
		g.tiles[o.x][o.y] = Tile{Type: o.pt}
	}

	return g
}
