// Package fpga defines the commonly used data structures for FPGA devices
// and clustered netlists.
package fpga

// BlockID identifies a placeable clustered logic block.
type BlockID int

// NetID identifies a net connecting a driver pin to zero or more sinks.
type NetID int

// PinID identifies a single block pin.
type PinID int

// NoBlock marks an empty grid sub-tile slot.
const NoBlock BlockID = -1

// Loc is a legal placement location on the device grid.
type Loc struct {
	X, Y    int
	Subtile int
}

// Offset returns the location displaced by another location's coordinates.
func (l Loc) Offset(o Loc) Loc {
	return Loc{X: l.X + o.X, Y: l.Y + o.Y, Subtile: l.Subtile + o.Subtile}
}

// PinType tells whether a pin drives its net or receives from it.
type PinType int

const (
	Driver PinType = iota
	Sink
)

// Name returns the name of the pin type.
func (t PinType) Name() string {
	switch t {
	case Driver:
		return "Driver"
	case Sink:
		return "Sink"
	default:
		panic("invalid pin type")
	}
}

// LogicalType describes a class of netlist blocks (e.g. CLB, IO, DSP).
type LogicalType struct {
	Name    string
	NumPins int
}

// PhysicalType describes a class of grid tiles. A tile holds up to Capacity
// blocks, one per sub-tile slot. PinOffsetX and PinOffsetY give, per tile
// pin index, the physical offset of the pin from the tile origin.
type PhysicalType struct {
	Name       string
	Capacity   int
	PinOffsetX []int
	PinOffsetY []int

	compatible map[*LogicalType]bool
}

// AddCompatible registers a logical type as placeable on this tile type.
func (pt *PhysicalType) AddCompatible(lt *LogicalType) *PhysicalType {
	if pt.compatible == nil {
		pt.compatible = make(map[*LogicalType]bool)
	}
	pt.compatible[lt] = true
	return pt
}

// Compatible reports whether blocks of the given logical type may occupy
// this tile type.
func (pt *PhysicalType) Compatible(lt *LogicalType) bool {
	return pt.compatible[lt]
}

// SubtileCompatible reports whether a block of the given logical type may
// occupy sub-tile slot sub of this tile type.
func (pt *PhysicalType) SubtileCompatible(lt *LogicalType, sub int) bool {
	return sub >= 0 && sub < pt.Capacity && pt.compatible[lt]
}

// PinOffset returns the physical offset of tile pin index pin.
func (pt *PhysicalType) PinOffset(pin int) (x, y int) {
	if pin < 0 || pin >= len(pt.PinOffsetX) {
		return 0, 0
	}
	return pt.PinOffsetX[pin], pt.PinOffsetY[pin]
}

// Macro is a rigid group of blocks (e.g. a carry chain). Member 0 is the
// head; every member's location must equal the head's location plus its
// offset at all times.
type Macro struct {
	Members []MacroMember
}

// MacroMember is one block of a macro with its offset from the head.
type MacroMember struct {
	Block  BlockID
	Offset Loc
}
