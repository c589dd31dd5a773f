package fpga

import "fmt"

// Netlist is the clustered, pre-packed circuit the placer operates on. All
// adjacency is stored as dense slices indexed by BlockID, NetID and PinID so
// that every query in the annealing hot loop is O(1). A netlist is read-only
// once built.
type Netlist struct {
	blockNames []string
	blockTypes []*LogicalType
	blockPins  [][]PinID

	netNames   []string
	netPins    [][]PinID // index 0 is the driver
	netIgnored []bool

	pinNet     []NetID
	pinBlock   []BlockID
	pinNetIdx  []int
	pinType    []PinType
	pinTileIdx []int // pin index within the block's tile type
}

// NumBlocks returns the number of blocks in the netlist.
func (n *Netlist) NumBlocks() int { return len(n.blockNames) }

// NumNets returns the number of nets in the netlist.
func (n *Netlist) NumNets() int { return len(n.netNames) }

// NumPins returns the number of pins in the netlist.
func (n *Netlist) NumPins() int { return len(n.pinNet) }

// BlockName returns the name of a block.
func (n *Netlist) BlockName(b BlockID) string { return n.blockNames[b] }

// BlockType returns the logical type of a block.
func (n *Netlist) BlockType(b BlockID) *LogicalType { return n.blockTypes[b] }

// BlockPins returns all pins of a block.
func (n *Netlist) BlockPins(b BlockID) []PinID { return n.blockPins[b] }

// NetName returns the name of a net.
func (n *Netlist) NetName(id NetID) string { return n.netNames[id] }

// NetPins returns all pins of a net; index 0 is the driver.
func (n *Netlist) NetPins(id NetID) []PinID { return n.netPins[id] }

// NetSinks returns the number of sink pins on a net.
func (n *Netlist) NetSinks(id NetID) int { return len(n.netPins[id]) - 1 }

// NetPin returns the ipin-th pin of a net.
func (n *Netlist) NetPin(id NetID, ipin int) PinID { return n.netPins[id][ipin] }

// NetDriverBlock returns the block driving a net.
func (n *Netlist) NetDriverBlock(id NetID) BlockID {
	return n.pinBlock[n.netPins[id][0]]
}

// NetIsIgnored reports whether a net is excluded from cost computation
// (global signals).
func (n *Netlist) NetIsIgnored(id NetID) bool { return n.netIgnored[id] }

// PinNet returns the net a pin belongs to.
func (n *Netlist) PinNet(p PinID) NetID { return n.pinNet[p] }

// PinBlock returns the block a pin belongs to.
func (n *Netlist) PinBlock(p PinID) BlockID { return n.pinBlock[p] }

// PinNetIndex returns the pin's index on its net (0 for the driver).
func (n *Netlist) PinNetIndex(p PinID) int { return n.pinNetIdx[p] }

// PinType reports whether a pin is its net's driver or a sink.
func (n *Netlist) PinType(p PinID) PinType { return n.pinType[p] }

// PinTileIndex returns the pin's index within its block's tile type, used
// to look up physical pin offsets and delay-model pin identities.
func (n *Netlist) PinTileIndex(p PinID) int { return n.pinTileIdx[p] }

// NetlistBuilder assembles a Netlist. Blocks must be added before the nets
// referencing them.
type NetlistBuilder struct {
	nlist *Netlist
}

// NewNetlistBuilder creates an empty netlist builder.
func NewNetlistBuilder() *NetlistBuilder {
	return &NetlistBuilder{nlist: &Netlist{}}
}

// AddBlock adds a block of the given logical type and returns its handle.
func (b *NetlistBuilder) AddBlock(name string, lt *LogicalType) BlockID {
	n := b.nlist
	id := BlockID(len(n.blockNames))
	n.blockNames = append(n.blockNames, name)
	n.blockTypes = append(n.blockTypes, lt)
	n.blockPins = append(n.blockPins, nil)
	return id
}

// Conn names one endpoint of a net: a block plus the pin index within the
// block's tile type.
type Conn struct {
	Block BlockID
	Pin   int
}

// AddNet adds a net from the driver connection to the sink connections and
// returns its handle.
func (b *NetlistBuilder) AddNet(name string, driver Conn, sinks ...Conn) NetID {
	n := b.nlist
	id := NetID(len(n.netNames))
	n.netNames = append(n.netNames, name)
	n.netIgnored = append(n.netIgnored, false)

	pins := make([]PinID, 0, len(sinks)+1)
	pins = append(pins, b.addPin(id, 0, Driver, driver))
	for i, s := range sinks {
		pins = append(pins, b.addPin(id, i+1, Sink, s))
	}
	n.netPins = append(n.netPins, pins)

	return id
}

func (b *NetlistBuilder) addPin(net NetID, netIdx int, pt PinType, c Conn) PinID {
	n := b.nlist
	if int(c.Block) >= len(n.blockNames) {
		panic(fmt.Sprintf("net %d references unknown block %d", net, c.Block))
	}

	p := PinID(len(n.pinNet))
	n.pinNet = append(n.pinNet, net)
	n.pinBlock = append(n.pinBlock, c.Block)
	n.pinNetIdx = append(n.pinNetIdx, netIdx)
	n.pinType = append(n.pinType, pt)
	n.pinTileIdx = append(n.pinTileIdx, c.Pin)
	n.blockPins[c.Block] = append(n.blockPins[c.Block], p)

	return p
}

// SetIgnored marks a net as a global signal with no cost contribution.
func (b *NetlistBuilder) SetIgnored(id NetID) {
	b.nlist.netIgnored[id] = true
}

// Build finalizes and returns the netlist.
func (b *NetlistBuilder) Build() *Netlist {
	return b.nlist
}
