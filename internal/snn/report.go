package snn

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
)

// neuronBytes is the per-neuron state footprint of a group, spike history included.
func (g *group) neuronBytes() int {
	per := int(unsafe.Sizeof(false)) * (1 + historyLen)
	switch g.kind {
	case KindGenerator:
		per += int(unsafe.Sizeof(int(0)))
	case KindIzhikevich:
		per += 3 * int(unsafe.Sizeof(float64(0)))
	}
	return g.ref.Size * per
}

func (p *projection) bytes() int {
	return (len(p.pres) + len(p.offs)) * int(unsafe.Sizeof(int(0)))
}

// SizeReport lists every group with its outgoing connections and the memory
// they take, then the network totals.
func (n *Network) SizeReport() string {
	var b strings.Builder
	neur, neurMem, syn, synMem := 0, 0, 0, 0
	for _, g := range n.groups {
		nmem := g.neuronBytes()
		neur += g.ref.Size
		neurMem += nmem
		fmt.Fprintf(&b, "%14s:\t Neurons: %d\t NeurMem: %v \t Sends To:\n", g.ref.Name, g.ref.Size, datasize.ByteSize(nmem).HumanReadable())
		for _, p := range n.conns {
			if p.pre != g {
				continue
			}
			pmem := p.bytes()
			syn += p.Synapses()
			synMem += pmem
			fmt.Fprintf(&b, "\t%14s:\t Syns: %d\t SynMem: %v\n", p.post.ref.Name, p.Synapses(), datasize.ByteSize(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", "total", neur,
		datasize.ByteSize(neurMem).HumanReadable(), syn, datasize.ByteSize(synMem).HumanReadable())
	return b.String()
}
