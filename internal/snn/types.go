package snn

import (
	"fmt"
	"time"
)

type GroupKind string

const (
	KindGenerator  GroupKind = "generator"
	KindIzhikevich GroupKind = "izhikevich"
)

type Pattern string

const (
	PatternFull     Pattern = "full"
	PatternOneToOne Pattern = "one_to_one"
	PatternRandom   Pattern = "random"
)

const (
	MinDelay = 1
	MaxDelay = 20

	// SpikeThreshold is the membrane potential (mV) at which an izhikevich neuron fires.
	SpikeThreshold = 30.0
)

// GroupRef identifies a neuron group. Neuron ids are local to the group, 0..Size-1.
type GroupRef struct {
	ID   int
	Name string
	Size int
}

func (g GroupRef) String() string {
	return fmt.Sprintf("%s(#%d, n=%d)", g.Name, g.ID, g.Size)
}

// Izhikevich holds the four parameters of the Izhikevich neuron model.
type Izhikevich struct {
	A, B, C, D float64
}

// RegularSpiking is the standard excitatory cortical cell.
var RegularSpiking = Izhikevich{A: 0.02, B: 0.2, C: -65, D: 8}

// FastSpiking is the standard inhibitory interneuron.
var FastSpiking = Izhikevich{A: 0.1, B: 0.2, C: -65, D: 2}

type GroupSpec struct {
	Name    string
	Kind    GroupKind
	Size    int
	Params  Izhikevich
	Current float64
}

type ConnSpec struct {
	From, To    string
	Pattern     Pattern
	Probability float64
	Weight      float64
	Delay       int
}

type Spec struct {
	Seed        int64
	Groups      []GroupSpec
	Connections []ConnSpec
}

// SpikeMonitor receives one simulated second of a group's spikes. neuronIDs is
// time ordered and timeCounts has exactly 1000 entries summing to
// len(neuronIDs). Both slices are reused by the simulator after the call.
type SpikeMonitor interface {
	Update(groupID int, neuronIDs []int, timeCounts []int)
}

// StateObserver sees the membrane potentials of an izhikevich group after every
// step. v is owned by the simulator and is only valid during the call.
type StateObserver interface {
	OnStep(t int, group GroupRef, v []float64)
}

type Result struct {
	Backend string
	Seconds int
	Steps   int
	Totals  map[string]int64
	Elapsed time.Duration
}
