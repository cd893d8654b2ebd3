package equiv

import (
	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/san-kum/spikesim/internal/snn"
)

// SpikeEvent is one spike of one neuron at an absolute time.
type SpikeEvent struct {
	Neuron int
	TimeMs int
}

// Raster keeps every spike of a group in time order so a count mismatch can be
// traced back to the millisecond it first appeared. It lives only as long as
// the comparison.
type Raster struct {
	events  []SpikeEvent
	seconds int
}

func NewRaster() *Raster { return &Raster{} }

func (r *Raster) Update(groupID int, neuronIDs []int, timeCounts []int) {
	base := r.seconds * monitor.MsPerSecond
	pos := 0
	for t, cnt := range timeCounts {
		for k := 0; k < cnt; k++ {
			r.events = append(r.events, SpikeEvent{Neuron: neuronIDs[pos], TimeMs: base + t})
			pos++
		}
	}
	r.seconds++
}

func (r *Raster) Events() []SpikeEvent { return r.events }

// Trace records the membrane potential of every neuron of a group at every step.
type Trace struct {
	n     int
	steps int
	v     []float64
}

func NewTrace(n int) *Trace { return &Trace{n: n} }

func (tr *Trace) OnStep(t int, g snn.GroupRef, v []float64) {
	tr.v = append(tr.v, v...)
	tr.steps++
}

func (tr *Trace) Steps() int { return tr.steps }

func (tr *Trace) At(t, neuron int) float64 { return tr.v[t*tr.n+neuron] }

// GroupOutput is everything recorded for one group during one run. Raster
// and Trace are nil for runs loaded from storage.
type GroupOutput struct {
	Ref    snn.GroupRef
	Spikes []int
	Total  int64
	Raster *Raster
	Trace  *Trace
}

// RunOutput is the result of one backend run.
type RunOutput struct {
	Backend string
	Result  *snn.Result
	Groups  []GroupOutput
}

func (o *RunOutput) Group(name string) (GroupOutput, bool) {
	for _, g := range o.Groups {
		if g.Ref.Name == name {
			return g, true
		}
	}
	return GroupOutput{}, false
}
