// Package metrics computes summary statistics over spike monitor batches.
// Every metric is a snn.SpikeMonitor, so it can be attached next to an
// accumulator without touching the simulator.
package metrics

import "github.com/san-kum/spikesim/internal/snn"

type Metric interface {
	Name() string
	Update(groupID int, neuronIDs []int, timeCounts []int)
	Value() float64
	Reset()
}

// Fanout forwards every batch to each monitor in order.
type Fanout []snn.SpikeMonitor

func (f Fanout) Update(groupID int, neuronIDs []int, timeCounts []int) {
	for _, m := range f {
		m.Update(groupID, neuronIDs, timeCounts)
	}
}
