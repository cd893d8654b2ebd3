// Package monitor counts the spikes a neuron group emits over one run.
package monitor

import (
	"github.com/sirupsen/logrus"
)

// MsPerSecond is the number of timeCounts entries delivered per Update.
const MsPerSecond = 1000

type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// Accumulator keeps per-neuron and total spike counts for a group of n
// neurons. It is bound to one run and has no reset; create a new one per run.
// Not safe for concurrent Update calls.
type Accumulator struct {
	perNeuron []int
	total     int64
	updates   int
	groupID   int
}

// New panics if n <= 0.
func New(n int) *Accumulator {
	if n <= 0 {
		logrus.Panicf("monitor: neuron count must be positive, got %d", n)
	}
	return &Accumulator{
		perNeuron: make([]int, n),
		groupID:   -1,
	}
}

// Update consumes one simulated second of spikes. timeCounts[t] ids are taken
// from the front of neuronIDs for each millisecond t. Any id outside [0, N) or a
// batch whose shape disagrees with timeCounts is a simulator bug and panics.
func (a *Accumulator) Update(groupID int, neuronIDs []int, timeCounts []int) {
	if len(timeCounts) != MsPerSecond {
		logrus.Panicf("monitor: group %d: expected %d time bins, got %d", groupID, MsPerSecond, len(timeCounts))
	}

	n := len(a.perNeuron)
	pos := 0
	for t, cnt := range timeCounts {
		if cnt < 0 || pos+cnt > len(neuronIDs) {
			logrus.Panicf("monitor: group %d: time bin %d claims %d spikes, only %d ids left",
				groupID, t, cnt, len(neuronIDs)-pos)
		}
		for _, id := range neuronIDs[pos : pos+cnt] {
			if id < 0 || id >= n {
				logrus.Panicf("monitor: group %d: neuron id %d out of range [0,%d) at %dms", groupID, id, n, t)
			}
			a.perNeuron[id]++
			a.total++
		}
		pos += cnt
	}
	if pos != len(neuronIDs) {
		logrus.Panicf("monitor: group %d: %d neuron ids not covered by time bins", groupID, len(neuronIDs)-pos)
	}

	a.groupID = groupID
	a.updates++
	logrus.Debugf("monitor: group %d second %d: %d spikes (total %d)", groupID, a.updates, len(neuronIDs), a.total)
}

// Spikes returns the live per-neuron counters. Callers must not modify them.
func (a *Accumulator) Spikes() []int { return a.perNeuron }

func (a *Accumulator) Total() int64 { return a.total }

func (a *Accumulator) NumNeurons() int { return len(a.perNeuron) }

// Seconds reports how many Update calls have been applied.
func (a *Accumulator) Seconds() int { return a.updates }

// GroupID is the group of the most recent Update, or -1 before the first one.
func (a *Accumulator) GroupID() int { return a.groupID }

func (a *Accumulator) State() State {
	if a.updates == 0 {
		return Idle
	}
	return Accumulating
}
