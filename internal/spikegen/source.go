package spikegen

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Source schedules spikes for stimulated neurons. NextSpikeTime must return a
// time strictly greater than currentTime.
type Source interface {
	NextSpikeTime(groupID, neuronID, currentTime int) int
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(groupID, neuronID, currentTime int) int

func (f SourceFunc) NextSpikeTime(groupID, neuronID, currentTime int) int {
	return f(groupID, neuronID, currentTime)
}

// MaxRate is the highest periodic rate whose ISI is still at least 1ms.
const MaxRate = 1000.0

// Periodic fires every isi milliseconds, where isi = floor(1000/rate).
type Periodic struct {
	rate float64
	isi  int
}

// NewPeriodic panics if rate is not in (0, MaxRate].
func NewPeriodic(rate float64) *Periodic {
	if !(rate > 0) || math.IsInf(rate, 0) {
		logrus.Panicf("spikegen: periodic rate must be positive, got %v", rate)
	}
	if rate > MaxRate {
		logrus.Panicf("spikegen: periodic rate %v exceeds %v Hz (isi would be 0ms)", rate, MaxRate)
	}
	return &Periodic{
		rate: rate,
		isi:  int(math.Floor(1000 / rate)),
	}
}

func (p *Periodic) Rate() float64 { return p.rate }
func (p *Periodic) ISI() int      { return p.isi }

func (p *Periodic) NextSpikeTime(groupID, neuronID, currentTime int) int {
	return currentTime + p.isi
}
