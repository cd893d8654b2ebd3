package spikegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicISI(t *testing.T) {
	tests := []struct {
		rate float64
		isi  int
	}{
		{50, 20},
		{1, 1000},
		{3, 333},
		{7.5, 133},
		{1000, 1},
		{0.5, 2000},
	}

	for _, tt := range tests {
		p := NewPeriodic(tt.rate)
		assert.Equal(t, tt.isi, p.ISI(), "rate %v", tt.rate)
		assert.Equal(t, tt.rate, p.Rate())
	}
}

func TestPeriodicNextSpikeTime(t *testing.T) {
	p := NewPeriodic(50)

	assert.Equal(t, 20, p.NextSpikeTime(0, 0, 0))
	assert.Equal(t, 40, p.NextSpikeTime(0, 0, 20))

	// no hidden state: repeated queries agree
	assert.Equal(t, 20, p.NextSpikeTime(3, 9, 0))
}

func TestPeriodicTrainStrictlyIncreasing(t *testing.T) {
	p := NewPeriodic(33)
	t0 := 17
	cur := t0
	for k := 1; k <= 100; k++ {
		next := p.NextSpikeTime(1, 2, cur)
		assert.Greater(t, next, cur)
		assert.Equal(t, t0+k*p.ISI(), next)
		cur = next
	}
}

func TestNewPeriodicInvalidRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"zero", 0},
		{"negative", -5},
		{"above max", 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { NewPeriodic(tt.rate) })
		})
	}
}

func TestSourceFunc(t *testing.T) {
	var src Source = SourceFunc(func(g, n, cur int) int { return cur + g + n + 1 })
	assert.Equal(t, 13, src.NextSpikeTime(2, 3, 7))
}
