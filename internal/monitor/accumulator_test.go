package monitor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptySecond() []int { return make([]int, MsPerSecond) }

func sum(xs []int) int64 {
	var s int64
	for _, x := range xs {
		s += int64(x)
	}
	return s
}

func TestAccumulatorSingleUpdate(t *testing.T) {
	a := New(10)
	require.Equal(t, Idle, a.State())

	counts := emptySecond()
	counts[5] = 3
	a.Update(0, []int{2, 2, 7}, counts)

	spikes := a.Spikes()
	assert.Equal(t, 2, spikes[2])
	assert.Equal(t, 1, spikes[7])
	assert.Equal(t, int64(3), a.Total())
	assert.Equal(t, Accumulating, a.State())
	assert.Equal(t, 1, a.Seconds())
	assert.Equal(t, 0, a.GroupID())
}

func TestAccumulatorEmptySecond(t *testing.T) {
	a := New(4)
	a.Update(1, nil, emptySecond())

	assert.Equal(t, int64(0), a.Total())
	assert.Equal(t, []int{0, 0, 0, 0}, a.Spikes())
	assert.Equal(t, Accumulating, a.State())
}

func TestAccumulatorSpikesIsLive(t *testing.T) {
	a := New(3)
	view := a.Spikes()

	counts := emptySecond()
	counts[0] = 1
	a.Update(0, []int{1}, counts)

	assert.Equal(t, 1, view[1])
}

func TestAccumulatorTotalInvariant(t *testing.T) {
	const n = 25
	a := New(n)
	rng := rand.New(rand.NewSource(7))

	for sec := 0; sec < 20; sec++ {
		counts := emptySecond()
		var ids []int
		for ms := 0; ms < MsPerSecond; ms++ {
			k := rng.Intn(3)
			counts[ms] = k
			for i := 0; i < k; i++ {
				ids = append(ids, rng.Intn(n))
			}
		}
		a.Update(2, ids, counts)
		require.Equal(t, a.Total(), sum(a.Spikes()), "second %d", sec)
	}
	assert.Equal(t, 20, a.Seconds())
}

func TestNewInvalidNeuronCount(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(-4) })
}

func TestAccumulatorContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		ids    []int
		counts func() []int
	}{
		{
			name: "id above range",
			ids:  []int{10},
			counts: func() []int {
				c := emptySecond()
				c[0] = 1
				return c
			},
		},
		{
			name: "negative id",
			ids:  []int{-1},
			counts: func() []int {
				c := emptySecond()
				c[999] = 1
				return c
			},
		},
		{
			name:   "short time bins",
			ids:    nil,
			counts: func() []int { return make([]int, 999) },
		},
		{
			name: "bins claim more ids than delivered",
			ids:  []int{1},
			counts: func() []int {
				c := emptySecond()
				c[3] = 2
				return c
			},
		},
		{
			name:   "ids not covered by bins",
			ids:    []int{1, 2},
			counts: emptySecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(10)
			assert.Panics(t, func() { a.Update(0, tt.ids, tt.counts()) })
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "accumulating", Accumulating.String())
	assert.Equal(t, "unknown", State(9).String())
}
