package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	r := &equiv.Report{
		BackendA: "sequential",
		BackendB: "parallel",
		Groups: []equiv.GroupReport{
			{Group: "exc", Size: 4, TotalA: 10, TotalB: 10},
		},
	}
	out := RenderReport(r)
	assert.Contains(t, out, "EQUIVALENT")
	assert.Contains(t, out, "exc")
	assert.NotContains(t, out, "first diverge")
	assert.Contains(t, out, "◆")

	r.Groups[0].MaxAbsDelta = 2
	r.Divergence = &equiv.Divergence{Kind: equiv.CountDivergence, Group: "exc", Neuron: 1, TimeMs: 12, A: 1, B: 3}
	out = RenderReport(r)
	assert.Contains(t, out, "DIVERGENT")
	assert.Contains(t, out, "count mismatch in exc neuron 1 at t=12ms")
}

func TestRenderRaster(t *testing.T) {
	events := []equiv.SpikeEvent{{Neuron: 0, TimeMs: 0}, {Neuron: 3, TimeMs: 99}, {Neuron: 1, TimeMs: 500}}
	out := RenderRaster(events, 4, 0, 100, 10, 2)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	// first cell has the top-left dot
	assert.Equal(t, rune(0x2800|0x1), []rune(lines[0])[0])
	assert.NotEqual(t, rune(blank), []rune(lines[1])[9])

	assert.Equal(t, NewCanvas(3, 1).String(), RenderRaster(events, 0, 0, 100, 3, 1))
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(3, 2)
	c.Set(-1, 0)
	c.Set(100, 100)
	assert.True(t, c.IsSet(3, 2))
	assert.False(t, c.IsSet(0, 0))
	c.Clear()
	assert.False(t, c.IsSet(3, 2))
}

func TestPlotCounts(t *testing.T) {
	out := PlotCounts("exc", []int{1, 5, 3})
	assert.Contains(t, out, "exc: spikes per neuron")
	assert.NotEmpty(t, PlotCounts("one", []int{7}))
	assert.Contains(t, PlotCounts("none", nil), "no neurons")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁█", Sparkline([]float64{0, 1}, 10))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{2, 2, 2}, 10))
	assert.Equal(t, "──", Sparkline(nil, 2))
	assert.Len(t, []rune(Sparkline([]float64{1, 2, 3, 4, 5}, 3)), 3)
	assert.Empty(t, PlotSeries("x", []float64{1}, 3, 10))
}
