package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

const (
	PlotHeight = 10
	PlotWidth  = 80
)

// PlotCounts plots spike count against neuron index.
func PlotCounts(group string, counts []int) string {
	if len(counts) == 0 {
		return Subtle.Render(fmt.Sprintf("%s: no neurons", group))
	}
	data := make([]float64, len(counts))
	for i, c := range counts {
		data[i] = float64(c)
	}
	// asciigraph needs two points to draw a line
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(PlotHeight),
		asciigraph.Width(min(PlotWidth, max(len(data), 2))),
		asciigraph.Caption(fmt.Sprintf("%s: spikes per neuron", group)),
	)
}

// PlotSeries plots a time series such as spikes per second.
func PlotSeries(caption string, data []float64, height, width int) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
