// Package export writes recorded spike data as SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/spikesim/internal/equiv"
)

const (
	marginLeft   = 40
	marginBottom = 20
)

// RasterSVG draws one tick per spike, time on x and neuron on y, over
// [0, durationMs).
func RasterSVG(events []equiv.SpikeEvent, n, durationMs, width, height int) string {
	if n <= 0 || durationMs <= 0 || width <= marginLeft || height <= marginBottom {
		return ""
	}
	plotW := float64(width - marginLeft)
	plotH := float64(height - marginBottom)
	rowH := plotH / float64(n)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#444466" stroke-width="1">
<line x1="%d" y1="0" x2="%d" y2="%.1f"/>
<line x1="%d" y1="%.1f" x2="%d" y2="%.1f"/>
</g>
<g font-family="monospace" font-size="10" fill="#888899">
<text x="2" y="10">0</text>
<text x="2" y="%.1f">%d</text>
<text x="%d" y="%d">0ms</text>
<text x="%d" y="%d" text-anchor="end">%dms</text>
</g>
<g stroke="#00ff88" stroke-width="1">
`,
		width, height, width, height,
		marginLeft, marginLeft, plotH,
		marginLeft, plotH, width, plotH,
		plotH, n-1,
		marginLeft, height-4,
		width-2, height-4, durationMs))

	for _, e := range events {
		if e.TimeMs < 0 || e.TimeMs >= durationMs || e.Neuron < 0 || e.Neuron >= n {
			continue
		}
		x := float64(marginLeft) + float64(e.TimeMs)/float64(durationMs)*plotW
		y := float64(e.Neuron) * rowH
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x, y, x, y+rowH))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
