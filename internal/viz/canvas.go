package viz

import (
	"strings"

	"github.com/san-kum/spikesim/internal/equiv"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of Braille cells. Its pixel size is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// RenderRaster draws the spikes with fromMs <= t < toMs of a group with n
// neurons. Neuron 0 is the top row.
func RenderRaster(events []equiv.SpikeEvent, n, fromMs, toMs, w, h int) string {
	c := NewCanvas(w, h)
	span := toMs - fromMs
	if span <= 0 || n <= 0 {
		return c.String()
	}
	pw, ph := w*2, h*4
	for _, e := range events {
		if e.TimeMs < fromMs || e.TimeMs >= toMs {
			continue
		}
		x := (e.TimeMs - fromMs) * pw / span
		y := e.Neuron * ph / n
		c.Set(x, y)
	}
	return c.String()
}
