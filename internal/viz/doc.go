// Package viz renders simulation output for the terminal.
//
//   - [RenderReport]: lipgloss panel for an equivalence report
//   - [PlotCounts]: per-neuron spike counts as an asciigraph line plot
//   - [RenderRaster]: Braille spike raster, time on x and neuron on y
//
// The live view built on Bubble Tea lives in package tui and reuses these
// styles.
package viz
