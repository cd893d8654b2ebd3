package analysis

import (
	"math"

	"github.com/san-kum/spikesim/internal/equiv"
)

// PopulationRate bins the spikes of a group of n neurons into binMs wide bins
// over [0, durationMs) and returns the mean rate per neuron in Hz for each bin.
func PopulationRate(events []equiv.SpikeEvent, n, binMs, durationMs int) []float64 {
	if n <= 0 || binMs <= 0 || durationMs <= 0 {
		return nil
	}
	bins := make([]float64, (durationMs+binMs-1)/binMs)
	for _, e := range events {
		if e.TimeMs < 0 || e.TimeMs >= durationMs {
			continue
		}
		bins[e.TimeMs/binMs]++
	}
	scale := 1000 / float64(binMs) / float64(n)
	for i := range bins {
		bins[i] *= scale
	}
	return bins
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of a rate binned at binMs, and its power. It returns 0, 0 when
// there are too few bins.
func DominantFrequency(rate []float64, binMs int) (float64, float64) {
	if len(rate) < 4 || binMs <= 0 {
		return 0, 0
	}
	mean := 0.0
	for _, r := range rate {
		mean += r
	}
	mean /= float64(len(rate))
	centered := make([]float64, len(rate))
	for i, r := range rate {
		centered[i] = r - mean
	}

	ps := PowerSpectrum(centered)
	best, power := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > power {
			best, power = k, ps[k]
		}
	}
	if best == 0 {
		return 0, 0
	}
	window := float64(2*len(ps)*binMs) / 1000
	return float64(best) / window, power
}

type ISI struct {
	Intervals int
	MeanMs    float64
	CV        float64
}

// ISIStats pools the inter-spike intervals of every neuron in a group.
func ISIStats(events []equiv.SpikeEvent, n int) ISI {
	last := make([]int, n)
	for i := range last {
		last[i] = -1
	}

	var count int
	var sum, sumSq float64
	for _, e := range events {
		if e.Neuron < 0 || e.Neuron >= n {
			continue
		}
		if prev := last[e.Neuron]; prev >= 0 {
			d := float64(e.TimeMs - prev)
			count++
			sum += d
			sumSq += d * d
		}
		last[e.Neuron] = e.TimeMs
	}
	if count == 0 {
		return ISI{}
	}
	mean := sum / float64(count)
	variance := math.Max(sumSq/float64(count)-mean*mean, 0)
	return ISI{Intervals: count, MeanMs: mean, CV: math.Sqrt(variance) / mean}
}
