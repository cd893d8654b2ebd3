package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum zero-pads data to a power of two and returns the magnitude of
// the positive frequency bins.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	padded := make([]float64, nextPow2(len(data)))
	copy(padded, data)

	spectrum := fft.FFTReal(padded)
	ps := make([]float64, max(len(spectrum)/2, 1))
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
