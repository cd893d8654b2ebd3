// Package analysis characterizes recorded spike trains.
//
//   - [PopulationRate]: group firing rate in fixed time bins
//   - [DominantFrequency]: strongest oscillation in a binned rate via [PowerSpectrum]
//   - [ISIStats]: mean and coefficient of variation of inter-spike intervals
//
// A periodic generator has an ISI CV of zero; irregular network activity sits
// near one.
package analysis
