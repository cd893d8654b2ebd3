// Package compute provides the execution backends a simulation step runs on.
//
//   - sequential: every neuron is updated in index order on one goroutine
//   - parallel: neurons are split into contiguous chunks over a worker pool
//
// Both backends run the same per-neuron kernel, so a network stepped on either
// one must produce identical spike output:
//
//	b, err := compute.Lookup("parallel", 8)
//	b.Update(len(v), func(i int) { v[i] = step(v[i]) })
package compute
