// Package snn is a small time-stepped spiking network simulator used to drive
// spike sources and monitors end to end.
//
// A [Network] is built from a [Spec] and a [spikegen.Source]. The [Simulator]
// advances it in 1ms steps on a [compute.Backend]:
//
//   - generator groups fire whenever the source schedules them
//   - izhikevich groups integrate synaptic and constant input
//
// Once per simulated second every [SpikeMonitor] attached to a group receives
// that second's spikes as a flat id list plus 1000 per-millisecond counts.
// Monitor and observer callbacks always run on the goroutine that called Run,
// in a fixed order, whatever the backend does internally.
//
// # Thread Safety
//
// A Network holds the mutable neuron state of one run and must not be shared
// between runs or simulators. Build a fresh network for every run.
package snn
