// Package spikegen provides deterministic spike-time sources for stimulus groups.
//
// A simulator asks a [Source] for the next scheduled spike of a stimulated
// neuron whenever the previous one has been emitted:
//
//	src := spikegen.NewPeriodic(50) // 50 Hz, isi = 20ms
//	next := src.NextSpikeTime(groupID, nid, now)
//
// Sources are stateless with respect to the caller: the same arguments always
// yield the same answer, so two runs on different backends see identical
// stimulus regardless of the order in which neurons are queried.
package spikegen
