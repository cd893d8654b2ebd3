package snn

import (
	"hash/fnv"
	"math/rand"
)

// wiringRNG returns the generator used to draw one connection's synapses.
// Each connection gets its own stream so adding a connection does not
// reshuffle the others.
func wiringRNG(seed int64, name string) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ fnv1a64(name)))
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
