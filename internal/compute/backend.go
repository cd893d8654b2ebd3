package compute

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
)

var ErrUnknownBackend = errors.New("compute: unknown backend")

// Backend executes a per-neuron kernel over [0, n). Kernels write only to the
// state of index i, so every backend produces the same result.
type Backend interface {
	Name() string
	Available() bool
	Update(n int, kernel func(i int))
}

const (
	NameSequential = "sequential"
	NameParallel   = "parallel"
)

var factories = map[string]func(workers int) Backend{
	NameSequential: func(int) Backend { return NewSequential() },
	NameParallel:   func(workers int) Backend { return NewParallel(workers) },
}

// Lookup returns a fresh backend by name. workers <= 0 selects runtime.NumCPU()
// and is ignored by the sequential backend.
func Lookup(name string, workers int) (Backend, error) {
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Names())
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	b := fn(workers)
	if !b.Available() {
		return nil, fmt.Errorf("compute: backend %q not available on this host", name)
	}
	return b, nil
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
