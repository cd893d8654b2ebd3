package compute

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Sequential runs the kernel on the calling goroutine in index order.
type Sequential struct{}

func NewSequential() *Sequential { return &Sequential{} }

func (s *Sequential) Name() string    { return NameSequential }
func (s *Sequential) Available() bool { return true }

func (s *Sequential) Update(n int, kernel func(i int)) {
	for i := 0; i < n; i++ {
		kernel(i)
	}
}

// minParallel is the group size below which Parallel stays on one goroutine.
const minParallel = 16

// Parallel splits [0, n) into contiguous chunks, one per worker.
type Parallel struct {
	workers int
}

func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Parallel{workers: workers}
}

func (p *Parallel) Name() string    { return NameParallel }
func (p *Parallel) Available() bool { return true }
func (p *Parallel) Workers() int    { return p.workers }

func (p *Parallel) Update(n int, kernel func(i int)) {
	if n < minParallel || p.workers == 1 {
		for i := 0; i < n; i++ {
			kernel(i)
		}
		return
	}

	workers := p.workers
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	wp := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		lo, hi := start, end
		wp.Go(func() {
			for i := lo; i < hi; i++ {
				kernel(i)
			}
		})
	}
	wp.Wait()
}
