// Package sweep repeats an equivalence check over a grid of configuration
// overrides, so one invocation covers many seeds, rates, and worker counts.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/san-kum/spikesim/internal/config"
	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const (
	ParamSeed    = "seed"
	ParamWorkers = "workers"
	ParamRate    = "rate"
	ParamSeconds = "seconds"
)

// Point is one grid cell and its outcome. Err is set when the cell could not
// be run at all.
type Point struct {
	Params map[string]float64
	Report *equiv.Report
	Err    error
}

func (p Point) Label() string {
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p.Params[k])
	}
	return strings.Join(parts, " ")
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Workers bounds how many cells run at once. Zero means one per CPU.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("sweep: %d params but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		switch name {
		case ParamSeed, ParamWorkers, ParamRate, ParamSeconds:
		default:
			return nil, fmt.Errorf("sweep: unknown parameter %q", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("sweep: parameter %q has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid cells.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs the validator for every cell, Workers cells at a time. Points
// come back in row-major order. Once ctx is done no new cell starts, and only
// the cells that ran are returned along with ctx's error.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) ([]Point, error) {
	cells := make([]map[string]float64, 0, g.Size())
	g.collect(0, make(map[string]float64), &cells)

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	points := make([]Point, len(cells))
	ran := make([]bool, len(cells))
	wp := pool.New().WithMaxGoroutines(workers)
	for i, params := range cells {
		i, params := i, params
		wp.Go(func() {
			if ctx.Err() != nil {
				return
			}
			p := Point{Params: params}
			p.Report, p.Err = runPoint(base, params)
			if p.Err != nil {
				logrus.Warnf("sweep: %s: %v", p.Label(), p.Err)
			}
			points[i] = p
			ran[i] = true
		})
	}
	wp.Wait()

	done := points[:0]
	for i := range points {
		if ran[i] {
			done = append(done, points[i])
		}
	}
	if len(done) < len(cells) {
		return done, ctx.Err()
	}
	return done, nil
}

func (g *GridSearch) collect(depth int, current map[string]float64, cells *[]map[string]float64) {
	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*cells = append(*cells, params)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.collect(depth+1, current, cells)
	}
	delete(current, paramName)
}

func runPoint(base *config.Config, params map[string]float64) (*equiv.Report, error) {
	cfg := base.Clone()
	for k, v := range params {
		switch k {
		case ParamSeed:
			cfg.Seed = int64(v)
		case ParamWorkers:
			cfg.Workers = int(v)
		case ParamRate:
			cfg.Stimulus.Rate = v
		case ParamSeconds:
			cfg.Seconds = int(v)
		}
	}
	v, err := cfg.Validator()
	if err != nil {
		return nil, err
	}
	return v.Run()
}

// Failures returns the cells that errored or diverged.
func Failures(points []Point) []Point {
	var out []Point
	for _, p := range points {
		if p.Err != nil || !p.Report.Equivalent() {
			out = append(out, p)
		}
	}
	return out
}
