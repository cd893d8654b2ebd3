package equiv

import (
	"fmt"
	"math"
	"strings"
)

type DivergenceKind string

const (
	CountDivergence DivergenceKind = "count"
	StateDivergence DivergenceKind = "state"
)

// Divergence names the first place two runs differ beyond tolerance. TimeMs is
// -1 when the runs carry no raster to locate a count mismatch in time.
type Divergence struct {
	Kind   DivergenceKind `json:"kind"`
	Group  string         `json:"group"`
	Neuron int            `json:"neuron"`
	TimeMs int            `json:"time_ms"`
	A      float64        `json:"a"`
	B      float64        `json:"b"`
}

func (d *Divergence) String() string {
	if d == nil {
		return "none"
	}
	at := fmt.Sprintf("t=%dms", d.TimeMs)
	if d.TimeMs < 0 {
		at = "end of run"
	}
	return fmt.Sprintf("%s mismatch in %s neuron %d at %s: %g vs %g", d.Kind, d.Group, d.Neuron, at, d.A, d.B)
}

type GroupReport struct {
	Group         string  `json:"group"`
	Size          int     `json:"size"`
	Delta         []int   `json:"delta"`
	TotalA        int64   `json:"total_a"`
	TotalB        int64   `json:"total_b"`
	MaxAbsDelta   int     `json:"max_abs_delta"`
	Traced        bool    `json:"traced"`
	MaxStateDrift float64 `json:"max_state_drift"`
}

// Report is the immutable outcome of one comparison. Delta is B minus A.
type Report struct {
	BackendA   string        `json:"backend_a"`
	BackendB   string        `json:"backend_b"`
	Tolerance  Tolerance     `json:"tolerance"`
	Groups     []GroupReport `json:"groups"`
	Divergence *Divergence   `json:"divergence,omitempty"`
}

func (r *Report) Equivalent() bool { return r.Divergence == nil }

func (r *Report) MaxAbsDelta() int {
	m := 0
	for _, g := range r.Groups {
		if g.MaxAbsDelta > m {
			m = g.MaxAbsDelta
		}
	}
	return m
}

func (r *Report) Summary() string {
	var b strings.Builder
	verdict := "EQUIVALENT"
	if !r.Equivalent() {
		verdict = "DIVERGENT"
	}
	fmt.Fprintf(&b, "%s vs %s: %s (max count delta %d, tolerance %d/%g)\n",
		r.BackendA, r.BackendB, verdict, r.MaxAbsDelta(), r.Tolerance.MaxCountDelta, r.Tolerance.MaxStateDrift)
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "  %-10s n=%-5d spikes %d / %d  max|delta| %d", g.Group, g.Size, g.TotalA, g.TotalB, g.MaxAbsDelta)
		if g.Traced {
			fmt.Fprintf(&b, "  max drift %.3g", g.MaxStateDrift)
		}
		b.WriteByte('\n')
	}
	if r.Divergence != nil {
		fmt.Fprintf(&b, "  first divergence: %s\n", r.Divergence)
	}
	return b.String()
}

// Compare diffs two runs of the same network group by group.
func Compare(a, b *RunOutput, tol Tolerance) (*Report, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	if len(a.Groups) != len(b.Groups) {
		return nil, fmt.Errorf("equiv: runs monitor %d and %d groups", len(a.Groups), len(b.Groups))
	}

	report := &Report{BackendA: a.Backend, BackendB: b.Backend, Tolerance: tol}
	for i := range a.Groups {
		ga, gb := a.Groups[i], b.Groups[i]
		if ga.Ref.Name != gb.Ref.Name || len(ga.Spikes) != len(gb.Spikes) {
			return nil, fmt.Errorf("equiv: group %d differs: %s(n=%d) vs %s(n=%d)",
				i, ga.Ref.Name, len(ga.Spikes), gb.Ref.Name, len(gb.Spikes))
		}

		gr, failing := countDelta(ga, gb, tol)
		if d := locateCount(ga, gb, failing, tol); d != nil {
			report.Divergence = earliest(report.Divergence, d)
		}

		if ga.Trace != nil && gb.Trace != nil {
			gr.Traced = true
			var d *Divergence
			gr.MaxStateDrift, d = compareTraces(ga, gb, tol)
			if d != nil {
				report.Divergence = earliest(report.Divergence, d)
			}
		}
		report.Groups = append(report.Groups, gr)
	}
	return report, nil
}

// earliest keeps the divergence with the lower time; ties keep cur, which was
// found first (earlier group, or count before state).
func earliest(cur, d *Divergence) *Divergence {
	if cur == nil {
		return d
	}
	if d.TimeMs >= 0 && (cur.TimeMs < 0 || d.TimeMs < cur.TimeMs) {
		return d
	}
	return cur
}

func countDelta(a, b GroupOutput, tol Tolerance) (GroupReport, []bool) {
	gr := GroupReport{
		Group:  a.Ref.Name,
		Size:   len(a.Spikes),
		Delta:  make([]int, len(a.Spikes)),
		TotalA: a.Total,
		TotalB: b.Total,
	}
	failing := make([]bool, len(a.Spikes))
	for i := range a.Spikes {
		d := b.Spikes[i] - a.Spikes[i]
		gr.Delta[i] = d
		if abs(d) > gr.MaxAbsDelta {
			gr.MaxAbsDelta = abs(d)
		}
		failing[i] = abs(d) > tol.MaxCountDelta
	}
	return gr, failing
}

// locateCount finds the first millisecond at which a neuron whose final count
// is out of tolerance has drifted out of tolerance.
func locateCount(a, b GroupOutput, failing []bool, tol Tolerance) *Divergence {
	first := -1
	for i, f := range failing {
		if f {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}

	if a.Raster == nil || b.Raster == nil {
		return &Divergence{
			Kind: CountDivergence, Group: a.Ref.Name, Neuron: first, TimeMs: -1,
			A: float64(a.Spikes[first]), B: float64(b.Spikes[first]),
		}
	}

	ea, eb := a.Raster.Events(), b.Raster.Events()
	cumA := make([]int, len(failing))
	cumB := make([]int, len(failing))
	var touched []int
	ia, ib := 0, 0
	for ia < len(ea) || ib < len(eb) {
		t := math.MaxInt
		if ia < len(ea) {
			t = ea[ia].TimeMs
		}
		if ib < len(eb) && eb[ib].TimeMs < t {
			t = eb[ib].TimeMs
		}

		touched = touched[:0]
		for ; ia < len(ea) && ea[ia].TimeMs == t; ia++ {
			cumA[ea[ia].Neuron]++
			touched = append(touched, ea[ia].Neuron)
		}
		for ; ib < len(eb) && eb[ib].TimeMs == t; ib++ {
			cumB[eb[ib].Neuron]++
			touched = append(touched, eb[ib].Neuron)
		}

		hit := -1
		for _, n := range touched {
			if failing[n] && abs(cumB[n]-cumA[n]) > tol.MaxCountDelta && (hit < 0 || n < hit) {
				hit = n
			}
		}
		if hit >= 0 {
			return &Divergence{
				Kind: CountDivergence, Group: a.Ref.Name, Neuron: hit, TimeMs: t,
				A: float64(cumA[hit]), B: float64(cumB[hit]),
			}
		}
	}

	// rasters disagree with the counters; fall back to the final counts
	return &Divergence{
		Kind: CountDivergence, Group: a.Ref.Name, Neuron: first, TimeMs: -1,
		A: float64(a.Spikes[first]), B: float64(b.Spikes[first]),
	}
}

func compareTraces(a, b GroupOutput, tol Tolerance) (float64, *Divergence) {
	steps := min(a.Trace.Steps(), b.Trace.Steps())
	n := len(a.Spikes)

	maxDrift := 0.0
	var first *Divergence
	for t := 0; t < steps; t++ {
		for i := 0; i < n; i++ {
			va, vb := a.Trace.At(t, i), b.Trace.At(t, i)
			drift := math.Abs(va - vb)
			if math.IsNaN(va) != math.IsNaN(vb) {
				drift = math.MaxFloat64
			}
			if drift > maxDrift {
				maxDrift = drift
			}
			if first == nil && drift > tol.MaxStateDrift {
				first = &Divergence{Kind: StateDivergence, Group: a.Ref.Name, Neuron: i, TimeMs: t, A: va, B: vb}
			}
		}
	}
	// A run that stopped sampling early diverges at its first missing step.
	// A and B then carry the sample counts.
	if first == nil && a.Trace.Steps() != b.Trace.Steps() {
		first = &Divergence{Kind: StateDivergence, Group: a.Ref.Name, TimeMs: steps,
			A: float64(a.Trace.Steps()), B: float64(b.Trace.Steps())}
	}
	return maxDrift, first
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
