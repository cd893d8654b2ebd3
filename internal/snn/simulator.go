package snn

import (
	"fmt"
	"time"

	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/sirupsen/logrus"
)

// Simulator advances one Network in 1ms steps on a backend.
type Simulator struct {
	net     *Network
	backend compute.Backend
	t       int
	started bool
	elapsed time.Duration
}

func New(net *Network, backend compute.Backend) *Simulator {
	return &Simulator{net: net, backend: backend}
}

func (s *Simulator) Backend() string { return s.backend.Name() }

// Now is the next step to be simulated, in ms.
func (s *Simulator) Now() int { return s.t }

// Run simulates the given number of whole seconds and reports totals for the
// whole run so far.
func (s *Simulator) Run(seconds int) (*Result, error) {
	if err := s.Advance(seconds); err != nil {
		return nil, err
	}
	return s.Result(), nil
}

// Advance simulates seconds more seconds, continuing from Now.
func (s *Simulator) Advance(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: seconds must be positive, got %d", ErrInvalidConfig, seconds)
	}
	if !s.started {
		s.start()
	}

	logrus.Infof("snn: %s backend: simulating %ds from t=%dms", s.backend.Name(), seconds, s.t)
	begin := time.Now()
	steps := seconds * monitor.MsPerSecond
	for k := 0; k < steps; k++ {
		s.step()
	}
	s.elapsed += time.Since(begin)
	logrus.Infof("snn: %s backend: reached t=%dms in %v", s.backend.Name(), s.t, s.elapsed)
	return nil
}

func (s *Simulator) Result() *Result {
	totals := make(map[string]int64, len(s.net.groups))
	for _, g := range s.net.groups {
		totals[g.ref.Name] = g.total
	}
	return &Result{
		Backend: s.backend.Name(),
		Seconds: s.t / monitor.MsPerSecond,
		Steps:   s.t,
		Totals:  totals,
		Elapsed: s.elapsed,
	}
}

func (s *Simulator) start() {
	for _, g := range s.net.groups {
		if g.kind != KindGenerator {
			continue
		}
		for i := range g.next {
			g.next[i] = s.nextSpike(g, i, 0)
		}
	}
	s.started = true
}

func (s *Simulator) nextSpike(g *group, nid, now int) int {
	next := s.net.source.NextSpikeTime(g.ref.ID, nid, now)
	if next <= now {
		logrus.Panicf("snn: group %s neuron %d: spike source returned %dms, not after %dms", g.ref.Name, nid, next, now)
	}
	return next
}

func (s *Simulator) step() {
	t := s.t

	for _, g := range s.net.groups {
		if g.kind == KindIzhikevich && len(g.incoming) > 0 {
			s.backend.Update(g.ref.Size, g.gatherInput(t))
		}
	}

	for _, g := range s.net.groups {
		switch g.kind {
		case KindGenerator:
			// the source is user code; query it from this goroutine only
			for i := range g.fired {
				fired := g.next[i] == t
				if fired {
					g.next[i] = s.nextSpike(g, i, t)
				}
				g.fired[i] = fired
			}
		case KindIzhikevich:
			s.backend.Update(g.ref.Size, g.integrate)
		}
	}

	ms := t % monitor.MsPerSecond
	for _, g := range s.net.groups {
		g.collect(t, ms)
		for _, o := range g.observers {
			o.OnStep(t, g.ref, g.v)
		}
	}

	if ms == monitor.MsPerSecond-1 {
		for _, g := range s.net.groups {
			g.deliver()
		}
	}
	s.t++
}

func (g *group) gatherInput(t int) func(j int) {
	return func(j int) {
		sum := 0.0
		for _, p := range g.incoming {
			src := t - p.delay
			if src < 0 {
				continue
			}
			h := p.pre.hist[src%historyLen]
			for _, i := range p.pres[p.offs[j]:p.offs[j+1]] {
				if h[i] {
					sum += p.weight
				}
			}
		}
		g.input[j] = sum
	}
}

func (g *group) integrate(i int) {
	v, u := g.v[i], g.u[i]
	fired := false
	if v >= SpikeThreshold {
		fired = true
		v = g.params.C
		u += g.params.D
	}

	current := g.current
	if g.input != nil {
		current += g.input[i]
	}
	// two half steps for numerical stability
	v += 0.5 * ((0.04*v+5)*v + 140 - u + current)
	v += 0.5 * ((0.04*v+5)*v + 140 - u + current)
	u += g.params.A * (g.params.B*v - u)
	if v > SpikeThreshold {
		v = SpikeThreshold
	}

	g.v[i], g.u[i], g.fired[i] = v, u, fired
}

func (g *group) collect(t, ms int) {
	h := g.hist[t%historyLen]
	for i, f := range g.fired {
		h[i] = f
		if f {
			g.ids = append(g.ids, i)
			g.timeCounts[ms]++
			g.total++
		}
	}
}

func (g *group) deliver() {
	for _, m := range g.monitors {
		m.Update(g.ref.ID, g.ids, g.timeCounts)
	}
	logrus.Debugf("snn: group %s delivered %d spikes", g.ref.Name, len(g.ids))
	g.ids = g.ids[:0]
	for k := range g.timeCounts {
		g.timeCounts[k] = 0
	}
}
