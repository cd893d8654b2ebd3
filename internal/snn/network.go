package snn

import (
	"fmt"

	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/san-kum/spikesim/internal/spikegen"
)

// historyLen covers every allowed delay without overwriting a slot still needed.
const historyLen = MaxDelay + 1

type group struct {
	ref     GroupRef
	kind    GroupKind
	params  Izhikevich
	current float64

	v, u  []float64
	input []float64
	next  []int
	fired []bool

	// hist[t%historyLen][i] is set when neuron i fired at step t.
	hist [historyLen][]bool

	ids        []int
	timeCounts []int
	total      int64

	incoming  []*projection
	monitors  []SpikeMonitor
	observers []StateObserver
}

// projection stores one connection in post-major form: the presynaptic
// neurons of post neuron j are pres[offs[j]:offs[j+1]].
type projection struct {
	pre    *group
	post   *group
	weight float64
	delay  int
	offs   []int
	pres   []int
}

func (p *projection) Synapses() int { return len(p.pres) }

type Network struct {
	source spikegen.Source
	groups []*group
	byName map[string]*group
	conns  []*projection
}

// NewNetwork validates spec and allocates the state of every group.
func NewNetwork(spec Spec, source spikegen.Source) (*Network, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil spike source", ErrInvalidConfig)
	}
	if len(spec.Groups) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidConfig)
	}

	n := &Network{
		source: source,
		byName: make(map[string]*group, len(spec.Groups)),
	}

	for i, gs := range spec.Groups {
		if err := validateGroup(gs); err != nil {
			return nil, err
		}
		if _, dup := n.byName[gs.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalidConfig, gs.Name)
		}
		g := newGroup(GroupRef{ID: i, Name: gs.Name, Size: gs.Size}, gs)
		n.groups = append(n.groups, g)
		n.byName[gs.Name] = g
	}

	for i, cs := range spec.Connections {
		p, err := n.connect(spec.Seed, i, cs)
		if err != nil {
			return nil, err
		}
		n.conns = append(n.conns, p)
	}

	return n, nil
}

func validateGroup(gs GroupSpec) error {
	if gs.Name == "" {
		return fmt.Errorf("%w: group without name", ErrInvalidConfig)
	}
	if gs.Size <= 0 {
		return fmt.Errorf("%w: group %q: size must be positive, got %d", ErrInvalidConfig, gs.Name, gs.Size)
	}
	switch gs.Kind {
	case KindGenerator, KindIzhikevich:
	default:
		return fmt.Errorf("%w: group %q: unknown kind %q", ErrInvalidConfig, gs.Name, gs.Kind)
	}
	return nil
}

func newGroup(ref GroupRef, gs GroupSpec) *group {
	g := &group{
		ref:        ref,
		kind:       gs.Kind,
		params:     gs.Params,
		current:    gs.Current,
		fired:      make([]bool, ref.Size),
		timeCounts: make([]int, monitor.MsPerSecond),
	}
	for k := range g.hist {
		g.hist[k] = make([]bool, ref.Size)
	}

	switch gs.Kind {
	case KindGenerator:
		g.next = make([]int, ref.Size)
	case KindIzhikevich:
		g.v = make([]float64, ref.Size)
		g.u = make([]float64, ref.Size)
		g.input = make([]float64, ref.Size)
		for i := range g.v {
			g.v[i] = gs.Params.C
			g.u[i] = gs.Params.B * gs.Params.C
		}
	}
	return g
}

func (n *Network) connect(seed int64, idx int, cs ConnSpec) (*projection, error) {
	pre, ok := n.byName[cs.From]
	if !ok {
		return nil, fmt.Errorf("%w: connection %d: %q", ErrUnknownGroup, idx, cs.From)
	}
	post, ok := n.byName[cs.To]
	if !ok {
		return nil, fmt.Errorf("%w: connection %d: %q", ErrUnknownGroup, idx, cs.To)
	}
	if post.kind != KindIzhikevich {
		return nil, fmt.Errorf("%w: connection %d: target %q is a %s group", ErrInvalidConfig, idx, cs.To, post.kind)
	}
	if cs.Delay < MinDelay || cs.Delay > MaxDelay {
		return nil, fmt.Errorf("%w: connection %d: delay %d outside [%d,%d]", ErrInvalidConfig, idx, cs.Delay, MinDelay, MaxDelay)
	}

	p := &projection{
		pre:    pre,
		post:   post,
		weight: cs.Weight,
		delay:  cs.Delay,
		offs:   make([]int, post.ref.Size+1),
	}
	self := pre == post

	switch cs.Pattern {
	case PatternFull:
		for j := 0; j < post.ref.Size; j++ {
			for i := 0; i < pre.ref.Size; i++ {
				if self && i == j {
					continue
				}
				p.pres = append(p.pres, i)
			}
			p.offs[j+1] = len(p.pres)
		}
	case PatternOneToOne:
		if pre.ref.Size != post.ref.Size {
			return nil, fmt.Errorf("%w: connection %d: one_to_one needs equal sizes, got %d and %d",
				ErrInvalidConfig, idx, pre.ref.Size, post.ref.Size)
		}
		if self {
			return nil, fmt.Errorf("%w: connection %d: one_to_one onto itself", ErrInvalidConfig, idx)
		}
		for j := 0; j < post.ref.Size; j++ {
			p.pres = append(p.pres, j)
			p.offs[j+1] = len(p.pres)
		}
	case PatternRandom:
		if cs.Probability < 0 || cs.Probability > 1 {
			return nil, fmt.Errorf("%w: connection %d: probability %v outside [0,1]", ErrInvalidConfig, idx, cs.Probability)
		}
		rng := wiringRNG(seed, fmt.Sprintf("%d:%s->%s", idx, cs.From, cs.To))
		for j := 0; j < post.ref.Size; j++ {
			for i := 0; i < pre.ref.Size; i++ {
				if self && i == j {
					continue
				}
				if rng.Float64() < cs.Probability {
					p.pres = append(p.pres, i)
				}
			}
			p.offs[j+1] = len(p.pres)
		}
	default:
		return nil, fmt.Errorf("%w: connection %d: unknown pattern %q", ErrInvalidConfig, idx, cs.Pattern)
	}

	post.incoming = append(post.incoming, p)
	return p, nil
}

func (n *Network) Groups() []GroupRef {
	refs := make([]GroupRef, len(n.groups))
	for i, g := range n.groups {
		refs[i] = g.ref
	}
	return refs
}

func (n *Network) Group(name string) (GroupRef, error) {
	g, ok := n.byName[name]
	if !ok {
		return GroupRef{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g.ref, nil
}

// Synapses returns the total number of synapses across all connections.
func (n *Network) Synapses() int {
	total := 0
	for _, p := range n.conns {
		total += p.Synapses()
	}
	return total
}

// AddSpikeMonitor attaches m to the named group. Monitors of one group are
// called in the order they were added.
func (n *Network) AddSpikeMonitor(name string, m SpikeMonitor) error {
	g, ok := n.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	g.monitors = append(g.monitors, m)
	return nil
}

// AddStateObserver attaches o to the named izhikevich group.
func (n *Network) AddStateObserver(name string, o StateObserver) error {
	g, ok := n.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	if g.kind != KindIzhikevich {
		return fmt.Errorf("%w: group %q has no membrane state", ErrInvalidConfig, name)
	}
	g.observers = append(g.observers, o)
	return nil
}
