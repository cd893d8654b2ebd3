package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/san-kum/spikesim/internal/spikegen"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSeconds = 2
	DefaultSeed    = 42
	DefaultRate    = 50.0
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name        string             `yaml:"name"`
	Seconds     int                `yaml:"seconds"`
	Seed        int64              `yaml:"seed"`
	Backends    []string           `yaml:"backends"`
	Workers     int                `yaml:"workers"`
	TraceState  bool               `yaml:"trace_state"`
	Tolerance   equiv.Tolerance    `yaml:"tolerance"`
	Stimulus    StimulusConfig     `yaml:"stimulus"`
	Groups      []GroupConfig      `yaml:"groups"`
	Connections []ConnectionConfig `yaml:"connections"`
}

type StimulusConfig struct {
	Rate float64 `yaml:"rate"`
}

type GroupConfig struct {
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind"`
	Size    int     `yaml:"size"`
	Cell    string  `yaml:"cell,omitempty"`
	A       float64 `yaml:"a,omitempty"`
	B       float64 `yaml:"b,omitempty"`
	C       float64 `yaml:"c,omitempty"`
	D       float64 `yaml:"d,omitempty"`
	Current float64 `yaml:"current,omitempty"`
	Monitor bool    `yaml:"monitor"`
}

type ConnectionConfig struct {
	From        string  `yaml:"from"`
	To          string  `yaml:"to"`
	Pattern     string  `yaml:"pattern"`
	Probability float64 `yaml:"probability,omitempty"`
	Weight      float64 `yaml:"weight"`
	Delay       int     `yaml:"delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		Seconds:  DefaultSeconds,
		Seed:     DefaultSeed,
		Backends: []string{compute.NameSequential, compute.NameParallel},
		Stimulus: StimulusConfig{Rate: DefaultRate},
		Groups: []GroupConfig{
			{Name: "input", Kind: string(snn.KindGenerator), Size: 10, Monitor: true},
			{Name: "exc", Kind: string(snn.KindIzhikevich), Size: 10, Cell: "rs", Monitor: true},
		},
		Connections: []ConnectionConfig{
			{From: "input", To: "exc", Pattern: string(snn.PatternOneToOne), Weight: 20, Delay: 1},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	// groups and connections from the document replace the defaults wholesale
	cfg.Groups, cfg.Connections = nil, nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if len(cfg.Groups) == 0 {
		def := DefaultConfig()
		cfg.Groups, cfg.Connections = def.Groups, def.Connections
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) YAML() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}

// Clone returns a deep copy so presets can be overridden safely.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Backends = append([]string(nil), c.Backends...)
	cp.Groups = append([]GroupConfig(nil), c.Groups...)
	cp.Connections = append([]ConnectionConfig(nil), c.Connections...)
	return &cp
}

// Validate checks everything needed before a run starts, including that the
// network itself can be built.
func (c *Config) Validate() error {
	if c.Seconds <= 0 {
		return fmt.Errorf("%w: seconds must be positive, got %d", ErrInvalid, c.Seconds)
	}
	if !(c.Stimulus.Rate > 0) || c.Stimulus.Rate > spikegen.MaxRate {
		return fmt.Errorf("%w: stimulus rate must be in (0, %v], got %v", ErrInvalid, spikegen.MaxRate, c.Stimulus.Rate)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, c.Workers)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("%w: no backends", ErrInvalid)
	}
	for _, name := range c.Backends {
		if _, err := compute.Lookup(name, c.Workers); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if err := c.Tolerance.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	spec, err := c.Spec()
	if err != nil {
		return err
	}
	probe := spikegen.SourceFunc(func(_, _, cur int) int { return cur + 1 })
	if _, err := snn.NewNetwork(spec, probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Spec converts the group and connection sections into a network spec.
func (c *Config) Spec() (snn.Spec, error) {
	spec := snn.Spec{Seed: c.Seed}
	for _, g := range c.Groups {
		params, err := g.params()
		if err != nil {
			return snn.Spec{}, err
		}
		spec.Groups = append(spec.Groups, snn.GroupSpec{
			Name:    g.Name,
			Kind:    snn.GroupKind(g.Kind),
			Size:    g.Size,
			Params:  params,
			Current: g.Current,
		})
	}
	for _, cc := range c.Connections {
		spec.Connections = append(spec.Connections, snn.ConnSpec{
			From:        cc.From,
			To:          cc.To,
			Pattern:     snn.Pattern(cc.Pattern),
			Probability: cc.Probability,
			Weight:      cc.Weight,
			Delay:       cc.Delay,
		})
	}
	return spec, nil
}

func (g GroupConfig) params() (snn.Izhikevich, error) {
	if g.Kind != string(snn.KindIzhikevich) {
		return snn.Izhikevich{}, nil
	}
	switch g.Cell {
	case "", "rs":
		return snn.RegularSpiking, nil
	case "fs":
		return snn.FastSpiking, nil
	case "custom":
		return snn.Izhikevich{A: g.A, B: g.B, C: g.C, D: g.D}, nil
	default:
		return snn.Izhikevich{}, fmt.Errorf("%w: group %q: unknown cell type %q", ErrInvalid, g.Name, g.Cell)
	}
}

// Source returns the periodic stimulus. Call Validate first; an invalid rate panics.
func (c *Config) Source() *spikegen.Periodic {
	return spikegen.NewPeriodic(c.Stimulus.Rate)
}

// MonitoredGroups lists the groups flagged with monitor, or every group if none is.
func (c *Config) MonitoredGroups() []string {
	var names []string
	for _, g := range c.Groups {
		if g.Monitor {
			names = append(names, g.Name)
		}
	}
	if len(names) == 0 {
		for _, g := range c.Groups {
			names = append(names, g.Name)
		}
	}
	return names
}

// TracedGroups lists the monitored izhikevich groups when trace_state is set.
func (c *Config) TracedGroups() []string {
	if !c.TraceState {
		return nil
	}
	monitored := make(map[string]bool)
	for _, name := range c.MonitoredGroups() {
		monitored[name] = true
	}
	var names []string
	for _, g := range c.Groups {
		if g.Kind == string(snn.KindIzhikevich) && monitored[g.Name] {
			names = append(names, g.Name)
		}
	}
	return names
}

// Validator builds an equivalence validator over the two configured backends.
func (c *Config) Validator() (*equiv.Validator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(c.Backends) != 2 {
		return nil, fmt.Errorf("%w: comparison needs exactly 2 backends, got %d", ErrInvalid, len(c.Backends))
	}
	a, err := compute.Lookup(c.Backends[0], c.Workers)
	if err != nil {
		return nil, err
	}
	b, err := compute.Lookup(c.Backends[1], c.Workers)
	if err != nil {
		return nil, err
	}
	setup, err := c.Setup()
	if err != nil {
		return nil, err
	}
	return equiv.NewValidator(setup, a, b, c.Tolerance)
}

// Setup validates the config and returns what a single run needs.
func (c *Config) Setup() (equiv.Setup, error) {
	if err := c.Validate(); err != nil {
		return equiv.Setup{}, err
	}
	spec, err := c.Spec()
	if err != nil {
		return equiv.Setup{}, err
	}
	return equiv.Setup{
		Spec:      spec,
		Seconds:   c.Seconds,
		Source:    c.Source(),
		Monitored: c.MonitoredGroups(),
		Traced:    c.TracedGroups(),
	}, nil
}
