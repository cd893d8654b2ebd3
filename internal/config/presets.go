package config

import (
	"sort"

	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/equiv"
)

var bothBackends = []string{compute.NameSequential, compute.NameParallel}

var Presets = map[string]*Config{
	"relay": {
		Name: "relay", Seconds: 2, Seed: 1, Backends: bothBackends,
		Stimulus: StimulusConfig{Rate: 50},
		Groups: []GroupConfig{
			{Name: "input", Kind: "generator", Size: 10, Monitor: true},
			{Name: "exc", Kind: "izhikevich", Size: 10, Cell: "rs", Monitor: true},
		},
		Connections: []ConnectionConfig{
			{From: "input", To: "exc", Pattern: "one_to_one", Weight: 20, Delay: 1},
		},
	},
	"balanced": {
		Name: "balanced", Seconds: 5, Seed: 42, Backends: bothBackends, TraceState: true,
		Stimulus: StimulusConfig{Rate: 20},
		Groups: []GroupConfig{
			{Name: "input", Kind: "generator", Size: 50},
			{Name: "exc", Kind: "izhikevich", Size: 800, Cell: "rs", Monitor: true},
			{Name: "inh", Kind: "izhikevich", Size: 200, Cell: "fs", Monitor: true},
		},
		Connections: []ConnectionConfig{
			{From: "input", To: "exc", Pattern: "random", Probability: 0.1, Weight: 8, Delay: 1},
			{From: "exc", To: "exc", Pattern: "random", Probability: 0.02, Weight: 3, Delay: 5},
			{From: "exc", To: "inh", Pattern: "random", Probability: 0.05, Weight: 4, Delay: 2},
			{From: "inh", To: "exc", Pattern: "random", Probability: 0.1, Weight: -6, Delay: 1},
		},
	},
	"feedforward": {
		Name: "feedforward", Seconds: 10, Seed: 7, Backends: bothBackends,
		Tolerance: equiv.Tolerance{MaxCountDelta: 0, MaxStateDrift: 1e-9},
		Stimulus:  StimulusConfig{Rate: 10},
		Groups: []GroupConfig{
			{Name: "input", Kind: "generator", Size: 20, Monitor: true},
			{Name: "exc", Kind: "izhikevich", Size: 100, Cell: "rs", Current: 2, Monitor: true},
		},
		Connections: []ConnectionConfig{
			{From: "input", To: "exc", Pattern: "full", Weight: 1.5, Delay: 3},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
