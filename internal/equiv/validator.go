package equiv

import (
	"errors"
	"fmt"

	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/san-kum/spikesim/internal/spikegen"
	"github.com/sirupsen/logrus"
)

// Setup is the configuration both runs share.
type Setup struct {
	Spec      snn.Spec
	Seconds   int
	Source    spikegen.Source
	Monitored []string
	Traced    []string
}

// Validator runs one setup on two backends and compares the results.
type Validator struct {
	setup    Setup
	backends [2]compute.Backend
	tol      Tolerance
}

func NewValidator(setup Setup, a, b compute.Backend, tol Tolerance) (*Validator, error) {
	if a == nil || b == nil {
		return nil, errors.New("equiv: two backends are required")
	}
	if setup.Source == nil {
		return nil, errors.New("equiv: spike source is required")
	}
	if setup.Seconds <= 0 {
		return nil, fmt.Errorf("equiv: seconds must be positive, got %d", setup.Seconds)
	}
	if len(setup.Monitored) == 0 {
		return nil, errors.New("equiv: no monitored groups")
	}
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	return &Validator{setup: setup, backends: [2]compute.Backend{a, b}, tol: tol}, nil
}

// Run executes the setup on the first backend, then on the second, and
// compares them. Each run gets its own network and accumulators.
func (v *Validator) Run() (*Report, error) {
	report, _, err := v.RunOutputs()
	return report, err
}

// RunOutputs is Run that also returns both recorded runs, in backend order.
func (v *Validator) RunOutputs() (*Report, [2]*RunOutput, error) {
	var outs [2]*RunOutput
	for i, b := range v.backends {
		out, err := v.Execute(b)
		if err != nil {
			return nil, outs, err
		}
		outs[i] = out
	}

	report, err := Compare(outs[0], outs[1], v.tol)
	if err != nil {
		return nil, outs, err
	}
	if report.Equivalent() {
		logrus.Infof("equiv: %s and %s equivalent over %ds", outs[0].Backend, outs[1].Backend, v.setup.Seconds)
	} else {
		logrus.Warnf("equiv: %s and %s diverge: %s", outs[0].Backend, outs[1].Backend, report.Divergence)
	}
	return report, outs, nil
}

// Execute performs a single run of the setup on backend b.
func (v *Validator) Execute(b compute.Backend) (*RunOutput, error) {
	return Execute(v.setup, b)
}

// Execute builds a fresh network from setup, records the monitored groups and
// runs it on b.
func Execute(setup Setup, b compute.Backend) (*RunOutput, error) {
	net, err := snn.NewNetwork(setup.Spec, setup.Source)
	if err != nil {
		return nil, err
	}

	traced := make(map[string]bool, len(setup.Traced))
	for _, name := range setup.Traced {
		traced[name] = true
	}

	out := &RunOutput{Backend: b.Name()}
	accs := make([]*monitor.Accumulator, 0, len(setup.Monitored))
	for _, name := range setup.Monitored {
		ref, err := net.Group(name)
		if err != nil {
			return nil, err
		}
		acc := monitor.New(ref.Size)
		g := GroupOutput{Ref: ref, Raster: NewRaster()}
		if err := net.AddSpikeMonitor(name, acc); err != nil {
			return nil, err
		}
		if err := net.AddSpikeMonitor(name, g.Raster); err != nil {
			return nil, err
		}
		if traced[name] {
			g.Trace = NewTrace(ref.Size)
			if err := net.AddStateObserver(name, g.Trace); err != nil {
				return nil, err
			}
		}
		out.Groups = append(out.Groups, g)
		accs = append(accs, acc)
	}

	res, err := snn.New(net, b).Run(setup.Seconds)
	if err != nil {
		return nil, err
	}
	out.Result = res
	for i, acc := range accs {
		out.Groups[i].Spikes = acc.Spikes()
		out.Groups[i].Total = acc.Total()
	}
	return out, nil
}
