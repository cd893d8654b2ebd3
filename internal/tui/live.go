// Package tui runs a network interactively, one simulated second per tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/config"
	"github.com/san-kum/spikesim/internal/equiv"
	"github.com/san-kum/spikesim/internal/metrics"
	"github.com/san-kum/spikesim/internal/monitor"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/san-kum/spikesim/internal/viz"
	"github.com/sirupsen/logrus"
)

const (
	rasterWidth  = 50
	rasterHeight = 8
	historyWidth = 40
)

var (
	statsStyle = lipgloss.NewStyle().Padding(1, 2)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	activeRow  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type TickMsg time.Time

// lastSecond keeps a copy of the most recent batch for the raster view.
type lastSecond struct {
	events []equiv.SpikeEvent
}

func (l *lastSecond) Update(groupID int, neuronIDs []int, timeCounts []int) {
	l.events = l.events[:0]
	pos := 0
	for t, cnt := range timeCounts {
		for k := 0; k < cnt; k++ {
			l.events = append(l.events, equiv.SpikeEvent{Neuron: neuronIDs[pos], TimeMs: t})
			pos++
		}
	}
}

type watched struct {
	ref    snn.GroupRef
	acc    *monitor.Accumulator
	rate   *metrics.MeanRate
	per    *metrics.PerSecond
	peak   *metrics.PeakBin
	silent *metrics.Silent
	last   *lastSecond
}

// Model is the Bubble Tea model for the live view.
type Model struct {
	name     string
	sim      *snn.Simulator
	groups   []*watched
	selected int
	limit    int
	interval time.Duration
	running  bool
	err      error
}

// NewModel builds a fresh network from cfg. limit stops the run after that
// many seconds; zero runs until quit.
func NewModel(cfg *config.Config, backend compute.Backend, limit int) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spec, err := cfg.Spec()
	if err != nil {
		return nil, err
	}
	net, err := snn.NewNetwork(spec, cfg.Source())
	if err != nil {
		return nil, err
	}

	m := &Model{
		name:     cfg.Name,
		limit:    limit,
		interval: 200 * time.Millisecond,
		running:  true,
	}
	for _, name := range cfg.MonitoredGroups() {
		ref, err := net.Group(name)
		if err != nil {
			return nil, err
		}
		w := &watched{
			ref:    ref,
			acc:    monitor.New(ref.Size),
			rate:   metrics.NewMeanRate(ref.Size),
			per:    metrics.NewPerSecond(),
			peak:   metrics.NewPeakBin(),
			silent: metrics.NewSilent(ref.Size),
			last:   &lastSecond{},
		}
		fan := metrics.Fanout{w.acc, w.rate, w.per, w.peak, w.silent, w.last}
		if err := net.AddSpikeMonitor(name, fan); err != nil {
			return nil, err
		}
		m.groups = append(m.groups, w)
	}
	m.sim = snn.New(net, backend)
	return m, nil
}

func (m *Model) Seconds() int { return m.sim.Now() / monitor.MsPerSecond }

func (m *Model) Err() error { return m.err }

func (m *Model) done() bool { return m.err != nil || (m.limit > 0 && m.Seconds() >= m.limit) }

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return m.tick() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			if len(m.groups) > 0 {
				m.selected = (m.selected + 1) % len(m.groups)
			}
		case "+", "=":
			m.interval = max(m.interval/2, 25*time.Millisecond)
		case "-", "_":
			m.interval = min(m.interval*2, 2*time.Second)
		}
	case TickMsg:
		if m.running && !m.done() {
			m.step()
		}
		if m.done() {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if err := m.sim.Advance(1); err != nil {
		m.err = err
		logrus.Warnf("live: %v", err)
	}
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render(strings.ToUpper(m.name)) + "\n")

	status := viz.Pass.Render("RUNNING")
	switch {
	case m.err != nil:
		status = viz.Fail.Render("ERROR: " + m.err.Error())
	case m.done():
		status = viz.Subtle.Render("DONE")
	case !m.running:
		status = viz.StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	s.WriteString(viz.Metric("time", fmt.Sprintf("%ds", m.Seconds())) + "\n")
	s.WriteString(viz.Metric("backend", m.sim.Backend()) + "\n")
	if m.limit > 0 {
		s.WriteString(viz.Metric("progress", viz.ProgressBar(float64(m.Seconds())/float64(m.limit), 20)) + "\n")
	}
	s.WriteString("\n")

	for i, w := range m.groups {
		line := fmt.Sprintf("%-10s spikes %-8d %6.1f Hz  peak %-3.0f silent %3.0f%%  %s",
			w.ref.Name, w.acc.Total(), w.rate.Value(), w.peak.Value(), 100*w.silent.Value(),
			viz.Sparkline(w.per.History(), historyWidth))
		if i == m.selected {
			s.WriteString(activeRow.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	if len(m.groups) > 0 {
		w := m.groups[m.selected]
		s.WriteString("\n" + viz.Title.Render(w.ref.Name+" raster, last second") + "\n")
		s.WriteString(viz.RenderRaster(w.last.events, w.ref.Size, 0, monitor.MsPerSecond, rasterWidth, rasterHeight))
		if chart := viz.PlotSeries(w.ref.Name+" spikes/s", w.per.History(), 4, historyWidth); chart != "" {
			s.WriteString(graphStyle.Render(chart) + "\n")
		}
	}

	s.WriteString(viz.KeyHint.Render("\nSP:Pause TAB:Group +/-:Speed Q:Quit"))
	return statsStyle.Render(s.String())
}

// Run starts the live view and blocks until the user quits.
func Run(cfg *config.Config, backend compute.Backend, limit int) error {
	m, err := NewModel(cfg, backend, limit)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return m.Err()
}
