package metrics

// MeanRate is the average firing rate of a group in Hz.
type MeanRate struct {
	name    string
	n       int
	spikes  int64
	seconds int
}

func NewMeanRate(n int) *MeanRate {
	return &MeanRate{name: "mean_rate", n: n}
}

func (m *MeanRate) Name() string { return m.name }

func (m *MeanRate) Update(groupID int, neuronIDs []int, timeCounts []int) {
	m.spikes += int64(len(neuronIDs))
	m.seconds++
}

func (m *MeanRate) Value() float64 {
	if m.seconds == 0 || m.n == 0 {
		return 0
	}
	return float64(m.spikes) / float64(m.n) / float64(m.seconds)
}

func (m *MeanRate) Reset() {
	m.spikes = 0
	m.seconds = 0
}

// PerSecond keeps the spike count of every simulated second. Value is the
// count of the most recent second.
type PerSecond struct {
	name    string
	history []float64
}

func NewPerSecond() *PerSecond {
	return &PerSecond{name: "spikes_per_second"}
}

func (p *PerSecond) Name() string { return p.name }

func (p *PerSecond) Update(groupID int, neuronIDs []int, timeCounts []int) {
	p.history = append(p.history, float64(len(neuronIDs)))
}

func (p *PerSecond) Value() float64 {
	if len(p.history) == 0 {
		return 0
	}
	return p.history[len(p.history)-1]
}

func (p *PerSecond) History() []float64 { return p.history }

func (p *PerSecond) Reset() { p.history = nil }

// PeakBin is the largest number of spikes the group emitted in a single
// millisecond.
type PeakBin struct {
	name string
	peak int
}

func NewPeakBin() *PeakBin {
	return &PeakBin{name: "peak_bin"}
}

func (p *PeakBin) Name() string { return p.name }

func (p *PeakBin) Update(groupID int, neuronIDs []int, timeCounts []int) {
	for _, c := range timeCounts {
		if c > p.peak {
			p.peak = c
		}
	}
}

func (p *PeakBin) Value() float64 { return float64(p.peak) }

func (p *PeakBin) Reset() { p.peak = 0 }
