package equiv

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spikesim/internal/compute"
	"github.com/san-kum/spikesim/internal/snn"
	"github.com/san-kum/spikesim/internal/spikegen"
)

// lossyBackend never runs the kernel for neuron 0 once skipAfter calls have passed.
type lossyBackend struct {
	skipAfter int
	calls     int
}

func (l *lossyBackend) Name() string    { return "lossy" }
func (l *lossyBackend) Available() bool { return true }

func (l *lossyBackend) Update(n int, kernel func(i int)) {
	l.calls++
	for i := 0; i < n; i++ {
		if i == 0 && l.calls > l.skipAfter {
			continue
		}
		kernel(i)
	}
}

func relaySetup() Setup {
	return Setup{
		Spec: snn.Spec{
			Seed: 3,
			Groups: []snn.GroupSpec{
				{Name: "input", Kind: snn.KindGenerator, Size: 30},
				{Name: "exc", Kind: snn.KindIzhikevich, Size: 30, Params: snn.RegularSpiking},
				{Name: "inh", Kind: snn.KindIzhikevich, Size: 20, Params: snn.FastSpiking},
			},
			Connections: []snn.ConnSpec{
				{From: "input", To: "exc", Pattern: snn.PatternOneToOne, Weight: 20, Delay: 1},
				{From: "exc", To: "inh", Pattern: snn.PatternRandom, Probability: 0.3, Weight: 6, Delay: 2},
				{From: "inh", To: "exc", Pattern: snn.PatternRandom, Probability: 0.2, Weight: -3, Delay: 1},
			},
		},
		Seconds:   2,
		Source:    spikegen.NewPeriodic(50),
		Monitored: []string{"input", "exc", "inh"},
		Traced:    []string{"exc", "inh"},
	}
}

var _ = ginkgo.Describe("Validator", func() {
	ginkgo.Context("with sequential and parallel backends", func() {
		ginkgo.It("reports identical spike counts and state traces", func() {
			v, err := NewValidator(relaySetup(), compute.NewSequential(), compute.NewParallel(4), Exact)
			Expect(err).NotTo(HaveOccurred())

			report, err := v.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Equivalent()).To(BeTrue(), report.Summary())
			Expect(report.BackendA).To(Equal(compute.NameSequential))
			Expect(report.BackendB).To(Equal(compute.NameParallel))
			Expect(report.Groups).To(HaveLen(3))
			Expect(report.Groups[0].TotalA).To(Equal(int64(30 * 99)))
			Expect(report.Groups[1].TotalA).To(BeNumerically(">", 0))
			Expect(report.Groups[1].Traced).To(BeTrue())
			Expect(report.Groups[1].MaxStateDrift).To(BeZero())
			for _, g := range report.Groups {
				Expect(g.TotalA).To(Equal(g.TotalB))
				for _, d := range g.Delta {
					Expect(d).To(BeZero())
				}
			}
		})

		ginkgo.It("gives every run its own accumulators", func() {
			v, err := NewValidator(relaySetup(), compute.NewSequential(), compute.NewParallel(2), Exact)
			Expect(err).NotTo(HaveOccurred())

			a, err := v.Execute(compute.NewSequential())
			Expect(err).NotTo(HaveOccurred())
			b, err := v.Execute(compute.NewSequential())
			Expect(err).NotTo(HaveOccurred())

			ga, _ := a.Group("exc")
			gb, _ := b.Group("exc")
			Expect(ga.Spikes).To(Equal(gb.Spikes))
			Expect(&ga.Spikes[0]).NotTo(BeIdenticalTo(&gb.Spikes[0]))
			Expect(a.Result.Totals).To(Equal(b.Result.Totals))
		})
	})

	ginkgo.Context("when one backend drops a neuron update", func() {
		ginkgo.It("names the first diverging state sample", func() {
			v, err := NewValidator(relaySetup(), compute.NewSequential(), &lossyBackend{}, Exact)
			Expect(err).NotTo(HaveOccurred())

			report, err := v.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Equivalent()).To(BeFalse())
			Expect(report.Divergence.Kind).To(Equal(StateDivergence))
			Expect(report.Divergence.Group).To(Equal("exc"))
			Expect(report.Divergence.Neuron).To(Equal(0))
			Expect(report.Divergence.TimeMs).To(Equal(0))
		})

		ginkgo.It("names the first diverging spike count without traces", func() {
			setup := relaySetup()
			setup.Traced = nil
			v, err := NewValidator(setup, compute.NewSequential(), &lossyBackend{}, Exact)
			Expect(err).NotTo(HaveOccurred())

			report, err := v.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Equivalent()).To(BeFalse())
			Expect(report.Divergence.Kind).To(Equal(CountDivergence))
			Expect(report.Divergence.Group).To(Equal("exc"))
			Expect(report.Divergence.Neuron).To(Equal(0))
			Expect(report.Divergence.TimeMs).To(BeNumerically(">", 0))
			Expect(report.Divergence.A).To(Equal(1.0))
			Expect(report.Divergence.B).To(BeZero())
			Expect(report.Groups[0].MaxAbsDelta).To(BeZero())
			Expect(report.MaxAbsDelta()).To(BeNumerically(">", 0))
		})
	})

	ginkgo.Context("construction", func() {
		ginkgo.It("rejects incomplete setups", func() {
			seq := compute.NewSequential()

			_, err := NewValidator(relaySetup(), seq, nil, Exact)
			Expect(err).To(HaveOccurred())

			s := relaySetup()
			s.Seconds = 0
			_, err = NewValidator(s, seq, seq, Exact)
			Expect(err).To(HaveOccurred())

			s = relaySetup()
			s.Monitored = nil
			_, err = NewValidator(s, seq, seq, Exact)
			Expect(err).To(HaveOccurred())

			s = relaySetup()
			s.Source = nil
			_, err = NewValidator(s, seq, seq, Exact)
			Expect(err).To(HaveOccurred())

			_, err = NewValidator(relaySetup(), seq, seq, Tolerance{MaxStateDrift: -1})
			Expect(err).To(HaveOccurred())
		})

		ginkgo.It("surfaces network errors before any run", func() {
			s := relaySetup()
			s.Spec.Groups[1].Size = -4
			v, err := NewValidator(s, compute.NewSequential(), compute.NewParallel(2), Exact)
			Expect(err).NotTo(HaveOccurred())

			_, err = v.Run()
			Expect(err).To(MatchError(snn.ErrInvalidConfig))
		})
	})
})
