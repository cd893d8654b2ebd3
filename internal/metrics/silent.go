package metrics

// Silent is the fraction of neurons that have not fired yet.
type Silent struct {
	name  string
	fired []bool
	count int
}

func NewSilent(n int) *Silent {
	return &Silent{name: "silent_fraction", fired: make([]bool, n)}
}

func (s *Silent) Name() string { return s.name }

func (s *Silent) Update(groupID int, neuronIDs []int, timeCounts []int) {
	for _, id := range neuronIDs {
		if id >= 0 && id < len(s.fired) && !s.fired[id] {
			s.fired[id] = true
			s.count++
		}
	}
}

func (s *Silent) Value() float64 {
	if len(s.fired) == 0 {
		return 0
	}
	return 1 - float64(s.count)/float64(len(s.fired))
}

func (s *Silent) Reset() {
	for i := range s.fired {
		s.fired[i] = false
	}
	s.count = 0
}
