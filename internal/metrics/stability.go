package metrics

import (
	"github.com/san-kum/helixflock/internal/dynamo"
)

// Stability is the fraction of frames in which every particle is finite
// and within threshold of the origin.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(f dynamo.Frame) {
	s.samples++
	for i, p := range f.Positions {
		if !dynamo.Finite(p) || dynamo.Length(p) > s.threshold {
			s.violations++
			return
		}
		if i < len(f.Velocities) && !dynamo.Finite(f.Velocities[i]) {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
