package metrics

import (
	"github.com/san-kum/helixflock/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// MaxSpeed tracks the largest particle speed seen over a run.
type MaxSpeed struct {
	peak float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(f dynamo.Frame) {
	for _, v := range f.Velocities {
		if s := dynamo.Length(v); s > m.peak {
			m.peak = s
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.peak }
func (m *MaxSpeed) Reset()         { m.peak = 0 }

// MeanSpeed averages the per-frame mean speed.
type MeanSpeed struct {
	speeds  []float64
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) Observe(f dynamo.Frame) {
	if len(f.Velocities) == 0 {
		return
	}
	m.speeds = Speeds(m.speeds[:0], f.Velocities)
	m.sum += stat.Mean(m.speeds, nil)
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}

// Speeds appends the magnitude of each velocity to dst.
func Speeds(dst []float64, vel []dynamo.Vec3) []float64 {
	for _, v := range vel {
		dst = append(dst, dynamo.Length(v))
	}
	return dst
}
