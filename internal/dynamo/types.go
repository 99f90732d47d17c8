package dynamo

import (
	"fmt"
	"strings"
)

// Mode selects the motion model driving a particle set.
type Mode string

const (
	ModeHelix    Mode = "helix"
	ModeFlocking Mode = "flocking"
)

// Modes lists every supported motion model.
func Modes() []Mode { return []Mode{ModeHelix, ModeFlocking} }

// ParseMode resolves a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeHelix:
		return ModeHelix, nil
	case ModeFlocking, "flock", "boids":
		return ModeFlocking, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// HelixPhase holds the per-particle helix parameters. They are assigned once
// when the particle is created and never change.
type HelixPhase struct {
	Phase       float64
	YOffset     float64
	RadiusScale float64
}

type Particle struct {
	Position Vec3
	Velocity Vec3
	Helix    HelixPhase
}

// ParticleSet is the fixed-length population. Index identity is stable for
// the lifetime of a run.
type ParticleSet []Particle

// Positions copies the particle positions into dst (grown if needed).
func (ps ParticleSet) Positions(dst []Vec3) []Vec3 {
	if cap(dst) < len(ps) {
		dst = make([]Vec3, len(ps))
	}
	dst = dst[:len(ps)]
	for i := range ps {
		dst[i] = ps[i].Position
	}
	return dst
}

// Velocities copies the particle velocities into dst (grown if needed).
func (ps ParticleSet) Velocities(dst []Vec3) []Vec3 {
	if cap(dst) < len(ps) {
		dst = make([]Vec3, len(ps))
	}
	dst = dst[:len(ps)]
	for i := range ps {
		dst[i] = ps[i].Velocity
	}
	return dst
}

// IsValid reports whether every position and velocity is finite.
func (ps ParticleSet) IsValid() bool {
	for i := range ps {
		if !Finite(ps[i].Position) || !Finite(ps[i].Velocity) {
			return false
		}
	}
	return true
}

// ForceField is a fixed point source perturbing nearby particles.
// Strength 0 marks an inert field; Range <= 0 never reaches any particle.
type ForceField struct {
	Position Vec3
	Strength float64
	Range    float64
}

// Active reports whether the field can perturb anything at all.
func (f ForceField) Active() bool {
	return f.Strength != 0 && f.Range > 0
}

// DefaultFields is the reference three-field layout; the third field is inert.
func DefaultFields() []ForceField {
	return []ForceField{
		{Position: Vec3{X: 4, Y: 10, Z: 0}, Strength: 1.5, Range: 5},
		{Position: Vec3{X: -3, Y: 15, Z: 2}, Strength: 1.0, Range: 4},
		{Position: Vec3{X: 0, Y: 30, Z: -20}, Strength: 0, Range: 0},
	}
}

// Params are the motion-model parameters shared by both steppers.
type Params struct {
	SeparationDistance float64
	AlignmentDistance  float64
	CohesionDistance   float64
	MaxForce           float64
	MaxSpeed           float64
	UpwardBias         Vec3
	VerticalSpeed      float64
	BaseRadius         float64

	// FrameRateIndependent scales flocking integration by the real frame
	// interval instead of one unit per frame.
	FrameRateIndependent bool
	ReferenceFPS         float64
	MaxFrameScale        float64
}

func DefaultParams() Params {
	return Params{
		SeparationDistance: 1.2,
		AlignmentDistance:  2.5,
		CohesionDistance:   3.5,
		MaxForce:           0.03,
		MaxSpeed:           0.08,
		UpwardBias:         Vec3{X: 0, Y: 0.005, Z: 0},
		VerticalSpeed:      0.05,
		BaseRadius:         6,
		ReferenceFPS:       60,
		MaxFrameScale:      4,
	}
}

// Stepper advances a particle set by one frame at the given elapsed time.
type Stepper interface {
	Name() string
	Step(ps ParticleSet, elapsed float64)
}

// Frame is a read-only view of the particle set after a step. The slices are
// only valid for the duration of the callback that receives them.
type Frame struct {
	Index      int
	Elapsed    float64
	Positions  []Vec3
	Velocities []Vec3
	Fields     []ForceField
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// RunConfig drives the external frame clock.
type RunConfig struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	HistoryEvery  int
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:            1.0 / 60,
		Duration:      10.0,
		ValidateState: true,
		HistoryEvery:  1,
	}
}

type Result struct {
	Frames  int
	Times   []float64
	Metrics map[string]float64
	History map[string][]float64
	Errors  []error
}

type SimError struct {
	Time    float64
	Frame   int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %s", e.Frame, e.Time, e.Message)
}
