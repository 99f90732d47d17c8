package sim

import (
	"fmt"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/physics"
)

const DefaultParticles = 200

// State is a simulation run owned by the caller. Particle count, field set
// and parameters are fixed once Initialize returns.
type State struct {
	mode      dynamo.Mode
	params    dynamo.Params
	fields    []dynamo.ForceField
	seed      int64
	particles dynamo.ParticleSet
	stepper   dynamo.Stepper

	frame   int
	elapsed float64

	posView []dynamo.Vec3
	velView []dynamo.Vec3
}

// Initialize validates the configuration and seeds count particles for mode.
func Initialize(count int, fields []dynamo.ForceField, mode dynamo.Mode, params dynamo.Params, seed int64) (*State, error) {
	if err := dynamo.ValidateCount(count); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := dynamo.ValidateFields(fields); err != nil {
		return nil, err
	}

	s := &State{
		mode:   mode,
		params: params,
		fields: append([]dynamo.ForceField(nil), fields...),
		seed:   seed,
	}

	rng := physics.NewRand(seed)
	switch mode {
	case dynamo.ModeHelix:
		s.particles = physics.SeedHelix(count, rng)
		s.stepper = physics.NewHelix(params, s.fields)
		s.stepper.Step(s.particles, 0)
	case dynamo.ModeFlocking:
		s.particles = physics.SeedFlock(count, rng)
		s.stepper = physics.NewFlocking(params, s.fields)
	default:
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownMode, mode)
	}

	return s, nil
}

// Step advances the particle set to elapsed seconds. It never blocks.
func (s *State) Step(elapsed float64) {
	s.stepper.Step(s.particles, elapsed)
	s.elapsed = elapsed
	s.frame++
}

// Positions returns a copy of the current particle positions.
func (s *State) Positions() []dynamo.Vec3 { return s.particles.Positions(nil) }

// Velocities returns a copy of the current particle velocities. Helix
// particles carry no velocity.
func (s *State) Velocities() []dynamo.Vec3 { return s.particles.Velocities(nil) }

// Particles returns a copy of the particle set.
func (s *State) Particles() dynamo.ParticleSet {
	return append(dynamo.ParticleSet(nil), s.particles...)
}

// View returns the current frame backed by buffers reused across calls.
func (s *State) View() dynamo.Frame {
	s.posView = s.particles.Positions(s.posView)
	s.velView = s.particles.Velocities(s.velView)
	return dynamo.Frame{
		Index:      s.frame,
		Elapsed:    s.elapsed,
		Positions:  s.posView,
		Velocities: s.velView,
		Fields:     s.fields,
	}
}

func (s *State) Len() int                { return len(s.particles) }
func (s *State) Mode() dynamo.Mode       { return s.mode }
func (s *State) Params() dynamo.Params   { return s.params }
func (s *State) Seed() int64             { return s.seed }
func (s *State) Frame() int              { return s.frame }
func (s *State) Elapsed() float64        { return s.elapsed }
func (s *State) Valid() bool             { return s.particles.IsValid() }
func (s *State) Stepper() dynamo.Stepper { return s.stepper }

// Fields returns a copy of the force fields.
func (s *State) Fields() []dynamo.ForceField {
	return append([]dynamo.ForceField(nil), s.fields...)
}
