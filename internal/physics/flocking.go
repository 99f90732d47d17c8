package physics

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/field"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	separationWeight = 1.5
	alignmentWeight  = 1.0
	cohesionWeight   = 1.0
)

// Steering holds the three neighbor aggregates for one particle, already
// normalized and clamped, before they are combined into the velocity.
type Steering struct {
	Separation dynamo.Vec3
	Alignment  dynamo.Vec3
	Cohesion   dynamo.Vec3

	CountSeparation int
	CountAlignment  int
	CountCohesion   int
}

// Flocking integrates velocity from separation, alignment and cohesion plus
// an upward bias and the force fields. Every frame reads a snapshot of the
// previous frame and commits all particles at once, so the result does not
// depend on iteration order.
type Flocking struct {
	params   dynamo.Params
	fields   []dynamo.ForceField
	MinChunk int

	pos, vel         []dynamo.Vec3
	nextPos, nextVel []dynamo.Vec3

	lastElapsed float64
}

// NewFlocking creates a flocking stepper. fields is copied.
func NewFlocking(p dynamo.Params, fields []dynamo.ForceField) *Flocking {
	return &Flocking{
		params:   p,
		fields:   append([]dynamo.ForceField(nil), fields...),
		MinChunk: 32,
	}
}

func (f *Flocking) Name() string { return string(dynamo.ModeFlocking) }

func (f *Flocking) Params() dynamo.Params { return f.params }

// Steer scans every neighbor of particle i in the given snapshot.
func (f *Flocking) Steer(i int, pos, vel []dynamo.Vec3) Steering {
	var s Steering
	p := pos[i]
	for j := range pos {
		if j == i {
			continue
		}
		diff := r3.Sub(p, pos[j])
		d := dynamo.Length(diff)

		if d < f.params.SeparationDistance && d > 0 {
			// closer neighbors push harder: normalize(diff)/d
			if push := r3.Scale(1/d, dynamo.Normalize(diff)); dynamo.Finite(push) {
				s.Separation = r3.Add(s.Separation, push)
				s.CountSeparation++
			}
		}
		if d < f.params.AlignmentDistance {
			s.Alignment = r3.Add(s.Alignment, vel[j])
			s.CountAlignment++
		}
		if d < f.params.CohesionDistance {
			s.Cohesion = r3.Add(s.Cohesion, pos[j])
			s.CountCohesion++
		}
	}

	if s.CountSeparation > 0 {
		s.Separation = r3.Scale(1/float64(s.CountSeparation), s.Separation)
	}
	if s.CountAlignment > 0 {
		avg := r3.Scale(1/float64(s.CountAlignment), s.Alignment)
		s.Alignment = dynamo.ClampLength(r3.Sub(avg, vel[i]), f.params.MaxForce)
	}
	if s.CountCohesion > 0 {
		center := r3.Scale(1/float64(s.CountCohesion), s.Cohesion)
		s.Cohesion = dynamo.ClampLength(r3.Sub(center, p), f.params.MaxForce)
	}
	return s
}

// Acceleration is the velocity change of particle i over one reference
// frame: weighted steering, upward bias and field impulse.
func (f *Flocking) Acceleration(i int, pos, vel []dynamo.Vec3, elapsed float64) dynamo.Vec3 {
	s := f.Steer(i, pos, vel)
	a := r3.Scale(separationWeight, s.Separation)
	a = r3.Add(a, r3.Scale(alignmentWeight, s.Alignment))
	a = r3.Add(a, r3.Scale(cohesionWeight, s.Cohesion))
	a = r3.Add(a, f.params.UpwardBias)
	return r3.Add(a, field.Sum(pos[i], elapsed, f.fields, field.FlockingCoefficients))
}

// Velocity is the clamped new velocity of particle i after h reference
// frames.
func (f *Flocking) Velocity(i int, pos, vel []dynamo.Vec3, elapsed, h float64) dynamo.Vec3 {
	v := r3.Add(vel[i], r3.Scale(h, f.Acceleration(i, pos, vel, elapsed)))
	return dynamo.ClampLength(v, f.params.MaxSpeed)
}

func (f *Flocking) Step(ps dynamo.ParticleSet, elapsed float64) {
	n := len(ps)
	f.pos = ps.Positions(f.pos)
	f.vel = ps.Velocities(f.vel)
	f.nextPos = grow(f.nextPos, n)
	f.nextVel = grow(f.nextVel, n)

	h := f.frameScale(elapsed)

	dynamo.ParallelFor(n, f.MinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			v := f.Velocity(i, f.pos, f.vel, elapsed, h)
			f.nextVel[i] = v
			f.nextPos[i] = r3.Add(f.pos[i], r3.Scale(h, v))
		}
	})

	for i := range ps {
		ps[i].Position = f.nextPos[i]
		ps[i].Velocity = f.nextVel[i]
	}
}

// frameScale is the integration step in reference frames. It is one unit per
// call unless frame-rate independence is enabled, in which case it is the
// time since the previous call (or since zero) times ReferenceFPS.
func (f *Flocking) frameScale(elapsed float64) float64 {
	defer func() { f.lastElapsed = elapsed }()
	if !f.params.FrameRateIndependent {
		return 1
	}
	h := (elapsed - f.lastElapsed) * f.params.ReferenceFPS
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	return math.Min(h, f.params.MaxFrameScale)
}

func grow(s []dynamo.Vec3, n int) []dynamo.Vec3 {
	if cap(s) < n {
		return make([]dynamo.Vec3, n)
	}
	return s[:n]
}
