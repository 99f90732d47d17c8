package physics

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/field"
	"gonum.org/v1/gonum/spatial/r3"
)

// Helix moves every particle along a rising helix driven by elapsed time and
// perturbs it with the force fields. It keeps no per-frame state.
type Helix struct {
	BaseRadius    float64
	VerticalSpeed float64
	Fields        []dynamo.ForceField
	MinChunk      int
}

// NewHelix creates a helix stepper. fields is copied.
func NewHelix(p dynamo.Params, fields []dynamo.ForceField) *Helix {
	return &Helix{
		BaseRadius:    p.BaseRadius,
		VerticalSpeed: p.VerticalSpeed,
		Fields:        append([]dynamo.ForceField(nil), fields...),
		MinChunk:      64,
	}
}

func (h *Helix) Name() string { return string(dynamo.ModeHelix) }

// Base returns the unperturbed helix point for a particle at elapsed.
func (h *Helix) Base(ph dynamo.HelixPhase, elapsed float64) dynamo.Vec3 {
	t := ph.Phase + elapsed
	r := h.BaseRadius * ph.RadiusScale
	return dynamo.Vec3{
		X: r * math.Cos(t),
		Y: t*h.VerticalSpeed + ph.YOffset,
		Z: r * math.Sin(t),
	}
}

// Position returns the helix point plus the summed field perturbation, all
// fields evaluated at the base point.
func (h *Helix) Position(ph dynamo.HelixPhase, elapsed float64) dynamo.Vec3 {
	base := h.Base(ph, elapsed)
	return r3.Add(base, field.Sum(base, elapsed, h.Fields, field.HelixCoefficients))
}

func (h *Helix) Step(ps dynamo.ParticleSet, elapsed float64) {
	dynamo.ParallelFor(len(ps), h.MinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			ps[i].Position = h.Position(ps[i].Helix, elapsed)
		}
	})
}
