package analysis

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
)

// Divergence estimates how fast two copies of a run separate after the
// first particle is displaced by perturbation along x. Both steppers must be
// fresh instances of the same kind. The result is the mean log growth rate
// of the RMS position difference per unit time, renormalized whenever the
// separation exceeds 1. Steppers that overwrite positions from closed form
// report 0.
func Divergence(a, b dynamo.Stepper, initial dynamo.ParticleSet, perturbation, dt float64, frames int) float64 {
	if len(initial) == 0 || perturbation <= 0 || dt <= 0 {
		return 0
	}

	x := append(dynamo.ParticleSet(nil), initial...)
	xp := append(dynamo.ParticleSet(nil), initial...)
	xp[0].Position.X += perturbation
	d0 := perturbation

	sumLog := 0.0
	count := 0
	for k := 1; k <= frames; k++ {
		t := float64(k) * dt
		a.Step(x, t)
		b.Step(xp, t)

		sep := separation(x, xp)
		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++
		}

		if sep > 1.0 {
			scale := d0 / sep
			for i := range xp {
				xp[i].Position.X = x[i].Position.X + (xp[i].Position.X-x[i].Position.X)*scale
				xp[i].Position.Y = x[i].Position.Y + (xp[i].Position.Y-x[i].Position.Y)*scale
				xp[i].Position.Z = x[i].Position.Z + (xp[i].Position.Z-x[i].Position.Z)*scale
			}
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}

func separation(a, b dynamo.ParticleSet) float64 {
	sq := 0.0
	for i := range a {
		d := dynamo.Distance(a[i].Position, b[i].Position)
		sq += d * d
	}
	return math.Sqrt(sq)
}
