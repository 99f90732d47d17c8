// Package field evaluates force-field perturbations on particles.
package field

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Coefficients shape the oscillating field response
// sin(Phase*t + Distance*dist) * Amplitude * strength.
type Coefficients struct {
	Phase     float64
	Distance  float64
	Amplitude float64
}

var (
	// HelixCoefficients perturb positions directly.
	HelixCoefficients = Coefficients{Phase: 3, Distance: 2, Amplitude: 0.05}
	// FlockingCoefficients perturb velocities.
	FlockingCoefficients = Coefficients{Phase: 2, Distance: 3, Amplitude: 0.02}
)

// Evaluate returns the displacement a single field applies at p at time t.
func Evaluate(p dynamo.Vec3, t float64, f dynamo.ForceField, c Coefficients) dynamo.Vec3 {
	if f.Strength == 0 || f.Range <= 0 {
		return dynamo.Vec3{}
	}
	diff := r3.Sub(p, f.Position)
	dist := dynamo.Length(diff)
	if dist >= f.Range || dist == 0 {
		return dynamo.Vec3{}
	}
	mag := math.Sin(c.Phase*t+c.Distance*dist) * c.Amplitude * f.Strength
	return r3.Scale(mag/dist, diff)
}

// Sum accumulates the contribution of every field at p.
func Sum(p dynamo.Vec3, t float64, fields []dynamo.ForceField, c Coefficients) dynamo.Vec3 {
	var total dynamo.Vec3
	for _, f := range fields {
		total = r3.Add(total, Evaluate(p, t, f, c))
	}
	return total
}

// Affects reports whether f is active and p lies strictly inside its range.
func Affects(p dynamo.Vec3, f dynamo.ForceField) bool {
	if !f.Active() {
		return false
	}
	return dynamo.Distance(p, f.Position) < f.Range
}

// CountPerturbed returns how many positions lie within at least one active field.
func CountPerturbed(positions []dynamo.Vec3, fields []dynamo.ForceField) int {
	n := 0
	for _, p := range positions {
		for _, f := range fields {
			if Affects(p, f) {
				n++
				break
			}
		}
	}
	return n
}

// Scaled returns a copy of fields with every range multiplied by k.
func Scaled(fields []dynamo.ForceField, k float64) []dynamo.ForceField {
	out := make([]dynamo.ForceField, len(fields))
	for i, f := range fields {
		f.Range *= k
		out[i] = f
	}
	return out
}
