package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point or displacement in simulation space.
type Vec3 = r3.Vec

// Length returns |v| without intermediate overflow.
func Length(v Vec3) float64 {
	return math.Hypot(v.X, math.Hypot(v.Y, v.Z))
}

// Distance returns |a - b|.
func Distance(a, b Vec3) float64 {
	return Length(r3.Sub(a, b))
}

// Normalize returns the unit vector along v. A zero-length or non-finite
// vector has no direction and yields the zero vector instead of NaN.
func Normalize(v Vec3) Vec3 {
	l := Length(v)
	if l == 0 || math.IsInf(l, 0) || math.IsNaN(l) {
		return Vec3{}
	}
	return r3.Scale(1/l, v)
}

// ClampLength scales v down to length limit when it is longer than limit.
// Shorter vectors are returned unchanged; the result is never amplified.
func ClampLength(v Vec3, limit float64) Vec3 {
	if limit <= 0 {
		return Vec3{}
	}
	l := Length(v)
	if l <= limit {
		return v
	}
	return r3.Scale(limit, Normalize(v))
}

// Finite reports whether every component of v is a finite number.
func Finite(v Vec3) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
