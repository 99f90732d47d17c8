package dynamo

import (
	"math"
	"strconv"
)

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func nonNegative(field string, v float64) error {
	if !finite(v) {
		return &ConfigError{Field: field, Value: v, Reason: "must be finite"}
	}
	if v < 0 {
		return &ConfigError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return nil
}

// Validate rejects parameters that would make a run degenerate.
func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"separation_distance", p.SeparationDistance},
		{"alignment_distance", p.AlignmentDistance},
		{"cohesion_distance", p.CohesionDistance},
		{"max_force", p.MaxForce},
		{"max_speed", p.MaxSpeed},
		{"vertical_speed", p.VerticalSpeed},
		{"base_radius", p.BaseRadius},
	}
	for _, c := range checks {
		if err := nonNegative(c.name, c.v); err != nil {
			return err
		}
	}
	if !Finite(p.UpwardBias) {
		return &ConfigError{Field: "upward_bias", Value: p.UpwardBias, Reason: "must be finite"}
	}
	if p.FrameRateIndependent {
		if !finite(p.ReferenceFPS) || p.ReferenceFPS <= 0 {
			return &ConfigError{Field: "reference_fps", Value: p.ReferenceFPS, Reason: "must be positive"}
		}
		if !finite(p.MaxFrameScale) || p.MaxFrameScale <= 0 {
			return &ConfigError{Field: "max_frame_scale", Value: p.MaxFrameScale, Reason: "must be positive"}
		}
	}
	return nil
}

// ValidateFields rejects force fields with non-finite parameters. A negative
// or zero range is allowed and simply never reaches a particle.
func ValidateFields(fields []ForceField) error {
	for i, f := range fields {
		if !Finite(f.Position) {
			return &ConfigError{Field: fieldName(i, "position"), Value: f.Position, Reason: "must be finite"}
		}
		if !finite(f.Strength) {
			return &ConfigError{Field: fieldName(i, "strength"), Value: f.Strength, Reason: "must be finite"}
		}
		if !finite(f.Range) {
			return &ConfigError{Field: fieldName(i, "range"), Value: f.Range, Reason: "must be finite"}
		}
	}
	return nil
}

// ValidateCount rejects negative particle counts.
func ValidateCount(n int) error {
	if n < 0 {
		return &ConfigError{Field: "particles", Value: n, Reason: "must not be negative"}
	}
	return nil
}

func fieldName(i int, attr string) string {
	return "fields[" + strconv.Itoa(i) + "]." + attr
}
