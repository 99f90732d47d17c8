package metrics

import "github.com/san-kum/helixflock/internal/dynamo"

// StabilityBound is the distance from the origin beyond which a particle
// counts as escaped.
const StabilityBound = 1e6

// Defaults returns the metric set for a mode. Crowding only applies to
// flocking.
func Defaults(mode dynamo.Mode, p dynamo.Params) []dynamo.Metric {
	ms := []dynamo.Metric{
		NewMaxSpeed(),
		NewMeanSpeed(),
		NewPerturbed(),
		NewStability(StabilityBound),
	}
	if mode == dynamo.ModeFlocking {
		ms = append(ms, NewCrowding(p.SeparationDistance))
	}
	return ms
}
