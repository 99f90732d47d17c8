package analysis

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/physics"
	"golang.org/x/sync/errgroup"
)

// Setter writes a swept value into a parameter set.
type Setter func(p *dynamo.Params, v float64)

var setters = map[string]Setter{
	"separation_distance": func(p *dynamo.Params, v float64) { p.SeparationDistance = v },
	"alignment_distance":  func(p *dynamo.Params, v float64) { p.AlignmentDistance = v },
	"cohesion_distance":   func(p *dynamo.Params, v float64) { p.CohesionDistance = v },
	"max_force":           func(p *dynamo.Params, v float64) { p.MaxForce = v },
	"max_speed":           func(p *dynamo.Params, v float64) { p.MaxSpeed = v },
}

// ParamSetter looks up a flocking parameter by its config name.
func ParamSetter(name string) (Setter, error) {
	s, ok := setters[name]
	if !ok {
		return nil, &dynamo.ConfigError{Field: "param", Value: name, Reason: "not sweepable"}
	}
	return s, nil
}

type SweepPoint struct {
	Value   float64 `json:"value"`
	Summary Summary `json:"summary"`
}

// SweepConfig describes a flocking sweep. Every value starts from a copy of
// Initial and runs Frames steps of Dt.
type SweepConfig struct {
	Base    dynamo.Params
	Fields  []dynamo.ForceField
	Initial dynamo.ParticleSet
	Set     Setter
	Min     float64
	Max     float64
	Steps   int
	Dt      float64
	Frames  int
}

// Sweep runs one flock per parameter value in parallel and summarizes the
// final frame of each.
func Sweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if cfg.Steps < 1 {
		return nil, &dynamo.ConfigError{Field: "steps", Value: cfg.Steps, Reason: "must be at least 1"}
	}
	if !(cfg.Dt > 0) {
		return nil, &dynamo.ConfigError{Field: "dt", Value: cfg.Dt, Reason: "must be positive"}
	}

	step := 0.0
	if cfg.Steps > 1 {
		step = (cfg.Max - cfg.Min) / float64(cfg.Steps-1)
	}

	points := make([]SweepPoint, cfg.Steps)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range points {
		v := cfg.Min + float64(i)*step
		g.Go(func() error {
			p := cfg.Base
			cfg.Set(&p, v)
			if err := p.Validate(); err != nil {
				return fmt.Errorf("value %g: %w", v, err)
			}

			ps := append(dynamo.ParticleSet(nil), cfg.Initial...)
			f := physics.NewFlocking(p, cfg.Fields)
			for k := 1; k <= cfg.Frames; k++ {
				if k%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				f.Step(ps, float64(k)*cfg.Dt)
			}
			points[i] = SweepPoint{
				Value:   v,
				Summary: Summarize(ps.Positions(nil), ps.Velocities(nil)),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Series extracts one summary statistic across a sweep.
func Series(points []SweepPoint, pick func(Summary) float64) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = pick(p.Summary)
	}
	return out
}
