package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/helixflock/internal/analysis"
	"github.com/san-kum/helixflock/internal/config"
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/metrics"
	"github.com/san-kum/helixflock/internal/sim"
	"github.com/san-kum/helixflock/internal/store"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and applies the
// non-zero overrides. Params keys are flocking parameter names.
type ScenarioStep struct {
	Name      string             `yaml:"name"`
	Mode      string             `yaml:"mode"`
	Preset    string             `yaml:"preset"`
	Particles int                `yaml:"particles"`
	Seed      int64              `yaml:"seed"`
	Duration  float64            `yaml:"duration"`
	Dt        float64            `yaml:"dt"`
	Params    map[string]float64 `yaml:"params"`
	SaveAs    string             `yaml:"save_as"`
}

type StepResult struct {
	Name   string
	Mode   dynamo.Mode
	Result *dynamo.Result
	Final  analysis.Summary
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, &dynamo.ConfigError{Field: "steps", Value: 0, Reason: "scenario has no steps"}
	}
	return &scenario, nil
}

// Config resolves a step into a validated run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Mode != "" {
		m, err := dynamo.ParseMode(s.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = string(m)
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Mode, s.Preset)
		if p == nil {
			return nil, &dynamo.ConfigError{Field: "preset", Value: s.Preset, Reason: "unknown for mode " + cfg.Mode}
		}
		cfg = p
	}

	if s.Particles != 0 {
		cfg.Particles = s.Particles
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Duration != 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}

	p := cfg.Params()
	for name, v := range s.Params {
		set, err := analysis.ParamSetter(name)
		if err != nil {
			return nil, err
		}
		set(&p, v)
	}
	cfg.Flocking.SeparationDistance = p.SeparationDistance
	cfg.Flocking.AlignmentDistance = p.AlignmentDistance
	cfg.Flocking.CohesionDistance = p.CohesionDistance
	cfg.Flocking.MaxForce = p.MaxForce
	cfg.Flocking.MaxSpeed = p.MaxSpeed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes every step in order. It stops at the first failing
// step and returns the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		mode, _ := cfg.ModeValue()

		logger.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "name", name, "mode", mode)

		st, err := sim.Initialize(cfg.Particles, cfg.ForceFields(), mode, cfg.Params(), cfg.Seed)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		runner := sim.NewRunner()
		runner.SetLogger(logger)
		for _, m := range metrics.Defaults(mode, cfg.Params()) {
			runner.AddMetric(m)
		}

		rc := cfg.RunConfig()
		result, err := runner.Run(ctx, st, rc)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}

		sr := StepResult{
			Name:   name,
			Mode:   mode,
			Result: result,
			Final:  analysis.Summarize(st.Positions(), st.Velocities()),
		}
		results = append(results, sr)

		if step.SaveAs != "" {
			info := store.RunInfo{
				Mode:      mode,
				Seed:      cfg.Seed,
				Particles: cfg.Particles,
				Params:    cfg.Params(),
				Fields:    cfg.ForceFields(),
				Final:     sr.Final,
			}
			if err := store.ExportJSON(step.SaveAs, store.NewExportData(info, rc, result, false)); err != nil {
				return results, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
			}
		}
	}

	return results, nil
}
