package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/helixflock/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMode      = "flocking"
	DefaultParticles = 200
	DefaultDt        = 1.0 / 60
	DefaultDuration  = 10.0
	DefaultSeed      = 1
)

type Config struct {
	Mode      string         `yaml:"mode"`
	Particles int            `yaml:"particles"`
	Seed      int64          `yaml:"seed"`
	Dt        float64        `yaml:"dt"`
	Duration  float64        `yaml:"duration"`
	Flocking  FlockingConfig `yaml:"flocking"`
	Helix     HelixConfig    `yaml:"helix"`
	Timing    TimingConfig   `yaml:"timing"`
	Fields    []FieldConfig  `yaml:"fields"`
}

type FlockingConfig struct {
	SeparationDistance float64    `yaml:"separation_distance"`
	AlignmentDistance  float64    `yaml:"alignment_distance"`
	CohesionDistance   float64    `yaml:"cohesion_distance"`
	MaxForce           float64    `yaml:"max_force"`
	MaxSpeed           float64    `yaml:"max_speed"`
	UpwardBias         [3]float64 `yaml:"upward_bias,flow"`
}

type HelixConfig struct {
	BaseRadius    float64 `yaml:"base_radius"`
	VerticalSpeed float64 `yaml:"vertical_speed"`
}

// TimingConfig controls how flocking integration relates to wall time.
type TimingConfig struct {
	FrameRateIndependent bool    `yaml:"frame_rate_independent"`
	ReferenceFPS         float64 `yaml:"reference_fps"`
	MaxFrameScale        float64 `yaml:"max_frame_scale"`
}

type FieldConfig struct {
	Position [3]float64 `yaml:"position,flow"`
	Strength float64    `yaml:"strength"`
	Range    float64    `yaml:"range"`
}

func DefaultConfig() *Config {
	p := dynamo.DefaultParams()
	return &Config{
		Mode:      DefaultMode,
		Particles: DefaultParticles,
		Seed:      DefaultSeed,
		Dt:        DefaultDt,
		Duration:  DefaultDuration,
		Flocking: FlockingConfig{
			SeparationDistance: p.SeparationDistance,
			AlignmentDistance:  p.AlignmentDistance,
			CohesionDistance:   p.CohesionDistance,
			MaxForce:           p.MaxForce,
			MaxSpeed:           p.MaxSpeed,
			UpwardBias:         [3]float64{p.UpwardBias.X, p.UpwardBias.Y, p.UpwardBias.Z},
		},
		Helix: HelixConfig{
			BaseRadius:    p.BaseRadius,
			VerticalSpeed: p.VerticalSpeed,
		},
		Timing: TimingConfig{
			ReferenceFPS:  p.ReferenceFPS,
			MaxFrameScale: p.MaxFrameScale,
		},
		Fields: FromForceFields(dynamo.DefaultFields()),
	}
}

// Load reads a YAML file over the defaults. A fields list in the file
// replaces the default fields entirely.
func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads a YAML file over a copy of base, so keys missing from the
// file keep the values of base. base is not modified.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Fields = append([]FieldConfig(nil), c.Fields...)
	return &out
}

func (c *Config) ModeValue() (dynamo.Mode, error) {
	return dynamo.ParseMode(c.Mode)
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		SeparationDistance:   c.Flocking.SeparationDistance,
		AlignmentDistance:    c.Flocking.AlignmentDistance,
		CohesionDistance:     c.Flocking.CohesionDistance,
		MaxForce:             c.Flocking.MaxForce,
		MaxSpeed:             c.Flocking.MaxSpeed,
		UpwardBias:           vec(c.Flocking.UpwardBias),
		VerticalSpeed:        c.Helix.VerticalSpeed,
		BaseRadius:           c.Helix.BaseRadius,
		FrameRateIndependent: c.Timing.FrameRateIndependent,
		ReferenceFPS:         c.Timing.ReferenceFPS,
		MaxFrameScale:        c.Timing.MaxFrameScale,
	}
}

func (c *Config) ForceFields() []dynamo.ForceField {
	out := make([]dynamo.ForceField, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = dynamo.ForceField{Position: vec(f.Position), Strength: f.Strength, Range: f.Range}
	}
	return out
}

func (c *Config) RunConfig() dynamo.RunConfig {
	rc := dynamo.DefaultRunConfig()
	rc.Dt = c.Dt
	rc.Duration = c.Duration
	return rc
}

// Validate checks everything Initialize and the runner would reject, so a
// bad file fails at load time.
func (c *Config) Validate() error {
	if _, err := c.ModeValue(); err != nil {
		return err
	}
	if err := dynamo.ValidateCount(c.Particles); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if err := dynamo.ValidateFields(c.ForceFields()); err != nil {
		return err
	}
	if !(c.Dt > 0) {
		return &dynamo.ConfigError{Field: "dt", Value: c.Dt, Reason: "must be positive"}
	}
	if !(c.Duration > 0) {
		return &dynamo.ConfigError{Field: "duration", Value: c.Duration, Reason: "must be positive"}
	}
	return nil
}

// IsConfigError reports whether err came from configuration validation.
func IsConfigError(err error) bool {
	return errors.Is(err, dynamo.ErrInvalidConfig) || errors.Is(err, dynamo.ErrUnknownMode)
}

func FromForceFields(fields []dynamo.ForceField) []FieldConfig {
	out := make([]FieldConfig, len(fields))
	for i, f := range fields {
		out[i] = FieldConfig{
			Position: [3]float64{f.Position.X, f.Position.Y, f.Position.Z},
			Strength: f.Strength,
			Range:    f.Range,
		}
	}
	return out
}

func vec(a [3]float64) dynamo.Vec3 {
	return dynamo.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
