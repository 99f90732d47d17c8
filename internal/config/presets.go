package config

import (
	"sort"

	"github.com/san-kum/helixflock/internal/field"
)

func preset(mode string, mod func(*Config)) *Config {
	c := DefaultConfig()
	c.Mode = mode
	if mod != nil {
		mod(c)
	}
	return c
}

var Presets = map[string]map[string]*Config{
	"helix": {
		"default": preset("helix", nil),
		"tight": preset("helix", func(c *Config) {
			c.Helix.BaseRadius = 3
			c.Helix.VerticalSpeed = 0.1
		}),
		"calm": preset("helix", func(c *Config) {
			for i := range c.Fields {
				c.Fields[i].Strength = 0
			}
		}),
		"storm": preset("helix", func(c *Config) {
			c.Fields = FromForceFields(field.Scaled(c.ForceFields(), 1.5))
			for i := range c.Fields {
				c.Fields[i].Strength *= 4
			}
		}),
	},
	"flocking": {
		"default": preset("flocking", nil),
		"dense": preset("flocking", func(c *Config) {
			c.Particles = 400
			c.Flocking.SeparationDistance = 0.8
		}),
		"loose": preset("flocking", func(c *Config) {
			c.Flocking.AlignmentDistance = 1.5
			c.Flocking.CohesionDistance = 2.0
		}),
		"calm": preset("flocking", func(c *Config) {
			c.Fields = nil
		}),
		"realtime": preset("flocking", func(c *Config) {
			c.Timing.FrameRateIndependent = true
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(mode, name string) *Config {
	byName, ok := Presets[mode]
	if !ok {
		return nil
	}
	c, ok := byName[name]
	if !ok {
		return nil
	}
	return c.Clone()
}

func ListPresets(mode string) []string {
	byName, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
