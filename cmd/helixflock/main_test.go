package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/helixflock/internal/config"
	"github.com/san-kum/helixflock/internal/store"
	"github.com/spf13/cobra"
)

func newSimCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	simFlags(cmd)
	t.Cleanup(func() { simFlags(&cobra.Command{}) })
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("setting --%s: %v", name, err)
		}
	}
	return cmd
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("seed: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newSimCommand(t, map[string]string{"preset": "dense", "config": path})
	cfg, err := loadConfig(cmd, []string{"flocking"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Particles != 400 || cfg.Flocking.SeparationDistance != 0.8 {
		t.Errorf("preset lost under config file: particles %d separation %v",
			cfg.Particles, cfg.Flocking.SeparationDistance)
	}
	if cfg.Seed != 9 {
		t.Errorf("config file seed not applied: %d", cfg.Seed)
	}

	cmd = newSimCommand(t, map[string]string{"preset": "dense", "config": path, "particles": "50"})
	cfg, err = loadConfig(cmd, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Particles != 50 || cfg.Seed != 9 {
		t.Errorf("explicit flag should win: %+v", cfg)
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := newSimCommand(t, map[string]string{"preset": "nope"})
	_, err := loadConfig(cmd, []string{"helix"})
	if !config.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestMeanHeights(t *testing.T) {
	rows := []store.TraceRow{
		{Frame: 2, Particle: 0, Y: 1},
		{Frame: 2, Particle: 1, Y: 3},
		{Frame: 4, Particle: 0, Y: 5},
		{Frame: 4, Particle: 1, Y: 7},
		{Frame: 6, Particle: 0, Y: -1},
	}
	got := meanHeights(rows)
	want := []float64{2, 6, -1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if meanHeights(nil) != nil {
		t.Error("expected nil for no rows")
	}
}
