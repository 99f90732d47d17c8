package dynamo

import (
	"encoding/json"
	"errors"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Vec3
	}{
		{"axis", Vec3{X: 3}, Vec3{X: 1}},
		{"diagonal", Vec3{X: 3, Y: 4}, Vec3{X: 0.6, Y: 0.8}},
		{"zero", Vec3{}, Vec3{}},
		{"inf", Vec3{X: math.Inf(1)}, Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.v)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("Normalize(%v) = %v, want %v", tt.v, got, tt.want)
			}
			if !Finite(got) {
				t.Errorf("Normalize(%v) produced non-finite %v", tt.v, got)
			}
		})
	}
}

func TestClampLength(t *testing.T) {
	tests := []struct {
		name    string
		v       Vec3
		max     float64
		wantLen float64
	}{
		{"shorter untouched", Vec3{X: 0.01}, 0.03, 0.01},
		{"longer clamped", Vec3{X: 3, Y: 4}, 0.5, 0.5},
		{"exactly max", Vec3{Z: 2}, 2, 2},
		{"zero vector", Vec3{}, 1, 0},
		{"zero max", Vec3{X: 1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampLength(tt.v, tt.max)
			if l := r3.Norm(got); math.Abs(l-tt.wantLen) > 1e-12 {
				t.Errorf("|ClampLength(%v, %v)| = %v, want %v", tt.v, tt.max, l, tt.wantLen)
			}
		})
	}

	// direction is preserved
	got := ClampLength(Vec3{X: 3, Y: 4}, 1)
	if math.Abs(got.X-0.6) > 1e-12 || math.Abs(got.Y-0.8) > 1e-12 {
		t.Errorf("direction changed: %v", got)
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Vec3{}, Vec3{X: 4, Y: 10})
	if math.Abs(d-math.Sqrt(116)) > 1e-12 {
		t.Errorf("Distance = %v, want %v", d, math.Sqrt(116))
	}
}

func TestParticleSet_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		set   ParticleSet
		valid bool
	}{
		{"empty", ParticleSet{}, true},
		{"normal", ParticleSet{{Position: Vec3{X: 1}, Velocity: Vec3{Y: 0.1}}}, true},
		{"NaN position", ParticleSet{{Position: Vec3{X: math.NaN()}}}, false},
		{"Inf velocity", ParticleSet{{Velocity: Vec3{Z: math.Inf(-1)}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.set.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"helix", ModeHelix, true},
		{" Flocking ", ModeFlocking, true},
		{"boids", ModeFlocking, true},
		{"spiral", "", false},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}

	tests := []struct {
		name  string
		mod   func(*Params)
		field string
	}{
		{"negative separation", func(p *Params) { p.SeparationDistance = -1 }, "separation_distance"},
		{"negative cohesion", func(p *Params) { p.CohesionDistance = -0.1 }, "cohesion_distance"},
		{"NaN max speed", func(p *Params) { p.MaxSpeed = math.NaN() }, "max_speed"},
		{"inf bias", func(p *Params) { p.UpwardBias.Y = math.Inf(1) }, "upward_bias"},
		{"zero fps", func(p *Params) { p.FrameRateIndependent = true; p.ReferenceFPS = 0 }, "reference_fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mod(&p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateFields(t *testing.T) {
	if err := ValidateFields(DefaultFields()); err != nil {
		t.Fatalf("default fields rejected: %v", err)
	}
	if err := ValidateFields([]ForceField{{Range: -3}}); err != nil {
		t.Errorf("negative range should be allowed: %v", err)
	}
	err := ValidateFields([]ForceField{{}, {Strength: math.NaN()}})
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "fields[1].strength" {
		t.Errorf("expected fields[1].strength error, got %v", err)
	}
	if err := ValidateCount(-1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected negative count to fail, got %v", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1000} {
		var hits atomic.Int64
		seen := make([]int32, n)
		ParallelFor(n, 16, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
				hits.Add(1)
			}
		})
		if int(hits.Load()) != n {
			t.Errorf("n=%d: visited %d items", n, hits.Load())
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("n=%d: index %d visited %d times", n, i, c)
				break
			}
		}
	}
}

func TestParallelForChunks(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	ParallelFor(1000, 100, func(start, end int) {
		mu.Lock()
		sizes = append(sizes, end-start)
		mu.Unlock()
	})

	if len(sizes) > runtime.GOMAXPROCS(0) || len(sizes) > 10 {
		t.Errorf("expected at most one chunk per worker, got %d", len(sizes))
	}
	small := 0
	for _, n := range sizes {
		if n < 100 {
			small++
		}
	}
	if small > 1 {
		t.Errorf("only the last chunk may be short, got sizes %v", sizes)
	}

	calls := 0
	ParallelFor(10, 16, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("expected inline [0,10), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected one inline call, got %d", calls)
	}
}

func TestParamsJSONUsesConfigNames(t *testing.T) {
	p := DefaultParams()
	p.FrameRateIndependent = true
	raw, err := json.Marshal(struct {
		Params Params       `json:"params"`
		Fields []ForceField `json:"fields"`
	}{p, DefaultFields()})
	if err != nil {
		t.Fatal(err)
	}

	s := string(raw)
	for _, key := range []string{`"separation_distance":1.2`, `"upward_bias":[0,0.005,0]`, `"frame_rate_independent":true`, `"position":[4,10,0]`, `"range":5`} {
		if !strings.Contains(s, key) {
			t.Errorf("missing %s in %s", key, s)
		}
	}
	if strings.Contains(s, "SeparationDistance") || strings.Contains(s, `"X"`) {
		t.Errorf("Go field names leaked into JSON: %s", s)
	}

	var back struct {
		Params Params       `json:"params"`
		Fields []ForceField `json:"fields"`
	}
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Params != p || back.Fields[1] != DefaultFields()[1] {
		t.Errorf("decoded values differ: %+v %+v", back.Params, back.Fields)
	}
}
