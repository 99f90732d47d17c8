package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/helixflock/internal/analysis"
	"github.com/san-kum/helixflock/internal/dynamo"
)

func testFrame(index int) dynamo.Frame {
	return dynamo.Frame{
		Index:      index,
		Elapsed:    float64(index) * 0.5,
		Positions:  []dynamo.Vec3{{X: 1, Y: 2, Z: 3}, {X: -1}},
		Velocities: []dynamo.Vec3{{X: 0.1}, {Y: 0.2}},
	}
}

func TestTraceWriter(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTraceWriter(&buf, 2)

	for i := 1; i <= 5; i++ {
		tw.OnFrame(testFrame(i))
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "frame,t,particle,x,y,z,vx,vy,vz" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 5 {
		t.Errorf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if tw.Rows() != 4 {
		t.Errorf("expected 4 rows written, got %d", tw.Rows())
	}

	rows, err := ReadTrace(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if rows[0].Frame != 2 || rows[0].X != 1 || rows[0].VX != 0.1 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[3].Frame != 4 || rows[3].Particle != 1 || rows[3].VY != 0.2 || rows[3].Time != 2 {
		t.Errorf("unexpected last row %+v", rows[3])
	}
}

func TestTraceWriterHelixHasZeroVelocity(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTraceWriter(&buf, 0)
	f := testFrame(1)
	f.Velocities = nil
	tw.OnFrame(f)

	rows, err := ReadTrace(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].VX != 0 || rows[1].VY != 0 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTraceWriterError(t *testing.T) {
	tw := NewTraceWriter(failWriter{}, 1)
	tw.OnFrame(testFrame(1))
	tw.OnFrame(testFrame(2))
	if tw.Err() == nil || !strings.Contains(tw.Err().Error(), "writing trace") {
		t.Errorf("expected wrapped write error, got %v", tw.Err())
	}
	if tw.Rows() != 0 {
		t.Errorf("expected no rows counted, got %d", tw.Rows())
	}
}

func TestExportJSON(t *testing.T) {
	result := &dynamo.Result{
		Frames:  2,
		Times:   []float64{0.5, 1.0},
		Metrics: map[string]float64{"max_speed": 0.08},
		History: map[string][]float64{"max_speed": {0.07, 0.08}},
		Errors:  []error{dynamo.SimError{Time: 1, Frame: 2, Message: "non-finite"}},
	}
	info := RunInfo{
		Mode:      dynamo.ModeFlocking,
		Seed:      42,
		Particles: 2,
		Params:    dynamo.DefaultParams(),
		Fields:    dynamo.DefaultFields(),
		Final:     analysis.Summarize(testFrame(1).Positions, testFrame(1).Velocities),
	}
	cfg := dynamo.RunConfig{Dt: 0.5, Duration: 1}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, NewExportData(info, cfg, result, false)); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if data.Mode != "flocking" || data.Seed != 42 || data.Frames != 2 {
		t.Errorf("unexpected header %+v", data)
	}
	if data.Metrics["max_speed"] != 0.08 {
		t.Errorf("expected metric 0.08, got %v", data.Metrics["max_speed"])
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"separation_distance":1.2`, `"position":[4,10,0]`, `"centroid":[0,1,1.5]`} {
		if !strings.Contains(compact.String(), key) {
			t.Errorf("expected %s in summary", key)
		}
	}
	if data.Params != dynamo.DefaultParams() || data.Final.Centroid != (dynamo.Vec3{Y: 1, Z: 1.5}) {
		t.Errorf("params or centroid lost: %+v %+v", data.Params, data.Final.Centroid)
	}
	if len(data.Fields) != 3 || data.Final.Count != 2 {
		t.Errorf("fields %d, final count %d", len(data.Fields), data.Final.Count)
	}
	if len(data.Errors) != 1 || data.History != nil {
		t.Errorf("errors %v history %v", data.Errors, data.History)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewExportData(info, cfg, result, true)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"history"`) {
		t.Error("expected history in output")
	}
}

func TestRunStore(t *testing.T) {
	s := NewRunStore(filepath.Join(t.TempDir(), "runs"))

	runs, err := s.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list from missing dir, got %v %v", runs, err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first, err := s.Create(dynamo.ModeFlocking, base.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	tw, err := first.Trace(1)
	if err != nil {
		t.Fatal(err)
	}
	tw.OnFrame(testFrame(1))
	tw.OnFrame(testFrame(2))
	if err := first.Finish(ExportData{Mode: "flocking", Particles: 2, Frames: 2}); err != nil {
		t.Fatal(err)
	}

	second, err := s.Create(dynamo.ModeHelix, base)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Finish(ExportData{Mode: "helix", Particles: 2, Frames: 1}); err != nil {
		t.Fatal(err)
	}

	if err := os.Mkdir(filepath.Join(s.baseDir, "unfinished"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[0].Mode != "helix" {
		t.Errorf("expected oldest run first, got %+v", runs[0])
	}

	rows, err := s.LoadTrace(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[3].Frame != 2 || rows[3].Particle != 1 {
		t.Errorf("unexpected trace rows %+v", rows)
	}

	if _, err := s.LoadTrace(second.ID); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected missing trace, got %v", err)
	}
}

func TestRunAbort(t *testing.T) {
	s := NewRunStore(t.TempDir())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	failed, err := s.Create(dynamo.ModeFlocking, now)
	if err != nil {
		t.Fatal(err)
	}
	tw, err := failed.Trace(1)
	if err != nil {
		t.Fatal(err)
	}
	tw.OnFrame(testFrame(1))
	if err := failed.Abort(); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if _, err := os.Stat(failed.Dir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected run dir removed, got %v", err)
	}

	kept, err := s.Create(dynamo.ModeHelix, now.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kept.Trace(1); err != nil {
		t.Fatal(err)
	}
	if err := kept.Finish(ExportData{Mode: "helix"}); err != nil {
		t.Fatal(err)
	}
	if err := kept.Abort(); err != nil {
		t.Fatalf("abort after finish: %v", err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != kept.ID {
		t.Errorf("expected only the finished run, got %+v", runs)
	}
}
