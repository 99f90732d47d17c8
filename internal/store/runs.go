package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/helixflock/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

// RunStore keeps one directory per run holding a metadata.json summary and
// an optional trace.csv.
type RunStore struct {
	baseDir string
}

func NewRunStore(baseDir string) *RunStore {
	return &RunStore{baseDir: baseDir}
}

func (s *RunStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ExportData
}

// Run is a run directory being written.
type Run struct {
	ID      string
	dir     string
	started time.Time
	trace   *TraceWriter
	done    bool
}

func (s *RunStore) Create(mode dynamo.Mode, now time.Time) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s_%d", mode, now.UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, err
	}
	return &Run{ID: id, dir: dir, started: now}, nil
}

type bufferedFile struct {
	*bufio.Writer
	f *os.File
}

func (b bufferedFile) Close() error {
	if err := b.Flush(); err != nil {
		b.f.Close()
		return err
	}
	return b.f.Close()
}

// Trace opens trace.csv and returns an observer writing to it. Finish
// closes it.
func (r *Run) Trace(every int) (*TraceWriter, error) {
	if r.trace != nil {
		return r.trace, nil
	}
	f, err := os.Create(filepath.Join(r.dir, traceFile))
	if err != nil {
		return nil, err
	}
	r.trace = NewTraceWriter(bufferedFile{Writer: bufio.NewWriter(f), f: f}, every)
	return r.trace, nil
}

// Finish closes the trace and writes the summary.
func (r *Run) Finish(data ExportData) error {
	if r.trace != nil {
		if err := r.trace.Close(); err != nil {
			return err
		}
		r.trace = nil
	}
	meta := RunMetadata{ID: r.ID, Timestamp: r.started, ExportData: data}

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	r.done = true
	return nil
}

// Abort closes the trace and removes the run directory, so an unfinished
// run never shows up in List. It does nothing after a successful Finish.
func (r *Run) Abort() error {
	if r.done {
		return nil
	}
	if r.trace != nil {
		r.trace.Close()
		r.trace = nil
	}
	return os.RemoveAll(r.dir)
}

func (r *Run) Dir() string { return r.dir }

// List returns every finished run, oldest first. Directories without a
// readable metadata.json are skipped.
func (s *RunStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *RunStore) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *RunStore) LoadTrace(runID string) ([]TraceRow, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f)
}
