package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/helixflock/internal/dynamo"
)

// Runner drives a State with an external frame clock and feeds metrics and
// observers after every frame.
type Runner struct {
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *slog.Logger
}

func NewRunner() *Runner {
	return &Runner{
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    slog.Default(),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Run steps st for cfg.Duration seconds in increments of cfg.Dt, starting
// from the state's current elapsed time.
func (r *Runner) Run(ctx context.Context, st *State, cfg dynamo.RunConfig) (*dynamo.Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	frames := frameCount(cfg)
	result := &dynamo.Result{
		Times:   make([]float64, 0, frames),
		Metrics: make(map[string]float64),
		History: make(map[string][]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	start := st.Elapsed()
	r.logger.Debug("run started",
		"mode", st.Mode(), "particles", st.Len(), "frames", frames, "dt", cfg.Dt)

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			r.collect(result)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := start + float64(i+1)*cfg.Dt
		st.Step(t)

		if cfg.ValidateState && !st.Valid() {
			err := dynamo.SimError{Time: t, Frame: st.Frame(), Message: dynamo.ErrInvalidState.Error()}
			result.Errors = append(result.Errors, err)
			r.logger.Warn("invalid state", "frame", st.Frame(), "t", t)
			break
		}

		frame := st.View()
		for _, m := range r.metrics {
			m.Observe(frame)
		}
		for _, obs := range r.observers {
			obs.OnFrame(frame)
		}

		result.Frames++
		result.Times = append(result.Times, t)

		if cfg.HistoryEvery > 0 && (i+1)%cfg.HistoryEvery == 0 {
			for _, m := range r.metrics {
				result.History[m.Name()] = append(result.History[m.Name()], m.Value())
			}
		}
	}

	r.collect(result)
	r.logger.Debug("run finished", "frames", result.Frames, "elapsed", st.Elapsed())
	return result, nil
}

func (r *Runner) collect(result *dynamo.Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback steps st like Run but hands each frame to callback, which
// stops the run by returning false.
func (r *Runner) RunWithCallback(ctx context.Context, st *State, cfg dynamo.RunConfig, callback func(dynamo.Frame) bool) error {
	if err := validateRunConfig(cfg); err != nil {
		return err
	}

	start := st.Elapsed()
	frames := frameCount(cfg)
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := start + float64(i+1)*cfg.Dt
		st.Step(t)

		if cfg.ValidateState && !st.Valid() {
			return dynamo.SimError{Time: t, Frame: st.Frame(), Message: dynamo.ErrInvalidState.Error()}
		}

		if !callback(st.View()) {
			return nil
		}
	}
	return nil
}

func validateRunConfig(cfg dynamo.RunConfig) error {
	if !(cfg.Dt > 0) {
		return &dynamo.ConfigError{Field: "dt", Value: cfg.Dt, Reason: "must be positive"}
	}
	if !(cfg.Duration > 0) {
		return &dynamo.ConfigError{Field: "duration", Value: cfg.Duration, Reason: "must be positive"}
	}
	if cfg.HistoryEvery < 0 {
		return &dynamo.ConfigError{Field: "history_every", Value: cfg.HistoryEvery, Reason: "must not be negative"}
	}
	return nil
}

// frameCount tolerates durations that are not an exact multiple of dt in
// binary floating point (1.0/0.1 is 9.999...).
func frameCount(cfg dynamo.RunConfig) int {
	return int(cfg.Duration/cfg.Dt + 1e-9)
}
