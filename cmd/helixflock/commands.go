package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/helixflock/internal/analysis"
	"github.com/san-kum/helixflock/internal/automation"
	"github.com/san-kum/helixflock/internal/config"
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/export"
	"github.com/san-kum/helixflock/internal/metrics"
	"github.com/san-kum/helixflock/internal/sim"
	"github.com/san-kum/helixflock/internal/store"
	"github.com/san-kum/helixflock/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// runFrames drives st through cfg with the default metrics plus any extra
// observers. An interrupt keeps the partial result.
func runFrames(st *sim.State, rc dynamo.RunConfig, observers ...dynamo.Observer) (*dynamo.Result, error) {
	runner := sim.NewRunner()
	for _, m := range metrics.Defaults(st.Mode(), st.Params()) {
		runner.AddMetric(m)
	}
	for _, o := range observers {
		runner.AddObserver(o)
	}

	ctx, stop := interruptible()
	defer stop()

	result, err := runner.Run(ctx, st, rc)
	if errors.Is(err, dynamo.ErrContextCanceled) {
		slog.Warn("interrupted, keeping partial run", "frames", result.Frames)
		return result, nil
	}
	return result, err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}

	slog.Info("running simulation", "mode", st.Mode(), "particles", st.Len(), "duration", cfg.Duration)
	start := time.Now()

	var archived *store.Run
	var observers []dynamo.Observer
	if saveDir != "" {
		archived, err = store.NewRunStore(saveDir).Create(st.Mode(), start)
		if err != nil {
			return fmt.Errorf("creating run archive: %w", err)
		}
		defer func() {
			if err := archived.Abort(); err != nil {
				slog.Warn("removing unfinished run", "dir", archived.Dir(), "err", err)
			}
		}()
		tw, err := archived.Trace(every)
		if err != nil {
			return fmt.Errorf("creating run archive: %w", err)
		}
		observers = append(observers, tw)
	}

	rc := cfg.RunConfig()
	result, err := runFrames(st, rc, observers...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	info := store.RunInfo{
		Mode:      st.Mode(),
		Seed:      st.Seed(),
		Particles: st.Len(),
		Params:    st.Params(),
		Fields:    st.Fields(),
		Final:     analysis.Summarize(st.Positions(), st.Velocities()),
	}
	data := store.NewExportData(info, rc, result, jsonOut)
	if archived != nil {
		if err := archived.Finish(data); err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		slog.Info("run archived", "id", archived.ID, "dir", archived.Dir())
	}
	if runOut != "" {
		if err := store.ExportJSON(runOut, data); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		slog.Info("summary written", "path", runOut)
	}
	if jsonOut {
		return store.WriteJSON(os.Stdout, data)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("frames: %d\n", result.Frames)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	if err := printMetrics(result.Metrics); err != nil {
		return err
	}
	fmt.Println("\nfinal frame:")
	if err := printSummary(info.Final, st.Mode()); err != nil {
		return err
	}

	if h := result.History["perturbed"]; len(h) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(h,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("fraction of particles inside a force field"),
		))
	}
	return nil
}

func printMetrics(m map[string]float64) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, m[name])
	}
	return w.Flush()
}

func printSummary(s analysis.Summary, mode dynamo.Mode) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  centroid\t%.3f %.3f %.3f\n", s.Centroid.X, s.Centroid.Y, s.Centroid.Z)
	fmt.Fprintf(w, "  spread\t%.3f\n", s.Spread)
	fmt.Fprintf(w, "  height\t%.3f .. %.3f\n", s.MinY, s.MaxY)
	if mode == dynamo.ModeFlocking {
		fmt.Fprintf(w, "  polarization\t%.3f\n", s.Polarization)
		fmt.Fprintf(w, "  speed mean/std\t%.4f / %.4f\n", s.MeanSpeed, s.SpeedStdDev)
		fmt.Fprintf(w, "  speed p50/p95/max\t%.4f / %.4f / %.4f\n", s.MedianSpeed, s.P95Speed, s.MaxSpeed)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	factory := func() (*sim.State, error) { return newState(cfg, cfg.Seed) }
	newMetrics := func(st *sim.State) []dynamo.Metric { return metrics.Defaults(st.Mode(), st.Params()) }
	m, err := viz.NewModel(factory, newMetrics, cfg.Dt)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok {
		st := fm.State()
		slog.Info("live view closed", "frames", st.Frame(), "t", st.Elapsed(), "running", fm.Running())
		if err := fm.Err(); err != nil {
			return err
		}
	}
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}

	var dest io.Writer = os.Stdout
	if traceOut != "" {
		f, err := os.Create(traceOut)
		if err != nil {
			return fmt.Errorf("creating trace: %w", err)
		}
		defer f.Close()
		dest = f
	}
	bw := bufio.NewWriter(dest)
	tw := store.NewTraceWriter(bw, every)

	if _, err := runFrames(st, cfg.RunConfig(), tw); err != nil {
		return err
	}
	if err := tw.Err(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	slog.Info("trace written", "rows", tw.Rows(), "every", every, "path", traceOut)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}

	var rec *export.TrailRecorder
	var observers []dynamo.Observer
	if trails > 0 {
		rec = export.NewTrailRecorder(trails)
		observers = append(observers, rec)
	}
	if _, err := runFrames(st, cfg.RunConfig(), observers...); err != nil {
		return err
	}

	cam := viz.NewCamera()
	if ascii {
		c := viz.NewCanvas(80, 30)
		viz.Render(c, cam, st.Positions(), st.Fields(), viz.Scene{ShowFields: true, ShowFloor: true})
		fmt.Print(c.String())
		if !asciiSVG {
			return nil
		}
		if err := os.WriteFile(svgOut, []byte(export.CanvasToSVG(c, 4)), 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		slog.Info("snapshot written", "path", svgOut, "t", st.Elapsed())
		return nil
	}

	svg := export.FrameToSVG(st.Positions(), st.Fields(), cam, svgWidth, svgHeight)
	if rec != nil {
		svg = export.TrailsToSVG(rec.Trails, cam, svgWidth, svgHeight)
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("snapshot written", "path", svgOut, "t", st.Elapsed())
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs < 1 {
		return &dynamo.ConfigError{Field: "runs", Value: runs, Reason: "must be at least 1"}
	}
	mode, err := cfg.ModeValue()
	if err != nil {
		return err
	}
	params := cfg.Params()

	factory := func(s int64) (*sim.State, error) { return newState(cfg, s) }
	newMetrics := func() []dynamo.Metric { return metrics.Defaults(mode, params) }

	ctx, stop := interruptible()
	defer stop()

	slog.Info("running ensemble", "mode", mode, "runs", runs, "first_seed", cfg.Seed)
	start := time.Now()
	results, err := sim.NewEnsemble(factory, newMetrics, runs, cfg.Seed).Run(ctx, cfg.RunConfig())
	if err != nil {
		return err
	}
	fmt.Printf("%d runs completed in %v\n\n", len(results), time.Since(start))

	names := make([]string, 0, len(results[0].Metrics))
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range names {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[name]
		}
		mean, std := vals[0], 0.0
		if len(vals) > 1 {
			mean, std = stat.MeanStdDev(vals, nil)
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", name, mean, std, lo, hi)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, []string{string(dynamo.ModeFlocking)})
	if err != nil {
		return err
	}
	set, err := analysis.ParamSetter(sweepParam)
	if err != nil {
		return err
	}
	st, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	points, err := analysis.Sweep(ctx, analysis.SweepConfig{
		Base:    cfg.Params(),
		Fields:  cfg.ForceFields(),
		Initial: st.Particles(),
		Set:     set,
		Min:     sweepMin,
		Max:     sweepMax,
		Steps:   sweepSteps,
		Dt:      cfg.Dt,
		Frames:  int(cfg.Duration/cfg.Dt + 1e-9),
	})
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s over %d flocks of %d particles\n\n", sweepParam, len(points), cfg.Particles)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tPOLARIZATION\tSPREAD\tMEAN SPEED\tMAX SPEED")
	for _, p := range points {
		s := p.Summary
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", p.Value, s.Polarization, s.Spread, s.MeanSpeed, s.MaxSpeed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(points) > 1 {
		series := analysis.Series(points, func(s analysis.Summary) float64 { return s.Polarization })
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("polarization vs "+sweepParam),
		))
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	st, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}
	a, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}
	b, err := newState(cfg, cfg.Seed)
	if err != nil {
		return err
	}
	axis, err := analysis.ParseAxis(axisName)
	if err != nil {
		return err
	}
	plane, err := analysis.ParsePlane(planeName)
	if err != nil {
		return err
	}

	track := &analysis.Track{Particle: 0, Axis: axis}
	if _, err := runFrames(st, cfg.RunConfig(), track); err != nil {
		return err
	}
	if len(track.Samples) < 2 {
		return fmt.Errorf("not enough frames to analyze: %d", len(track.Samples))
	}

	fmt.Printf("analysis of %s, %d particles, %d frames\n\n", st.Mode(), st.Len(), len(track.Samples))

	power := analysis.PowerSpectrum(track.Samples)
	if n := max(len(power)/4, 2); n <= len(power) {
		fmt.Println(asciigraph.Plot(power[:n],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum of particle 0 "+strings.ToLower(axisName)),
		))
		fmt.Println()
	}

	freq := analysis.DominantFrequency(track.Samples, cfg.Dt)
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1/freq)
	}

	div := analysis.Divergence(a.Stepper(), b.Stepper(), a.Particles(), 1e-6, cfg.Dt, len(track.Samples))
	fmt.Printf("divergence rate: %.4f /s\n", div)

	fmt.Printf("\nfinal positions, %s plane:\n", plane)
	fmt.Print(analysis.ProjectionToASCII(st.Positions(), plane, 60, 20))
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	const (
		frames = 120
		budget = 2 * time.Second
	)
	counts := []int{50, 100, 200, 400, 800}
	rc := dynamo.RunConfig{Dt: cfg.Dt, Duration: frames * cfg.Dt, ValidateState: true}

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("benchmarking %s\n\n", cfg.Mode)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tFRAMES\tTIME\tFRAMES/SEC")

	for _, n := range counts {
		cfg.Particles = n
		st, err := newState(cfg, cfg.Seed)
		if err != nil {
			return err
		}

		// slow counts stop once the budget is spent
		start := time.Now()
		stepped := 0
		err = sim.NewRunner().RunWithCallback(ctx, st, rc, func(dynamo.Frame) bool {
			stepped++
			return time.Since(start) < budget
		})
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n", n, stepped, elapsed.Round(time.Microsecond), float64(stepped)/elapsed.Seconds())
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	mode, err := dynamo.ParseMode(args[0])
	if err != nil {
		return err
	}
	names := config.ListPresets(string(mode))
	if len(names) == 0 {
		fmt.Printf("no presets for mode: %s\n", mode)
		return nil
	}

	fmt.Printf("presets for %s:\n", mode)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		p := config.GetPreset(string(mode), name)
		active := 0
		for _, f := range p.ForceFields() {
			if f.Active() {
				active++
			}
		}
		fmt.Fprintf(w, "  %s\t%d particles\t%d active fields\n", name, p.Particles, active)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = nil
		for _, mode := range dynamo.Modes() {
			if p := config.GetPreset(string(mode), preset); p != nil {
				cfg = p
				break
			}
		}
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}

	ctx, stop := interruptible()
	defer stop()

	results, runErr := automation.RunScenario(ctx, scenario, slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODE\tFRAMES\tMEAN SPEED\tSPREAD\tPOLARIZATION\tERRORS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.3f\t%.3f\t%d\n",
			r.Name, r.Mode, r.Result.Frames, r.Final.MeanSpeed, r.Final.Spread, r.Final.Polarization, len(r.Result.Errors))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store.NewRunStore(runsDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("no runs in %s\n", runsDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tMODE\tPARTICLES\tFRAMES\tMEAN SPEED\tERRORS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%d\n",
			r.ID, r.Timestamp.Format(time.DateTime), r.Mode, r.Particles, r.Frames, r.Final.MeanSpeed, len(r.Errors))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	s := store.NewRunStore(runsDir)
	meta, err := s.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run %s (%s, started %s)\n", meta.ID, meta.Mode, meta.Timestamp.Format(time.DateTime))
	fmt.Printf("particles: %d  seed: %d  dt: %g  frames: %d\n", meta.Particles, meta.Seed, meta.Dt, meta.Frames)
	for _, e := range meta.Errors {
		fmt.Printf("error: %s\n", e)
	}
	fmt.Println("\nmetrics:")
	if err := printMetrics(meta.Metrics); err != nil {
		return err
	}

	rows, err := s.LoadTrace(meta.ID)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	heights := meanHeights(rows)
	fmt.Printf("\ntrace: %d rows over %d frames\n", len(rows), len(heights))
	if len(heights) > 1 {
		fmt.Println(asciigraph.Plot(heights,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("mean particle height per traced frame"),
		))
	}
	return nil
}

// meanHeights averages Y over the rows of each traced frame, in file order.
func meanHeights(rows []store.TraceRow) []float64 {
	var heights []float64
	var sum float64
	count, frame := 0, -1
	for _, r := range rows {
		if r.Frame != frame && count > 0 {
			heights = append(heights, sum/float64(count))
			sum, count = 0, 0
		}
		frame = r.Frame
		sum += r.Y
		count++
	}
	if count > 0 {
		heights = append(heights, sum/float64(count))
	}
	return heights
}
