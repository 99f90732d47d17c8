package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/helixflock/internal/config"
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/sim"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	particles  int
	seed       int64
	dt         float64
	duration   float64
	logLevel   string
	logJSON    bool
	jsonOut    bool
	runOut     string
	traceOut   string
	svgOut     string
	every      int
	runs       int
	trails     int
	ascii      bool
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	svgWidth   int
	svgHeight  int
	saveDir    string
	runsDir    string
	asciiSVG   bool
	axisName   string
	planeName  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "helixflock",
		Short:         "helix and flocking particle simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel, logJSON)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [helix|flocking]",
		Short: "run a headless simulation and print metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print a JSON summary instead of a table")
	runCmd.Flags().StringVar(&runOut, "out", "", "also write the JSON summary to a file")
	runCmd.Flags().StringVar(&saveDir, "save-dir", "", "archive the run with its trace under this directory")
	runCmd.Flags().IntVar(&every, "every", 1, "trace every n-th frame when archiving")

	liveCmd := &cobra.Command{
		Use:   "live [helix|flocking]",
		Short: "terminal preview stepped at 60 frames per second",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	simFlags(liveCmd)

	traceCmd := &cobra.Command{
		Use:   "trace [helix|flocking]",
		Short: "write a CSV trace of every particle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrace,
	}
	simFlags(traceCmd)
	traceCmd.Flags().StringVar(&traceOut, "out", "", "output file (default stdout)")
	traceCmd.Flags().IntVar(&every, "every", 1, "write every n-th frame")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [helix|flocking]",
		Short: "render the particles after --time seconds as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSnapshot,
	}
	simFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&svgOut, "out", "snapshot.svg", "output file")
	snapshotCmd.Flags().IntVar(&trails, "trails", 0, "draw the paths of the first n particles instead")
	snapshotCmd.Flags().BoolVar(&ascii, "ascii", false, "print a braille rendering instead of writing SVG")
	snapshotCmd.Flags().BoolVar(&asciiSVG, "svg", false, "with --ascii, also write the braille rendering to --out as SVG")
	snapshotCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	snapshotCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [helix|flocking]",
		Short: "run several seeds concurrently and aggregate metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	simFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of seeds")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep a flocking parameter and summarize the final frame",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "cohesion_distance", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 6, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 12, "number of values")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [helix|flocking]",
		Short: "periodicity and divergence of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze,
	}
	simFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&axisName, "axis", "x", "coordinate to track (x, y, z)")
	analyzeCmd.Flags().StringVar(&planeName, "plane", "xz", "plane of the final position plot (xy, xz, zy)")

	benchCmd := &cobra.Command{
		Use:   "bench [helix|flocking]",
		Short: "measure frames per second across particle counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [helix|flocking]",
		Short: "list available presets for a mode",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations from YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	runsCmd.PersistentFlags().StringVar(&runsDir, "dir", "runs", "archive directory")
	runsCmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "summarize an archived run and its trace",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	})

	rootCmd.AddCommand(runsCmd, runCmd, liveCmd, traceCmd, snapshotCmd, ensembleCmd, sweepCmd, analyzeCmd, benchCmd, presetsCmd, initCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		if config.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// simFlags registers the flags shared by every command that builds a
// simulation. Explicit flags override the config file and preset.
func simFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&particles, "particles", config.DefaultParticles, "particle count")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "seconds per frame")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
}

func setupLogger(level string, asJSON bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig resolves defaults, then preset, then config file, then explicit
// flags. A mode argument overrides the mode from any source.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	mode := ""
	if len(args) > 0 {
		m, err := dynamo.ParseMode(args[0])
		if err != nil {
			return nil, err
		}
		mode = string(m)
	}

	if preset != "" {
		presetMode := mode
		if presetMode == "" {
			presetMode = cfg.Mode
		}
		p := config.GetPreset(presetMode, preset)
		if p == nil {
			return nil, &dynamo.ConfigError{
				Field:  "preset",
				Value:  preset,
				Reason: "available for " + presetMode + ": " + strings.Join(config.ListPresets(presetMode), ", "),
			}
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if mode != "" {
		cfg.Mode = mode
	}
	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("config resolved",
		"mode", cfg.Mode,
		"particles", cfg.Particles,
		"seed", cfg.Seed,
		"dt", cfg.Dt,
		"duration", cfg.Duration,
		"fields", len(cfg.Fields),
	)
	return cfg, nil
}

func newState(cfg *config.Config, seed int64) (*sim.State, error) {
	mode, err := cfg.ModeValue()
	if err != nil {
		return nil, err
	}
	return sim.Initialize(cfg.Particles, cfg.ForceFields(), mode, cfg.Params(), seed)
}
