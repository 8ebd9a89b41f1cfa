package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/bounce/internal/audio"
	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/experiment"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	frameRate  int
	verbose    bool
	withSound  bool
	backend    string
	engine     string
	sampleN    int
	liveView   bool
	outFile    string
	bodyIndex  int
	crossing   float64
	frameIndex int
	withTrail  bool
	addr       string
	numRuns    int
	perturb    float64
	parallel   int
	themeName  string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bounce"})
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bounce",
		Short:         "elastic balls in a box",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: runWindow,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".bounce", "data directory")
	pf.StringVar(&configFile, "config", "", "scene file (yaml)")
	pf.StringVar(&preset, "preset", "", "built-in scene (see presets)")
	pf.Float64Var(&dt, "dt", 0, "timestep, default one frame")
	pf.Float64Var(&duration, "time", 0, "duration in seconds, default from the scene")
	pf.Int64Var(&seed, "seed", 0, "color seed, default from the scene")
	pf.IntVar(&frameRate, "fps", 0, "frame rate, default from the scene")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&backend, "backend", "raylib", "window backend: raylib or ebiten")
	rootCmd.Flags().BoolVar(&withSound, "sound", false, "play collision sounds")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene headless and store it",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&engine, "engine", experiment.EngineCore, "engine: core or chipmunk")
	runCmd.Flags().IntVar(&sampleN, "sample", 1, "store every n-th frame")
	runCmd.Flags().BoolVar(&liveView, "live", false, "draw the run in the terminal as it goes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot heights and energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file, default stdout")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file, default stdout")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a stored frame or the trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file, default <run_id>.svg")
	svgCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index, negative counts from the end")
	svgCmd.Flags().BoolVar(&withTrail, "trail", false, "draw full trajectories")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "height/velocity phase plot of one ball",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&bodyIndex, "body", 0, "ball index")
	phaseCmd.Flags().Float64Var(&crossing, "poincare", -1, "also plot a Poincaré section at this height")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scene in the terminal",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&themeName, "theme", "neon", "color theme")
	liveCmd.Flags().BoolVar(&withSound, "sound", false, "play collision sounds")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run a scene in a window",
		RunE:  runWindow,
	}
	guiCmd.Flags().StringVar(&backend, "backend", "raylib", "window backend: raylib or ebiten")
	guiCmd.Flags().BoolVar(&withSound, "sound", false, "play collision sounds")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream a scene over websocket",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":3001", "listen address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure steps per second for each engine",
		RunE:  benchScene,
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run perturbed copies of a scene in parallel",
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")
	ensembleCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "velocity jitter in m/s")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs, default all CPUs")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare the core engine against chipmunk",
		RunE:  compareEngines,
	}
	compareCmd.Flags().Float64Var(&perturb, "perturb", 1e-9, "offset for the divergence estimate")

	sweepCmd := &cobra.Command{
		Use:   "sweep [gravity|density|dt|speed]",
		Short: "sweep one scene parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted list of scenes",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, svgCmd,
		analyzeCmd, phaseCmd, liveCmd, guiCmd, serveCmd, presetsCmd, benchCmd, ensembleCmd,
		compareCmd, sweepCmd, scenarioCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

// loadScene resolves --config/--preset and applies the override flags the
// user set explicitly.
func loadScene(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, name, err := experiment.LoadScene(cmd.Context(), preset, configFile)
	if err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	logger.Debug("scene", "name", name, "balls", len(cfg.Balls), "dt", cfg.TimeStep(), "duration", cfg.Duration)
	return cfg, name, nil
}

type soundSink interface {
	Play(events []dynamo.Event)
}

// startSound opens the audio device when --sound is set. Failure to open
// it is logged and the scene runs silently.
func startSound() (soundSink, func()) {
	if !withSound {
		return nil, func() {}
	}
	proc := audio.NewProcessor()
	if err := proc.Start(); err != nil {
		logger.Warn("audio unavailable", "err", err)
		return nil, func() {}
	}
	return proc, proc.Stop
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("  %-8s %d balls, %gx%g m, g=%g\n", name, len(cfg.Balls), cfg.Arena.Width, cfg.Arena.Height, cfg.Arena.Gravity)
	}
	return nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScene(cmd)
	if err != nil {
		return err
	}
	sound, stopSound := startSound()
	defer stopSound()

	switch strings.ToLower(backend) {
	case "raylib", "":
		return runRaylib(name, cfg, sound)
	case "ebiten":
		return runEbiten(name, cfg, sound)
	default:
		return fmt.Errorf("unknown backend: %s", backend)
	}
}
