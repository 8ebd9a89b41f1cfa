package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bounce/internal/analysis"
	"github.com/san-kum/bounce/internal/automation"
	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/experiment"
	"github.com/san-kum/bounce/internal/sim"
	"github.com/san-kum/bounce/internal/storage"
)

func benchScene(cmd *cobra.Command, args []string) error {
	scenes := config.ListPresets()
	if preset != "" || configFile != "" {
		scenes = nil
	}

	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tENGINE\tBALLS\tSTEPS\tTIME\tSTEPS/SEC")

	bench := func(name string, cfg *config.Config) error {
		for _, eng := range registry.ListEngines() {
			exp := experiment.New(experiment.Config{
				Scene:       name,
				Scenario:    cfg,
				Engine:      eng,
				SampleEvery: math.MaxInt32,
			})
			if err := exp.Setup(registry, nil); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\t%.0f\n",
				name, eng, len(cfg.Balls), result.StepsTaken, elapsed.Round(time.Microsecond),
				float64(result.StepsTaken)/elapsed.Seconds())
		}
		return nil
	}

	if scenes == nil {
		cfg, name, err := loadScene(cmd)
		if err != nil {
			return err
		}
		if err := bench(name, cfg); err != nil {
			return err
		}
		return w.Flush()
	}

	for _, name := range scenes {
		cfg := config.GetPreset(name)
		if cmd.Flags().Changed("time") {
			cfg.Duration = duration
		}
		if err := bench(name, cfg); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}

	logger.Info("ensemble", "scene", scene, "runs", numRuns, "perturb", perturb)
	start := time.Now()
	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Scene:        cfg,
		Perturbation: perturb,
		NumTrials:    numRuns,
		Duration:     cfg.Duration,
		Seed:         cfg.Seed,
		Parallel:     parallel,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tCONTAINED\tDRIFT\tHITS")
	worst := 0.0
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%v\t%.3e\t%d\n", r.TrialID, r.Seed, r.Contained, r.EnergyDrift, r.Collisions)
		worst = math.Max(worst, r.EnergyDrift)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	inside, escaped := automation.MonteCarloStats(results)
	fmt.Printf("\n%d runs in %v: %d contained, %d escaped, worst drift %.3e\n",
		len(results), elapsed, inside, escaped, worst)
	return nil
}

func compareEngines(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	engines := registry.ListEngines()
	results := make([]*sim.Result, len(engines))
	for i, eng := range engines {
		exp := experiment.New(experiment.Config{Scene: scene, Scenario: cfg, Engine: eng})
		if err := exp.Setup(registry, registry.DefaultMetrics(cfg)); err != nil {
			return err
		}
		if results[i], err = exp.Run(cmd.Context()); err != nil {
			return fmt.Errorf("%s: %w", eng, err)
		}
	}

	fmt.Printf("scene: %s, %d balls, %.1fs\n\n", scene, len(cfg.Balls), cfg.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENGINE\tSTEPS\tKE\tDRIFT\t|P|\tBALL HITS\tWALL HITS")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.3e\t%.4f\t%d\t%d\n",
			engines[i], r.StepsTaken, r.Final().KineticEnergy(), r.Metrics["energy_drift"],
			r.Metrics["momentum"], r.BallCollisions, r.WallCollisions)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	steps := sim.StepCount(sim.Config{Dt: cfg.TimeStep(), Duration: cfg.Duration})
	saturate := math.Min(cfg.Arena.Width, cfg.Arena.Height) / 4

	core, err := registry.GetEngine(experiment.EngineCore)
	if err != nil {
		return err
	}
	a, err := core(cfg)
	if err != nil {
		return err
	}
	b, err := core(experiment.Perturb(cfg, cfg.Seed, perturb))
	if err != nil {
		return err
	}
	div, err := analysis.Divergence(a, b, cfg.TimeStep(), steps, saturate)
	if err != nil {
		return err
	}

	fmt.Printf("\nsensitivity to a %.0e m/s nudge: rate %.3f 1/s\n\n", perturb, div.Rate)
	logSep := make([]float64, len(div.Separations))
	for i, s := range div.Separations {
		logSep[i] = math.Log10(math.Max(s, 1e-300))
	}
	fmt.Println(asciigraph.Plot(logSep,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("log10 separation (m)"),
	))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}

	logger.Info("sweep", "scene", scene, "param", args[0], "min", sweepMin, "max", sweepMax, "steps", sweepSteps)
	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Scene:     cfg,
		ParamName: args[0],
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Duration:  cfg.Duration,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tDRIFT\tMIN KE\tMAX KE\tBALL HITS\tWALL HITS\n", args[0])
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.3e\t%.4f\t%.4f\t%d\t%d\n",
			r.ParamValue, r.EnergyDrift, r.MinEnergy, r.MaxEnergy, r.BallCollisions, r.WallCollisions)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENE\tENGINE\tRUN\tSTEPS\tDRIFT")
	for _, r := range results {
		eng := r.Step.Engine
		if eng == "" {
			eng = experiment.EngineCore
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.3e\n",
			r.Step.Name, r.Scene, eng, r.RunID, r.Result.StepsTaken, r.Result.Metrics["energy_drift"])
	}
	return w.Flush()
}
