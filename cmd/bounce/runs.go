package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/experiment"
	"github.com/san-kum/bounce/internal/storage"
	"github.com/san-kum/bounce/internal/tui"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(experiment.Config{
		Scene:       scene,
		Scenario:    cfg,
		Engine:      engine,
		SampleEvery: sampleN,
	})

	var observers []dynamo.Observer
	var live *tui.LiveRenderer
	if liveView {
		live = tui.NewLiveRenderer(os.Stdout, scene, cfg.ArenaSpec(), cfg.FPS)
		observers = append(observers, live)
	}
	if err := exp.Setup(registry, registry.DefaultMetrics(cfg), observers...); err != nil {
		return err
	}

	logger.Info("running", "scene", scene, "engine", engine, "balls", len(cfg.Balls), "duration", cfg.Duration)
	if live != nil {
		live.Start()
	}
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	elapsed := time.Since(start)
	if live != nil {
		live.Stop()
	}
	if err != nil {
		return err
	}

	runID, err := st.Save(scene, cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%d stored)\n", result.StepsTaken, len(result.Frames))
	fmt.Printf("collisions: %d ball, %d wall\n", result.BallCollisions, result.WallCollisions)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tBALLS\tHITS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			len(run.Bodies),
			run.BallCollisions+run.WallCollisions,
		)
	}

	return w.Flush()
}

// loadRun returns the metadata and frames of a stored run.
func loadRun(runID string) (*storage.RunMetadata, []dynamo.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("run %s: no data", runID)
	}
	return meta, frames, nil
}

// sampleInterval is the time between stored frames.
func sampleInterval(meta *storage.RunMetadata, frames []dynamo.Frame) float64 {
	if len(frames) > 1 {
		if d := frames[1].Time - frames[0].Time; d > 0 {
			return d
		}
	}
	return meta.Dt
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(frames))

	energy := make([]float64, len(frames))
	for i, f := range frames {
		energy[i] = f.KineticEnergy()
	}
	fmt.Println(asciigraph.Plot(energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy (J)"),
	))
	fmt.Println()

	const maxPlots = 4
	n := len(frames[0].Bodies)
	if n > maxPlots {
		n = maxPlots
	}
	for body := 0; body < n; body++ {
		heights := make([]float64, len(frames))
		for i, f := range frames {
			if body < len(f.Bodies) {
				heights[i] = f.Bodies[body].Pos.Y
			}
		}
		fmt.Println(asciigraph.Plot(heights,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("ball %d height (m)", body)),
		))
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportCSV(args[0], os.Stdout)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := st.ExportCSV(args[0], f); err != nil {
		return err
	}
	logger.Info("exported", "run", args[0], "file", outFile)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		if err := st.ExportJSON(args[0], outFile); err != nil {
			return err
		}
		logger.Info("exported", "run", args[0], "file", outFile)
		return nil
	}

	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, storage.NewExportData(*meta, frames))
}
