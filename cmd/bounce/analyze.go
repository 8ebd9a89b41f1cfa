package main

import (
	"fmt"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bounce/internal/analysis"
	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/export"
	"github.com/san-kum/bounce/internal/render"
)

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, frames, err := loadRun(runID)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Arena = meta.Arena
	view := render.NewViewport(cfg.ArenaSpec(), cfg.Render.PixelsPerMeter)
	style := render.StyleFromConfig(cfg)

	var doc string
	if withTrail {
		doc = export.TrajectorySVG(frames, view, style)
	} else {
		idx := frameIndex
		if idx < 0 {
			idx += len(frames)
		}
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d)", frameIndex, len(frames))
		}
		doc = export.FrameSVG(frames[idx], view, style)
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return err
	}
	logger.Info("wrote svg", "file", path)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}

	interval := sampleInterval(meta, frames)
	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d every %.4fs\n\n", len(frames), interval)

	ps := analysis.PowerSpectrum(analysis.HeightSeries(frames, 0))
	if len(ps) > 4 {
		fmt.Println(asciigraph.Plot(ps[:len(ps)/4],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (ball 0 height)"),
		))
		fmt.Println()
	}

	for body := range frames[0].Bodies {
		freq := analysis.DominantFrequency(analysis.HeightSeries(frames, body), interval)
		if freq > 0 {
			fmt.Printf("ball %d: %.3f hz, period %.3f s\n", body, freq, 1/freq)
		} else {
			fmt.Printf("ball %d: no dominant frequency\n", body)
		}
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if bodyIndex < 0 || bodyIndex >= len(frames[0].Bodies) {
		return fmt.Errorf("ball %d out of range (run has %d)", bodyIndex, len(frames[0].Bodies))
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("ball %d, x-axis: height, y-axis: vertical velocity\n\n", bodyIndex)
	fmt.Println(analysis.NewPhasePortrait(frames, bodyIndex).ASCII(80, 24))

	if crossing >= 0 {
		section := analysis.NewPoincareSection(frames, bodyIndex, crossing)
		fmt.Printf("\npoincaré section at y=%.3f m, x vs vx (%d crossings)\n\n", crossing, len(section.Points))
		fmt.Println(section.ASCII(60, 20))
	}
	return nil
}
