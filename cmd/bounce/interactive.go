package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/ebitenview"
	"github.com/san-kum/bounce/internal/gui"
	"github.com/san-kum/bounce/internal/layout"
	"github.com/san-kum/bounce/internal/server"
	"github.com/san-kum/bounce/internal/viz"
)

func runRaylib(scene string, cfg *config.Config, sound soundSink) error {
	logger.Debug("opening window", "backend", "raylib", "scene", scene)
	return gui.Run(scene, cfg, sound)
}

func runEbiten(scene string, cfg *config.Config, sound soundSink) error {
	logger.Debug("opening window", "backend", "ebiten", "scene", scene)
	return ebitenview.Run(scene, cfg, sound)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}
	sound, stopSound := startSound()
	defer stopSound()

	opts := []viz.Option{viz.WithSound(sound), viz.WithTheme(themeName)}
	if configFile != "" {
		reload, stop, err := watchScene(cmd.Context(), configFile)
		if err != nil {
			logger.Warn("not watching scene file", "err", err)
		} else {
			defer stop()
			opts = append(opts, viz.WithReload(reload))
		}
	}

	return viz.Run(scene, cfg, opts...)
}

// watchScene forwards every valid edit of path, with its layout script
// applied, until ctx ends or stop is called.
func watchScene(ctx context.Context, path string) (<-chan *config.Config, func(), error) {
	w, err := config.Watch(path)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan *config.Config, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("scene reload failed", "file", path, "err", err)
			case cfg, ok := <-w.Configs:
				if !ok {
					return
				}
				if err := layout.Apply(ctx, cfg, filepath.Dir(path)); err != nil {
					logger.Warn("layout script failed", "file", path, "err", err)
					continue
				}
				logger.Info("scene reloaded", "file", path, "balls", len(cfg.Balls))
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	stop := func() {
		cancel()
		w.Close()
	}
	return out, stop, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(scene, cfg, logger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(cmd.Context(), addr)
}
