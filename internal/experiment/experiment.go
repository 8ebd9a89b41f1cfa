// Package experiment turns a scene description into a finished run: it
// resolves presets and files, picks an engine and drives the simulator.
package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/layout"
	"github.com/san-kum/bounce/internal/sim"
)

type Config struct {
	Scene       string
	Scenario    *config.Config
	Engine      string
	Dt          float64
	Duration    float64
	SampleEvery int
}

type Experiment struct {
	cfg       Config
	simulator *sim.Simulator
	stepper   sim.Stepper
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// SimConfig fills dt and duration from the scene when the experiment leaves
// them unset.
func (e *Experiment) SimConfig() sim.Config {
	c := sim.Config{
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		Seed:        e.cfg.Scenario.Seed,
		SampleEvery: e.cfg.SampleEvery,
	}
	if c.Dt <= 0 {
		c.Dt = e.cfg.Scenario.TimeStep()
	}
	if c.Duration <= 0 {
		c.Duration = e.cfg.Scenario.Duration
	}
	return c
}

func (e *Experiment) Setup(registry *Registry, metrics []dynamo.Metric, observers ...dynamo.Observer) error {
	if e.cfg.Scenario == nil {
		return fmt.Errorf("experiment %q has no scene", e.cfg.Scene)
	}
	factory, err := registry.GetEngine(e.cfg.Engine)
	if err != nil {
		return err
	}
	stepper, err := factory(e.cfg.Scenario)
	if err != nil {
		return err
	}

	e.stepper = stepper
	e.simulator = sim.New()
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.stepper, e.SimConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// LoadScene returns the scene named by a config file or a preset, with any
// layout script applied. A file wins over a preset; with neither the
// classic scene is used.
func LoadScene(ctx context.Context, preset, path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		if err := layout.Apply(ctx, cfg, filepath.Dir(path)); err != nil {
			return nil, "", err
		}
		name := filepath.Base(path)
		return cfg, name[:len(name)-len(filepath.Ext(name))], nil
	}

	if preset == "" {
		preset = "classic"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %s", preset)
	}
	if err := layout.Apply(ctx, cfg, "."); err != nil {
		return nil, "", err
	}
	return cfg, preset, nil
}

// Perturb returns a copy of cfg whose ball velocities are jittered by up to
// amount in each component, reproducibly for a given seed.
func Perturb(cfg *config.Config, seed int64, amount float64) *config.Config {
	out := cfg.Clone()
	out.Seed = seed
	rng := rand.New(rand.NewSource(seed))
	for i := range out.Balls {
		out.Balls[i].VX += (rng.Float64()*2 - 1) * amount
		out.Balls[i].VY += (rng.Float64()*2 - 1) * amount
	}
	return out
}
