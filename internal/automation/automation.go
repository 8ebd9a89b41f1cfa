// Package automation runs scripted batches: scenario files, parameter
// sweeps and Monte Carlo trials over perturbed scenes.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/experiment"
	"github.com/san-kum/bounce/internal/metrics"
	"github.com/san-kum/bounce/internal/sim"
	"github.com/san-kum/bounce/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Config, when set, is a scene file relative
// to the scenario; otherwise Preset names the scene.
type ScenarioStep struct {
	Name     string  `yaml:"name"`
	Preset   string  `yaml:"preset"`
	Config   string  `yaml:"config"`
	Engine   string  `yaml:"engine"`
	Duration float64 `yaml:"duration"`
	Dt       float64 `yaml:"dt"`
	Seed     *int64  `yaml:"seed"`
	Perturb  float64 `yaml:"perturb"`
	SaveAs   string  `yaml:"save_as"`
}

type StepResult struct {
	Step   ScenarioStep
	Scene  string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range sc.Steps {
		if p := sc.Steps[i].Config; p != "" && !filepath.IsAbs(p) {
			sc.Steps[i].Config = filepath.Join(dir, p)
		}
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	for i, step := range scenario.Steps {
		if step.Duration < 0 || step.Dt < 0 || step.Perturb < 0 {
			return nil, fmt.Errorf("step %d: negative duration, dt or perturb", i+1)
		}
	}
	return &scenario, nil
}

func (s ScenarioStep) label(i int) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.SaveAs != "":
		return s.SaveAs
	case s.Config != "":
		return filepath.Base(s.Config)
	case s.Preset != "":
		return s.Preset
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes all steps in order. Steps with save_as are stored
// when store is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", "n", i+1, "of", len(scenario.Steps), "step", step.label(i))

		cfg, scene, err := experiment.LoadScene(ctx, step.Preset, step.Config)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Seed != nil {
			cfg.Seed = *step.Seed
		}
		if step.Perturb > 0 {
			cfg = experiment.Perturb(cfg, cfg.Seed, step.Perturb)
		}
		if step.Dt > 0 {
			cfg.Dt = step.Dt
		}
		if step.Duration > 0 {
			cfg.Duration = step.Duration
		}

		exp := experiment.New(experiment.Config{
			Scene:    scene,
			Scenario: cfg,
			Engine:   step.Engine,
		})
		if err := exp.Setup(registry, registry.DefaultMetrics(cfg)); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: step, Scene: scene, Result: result}
		if step.SaveAs != "" && store != nil {
			id, err := store.Save(step.SaveAs, cfg, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
			logger.Info("saved", "run", id)
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one scene across a range of values of one parameter:
// gravity, density, dt or speed (a scale on every initial velocity).
type ParameterSweep struct {
	Scene     *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue     float64
	EnergyDrift    float64
	MaxEnergy      float64
	MinEnergy      float64
	BallCollisions int
	WallCollisions int
}

func applyParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "gravity":
		cfg.Arena.Gravity = v
	case "density":
		cfg.Density = v
		for i := range cfg.Balls {
			cfg.Balls[i].Density = 0
		}
	case "dt":
		cfg.Dt = v
	case "speed":
		for i := range cfg.Balls {
			cfg.Balls[i].VX *= v
			cfg.Balls[i].VY *= v
		}
	default:
		return fmt.Errorf("unknown sweep parameter: %s", name)
	}
	return nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *log.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least two steps, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = log.Default()
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Scene.Clone()
		if err := applyParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}
		w, err := cfg.World()
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		drift := metrics.NewEnergyDrift(cfg.Arena.Gravity)
		s := sim.New()
		s.AddMetric(drift)
		duration := sweep.Duration
		if duration <= 0 {
			duration = cfg.Duration
		}
		result, err := s.Run(ctx, w, sim.Config{Dt: cfg.TimeStep(), Duration: duration})
		if err != nil {
			return nil, err
		}

		minE, maxE := math.Inf(1), math.Inf(-1)
		for _, f := range result.Frames {
			e := f.KineticEnergy() + f.PotentialEnergy(cfg.Arena.Gravity)
			minE, maxE = math.Min(minE, e), math.Max(maxE, e)
		}

		results = append(results, SweepResult{
			ParamValue:     paramVal,
			EnergyDrift:    drift.Value(),
			MaxEnergy:      maxE,
			MinEnergy:      minE,
			BallCollisions: result.BallCollisions,
			WallCollisions: result.WallCollisions,
		})
		logger.Debug("sweep", "n", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Scene        *config.Config
	Perturbation float64
	NumTrials    int
	Duration     float64
	Seed         int64
	Parallel     int
}

// MonteCarloResult is one perturbed trial. Contained reports whether every
// body ended inside the arena and clear of the others.
type MonteCarloResult struct {
	TrialID     int
	Seed        int64
	Contained   bool
	EnergyDrift float64
	Collisions  int
}

// RunMonteCarlo runs the trials concurrently, one seed each.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	factory := func(seed int64) (sim.Stepper, error) {
		return experiment.Perturb(cfg.Scene, seed, cfg.Perturbation).World()
	}
	gravity := cfg.Scene.Arena.Gravity
	ens := sim.NewEnsemble(factory, func() []dynamo.Metric {
		return []dynamo.Metric{metrics.NewEnergyDrift(gravity)}
	}, cfg.NumTrials, cfg.Seed)
	if cfg.Parallel > 0 {
		ens.SetLimit(cfg.Parallel)
	}

	duration := cfg.Duration
	if duration <= 0 {
		duration = cfg.Scene.Duration
	}
	runs, err := ens.Run(ctx, sim.Config{Dt: cfg.Scene.TimeStep(), Duration: duration, SampleEvery: math.MaxInt32})
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:     i,
			Seed:        cfg.Seed + int64(i),
			Contained:   contained(r.Final(), cfg.Scene.Arena, 1e-6),
			EnergyDrift: r.Metrics["energy_drift"],
			Collisions:  r.BallCollisions + r.WallCollisions,
		}
	}
	return results, nil
}

func contained(f dynamo.Frame, arena config.ArenaConfig, eps float64) bool {
	for i, b := range f.Bodies {
		if b.Pos.X < b.Radius-eps || b.Pos.X > arena.Width-b.Radius+eps ||
			b.Pos.Y < b.Radius-eps || b.Pos.Y > arena.Height-b.Radius+eps {
			return false
		}
		for _, o := range f.Bodies[i+1:] {
			if b.Pos.Dist(o.Pos) < b.Radius+o.Radius-eps {
				return false
			}
		}
	}
	return true
}

// MonteCarloStats counts contained and escaped trials.
func MonteCarloStats(results []MonteCarloResult) (containedCount int, escapedCount int) {
	for _, r := range results {
		if r.Contained {
			containedCount++
		} else {
			escapedCount++
		}
	}
	return
}
