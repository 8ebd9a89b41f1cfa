package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/metrics"
	"github.com/san-kum/bounce/internal/reference"
	"github.com/san-kum/bounce/internal/sim"
)

const (
	EngineCore     = "core"
	EngineChipmunk = "chipmunk"
)

// EngineFactory builds a stepper for a scene.
type EngineFactory func(cfg *config.Config) (sim.Stepper, error)

type Registry struct {
	engines map[string]EngineFactory
}

func NewRegistry() *Registry {
	r := &Registry{engines: make(map[string]EngineFactory)}

	r.engines[EngineCore] = func(cfg *config.Config) (sim.Stepper, error) {
		return cfg.World()
	}
	r.engines[EngineChipmunk] = func(cfg *config.Config) (sim.Stepper, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return reference.New(cfg.ArenaSpec(), cfg.BodySpecs())
	}

	return r
}

func (r *Registry) Register(name string, f EngineFactory) { r.engines[name] = f }

func (r *Registry) GetEngine(name string) (EngineFactory, error) {
	if name == "" {
		name = EngineCore
	}
	fn, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListEngines() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	return metrics.Standard(cfg.Arena.Gravity)
}
