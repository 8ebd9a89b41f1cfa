package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/bounce/internal/dynamo"
)

type Simulator struct {
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// StepCount is the number of whole steps that fit in the configured duration.
func StepCount(cfg Config) int {
	return int(math.Floor(cfg.Duration/cfg.Dt + 1e-9))
}

// Run advances w until cfg.Duration and collects frames and metrics. On
// cancellation or an invalid state the partial result is returned together
// with the error.
func (s *Simulator) Run(ctx context.Context, w Stepper, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := StepCount(cfg)
	every := cfg.sampleEvery()
	result := &Result{
		Frames:  make([]dynamo.Frame, 0, steps/every+2),
		Times:   make([]float64, 0, steps/every+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	f := w.Snapshot()
	s.observe(f)
	result.record(f)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if err := w.Step(cfg.Dt); err != nil {
			s.collect(result)
			return result, &dynamo.SimulationError{Step: i, Time: f.Time, Wrapped: err}
		}
		f = w.Snapshot()
		if !f.IsValid() {
			s.collect(result)
			return result, &dynamo.SimulationError{Step: i, Time: f.Time, Wrapped: dynamo.ErrInvalidState}
		}

		result.StepsTaken++
		result.count(f)
		s.observe(f)
		if result.StepsTaken%every == 0 || i == steps-1 {
			result.record(f)
		}
	}

	s.collect(result)
	return result, nil
}

// RunWithCallback steps w and hands every frame to fn until fn returns false,
// the duration elapses or ctx is done. A zero Duration runs until stopped.
func (s *Simulator) RunWithCallback(ctx context.Context, w Stepper, cfg Config, fn func(dynamo.Frame) bool) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}

	f := w.Snapshot()
	for i := 0; cfg.Duration <= 0 || f.Time < cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !fn(f) {
			return nil
		}
		if err := w.Step(cfg.Dt); err != nil {
			return &dynamo.SimulationError{Step: i, Time: f.Time, Wrapped: err}
		}
		f = w.Snapshot()
		if !f.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: f.Time, Wrapped: dynamo.ErrInvalidState}
		}
		s.observe(f)
	}
	return nil
}

func (s *Simulator) observe(f dynamo.Frame) {
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, obs := range s.observers {
		obs.OnStep(f)
	}
}

func (s *Simulator) collect(r *Result) {
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func (r *Result) record(f dynamo.Frame) {
	r.Frames = append(r.Frames, f)
	r.Times = append(r.Times, f.Time)
}

func (r *Result) count(f dynamo.Frame) {
	for _, e := range f.Events {
		if e.Kind == dynamo.BallBall {
			r.BallCollisions++
		} else {
			r.WallCollisions++
		}
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrInvalidStep)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
