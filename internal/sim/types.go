package sim

import (
	"github.com/san-kum/bounce/internal/dynamo"
)

// Stepper is anything that advances a set of balls in fixed steps.
// *physics.World and *reference.Space both satisfy it.
type Stepper interface {
	Step(dt float64) error
	Snapshot() dynamo.Frame
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64

	// SampleEvery records one frame per this many steps. Zero records all.
	SampleEvery int
}

func (c Config) sampleEvery() int {
	if c.SampleEvery < 1 {
		return 1
	}
	return c.SampleEvery
}

type Result struct {
	Frames     []dynamo.Frame
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int

	BallCollisions int
	WallCollisions int
}

// Final returns the last recorded frame.
func (r *Result) Final() dynamo.Frame {
	if len(r.Frames) == 0 {
		return dynamo.Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}
