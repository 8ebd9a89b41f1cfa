package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/sim"
)

// Separation is the root-sum-square distance between matching body
// positions in two frames.
func Separation(a, b dynamo.Frame) float64 {
	sum := 0.0
	for i := range a.Bodies {
		if i >= len(b.Bodies) {
			break
		}
		sum += a.Bodies[i].Pos.Sub(b.Bodies[i].Pos).LenSq()
	}
	return math.Sqrt(sum)
}

// DivergenceResult describes how two runs that start a tiny distance apart
// drift away from each other.
type DivergenceResult struct {
	Times       []float64
	Separations []float64

	// Rate is the least-squares slope of ln(separation) over the steps
	// before saturation, in 1/s. Positive values mean exponential growth.
	Rate float64
}

// Divergence steps a and b side by side for the given number of steps.
// Growth is fitted until the separation reaches saturate.
func Divergence(a, b sim.Stepper, dt float64, steps int, saturate float64) (*DivergenceResult, error) {
	res := &DivergenceResult{
		Times:       make([]float64, 0, steps+1),
		Separations: make([]float64, 0, steps+1),
	}

	fa, fb := a.Snapshot(), b.Snapshot()
	res.Times = append(res.Times, fa.Time)
	res.Separations = append(res.Separations, Separation(fa, fb))

	for i := 0; i < steps; i++ {
		if err := a.Step(dt); err != nil {
			return nil, fmt.Errorf("first world: %w", err)
		}
		if err := b.Step(dt); err != nil {
			return nil, fmt.Errorf("second world: %w", err)
		}
		fa, fb = a.Snapshot(), b.Snapshot()
		res.Times = append(res.Times, fa.Time)
		res.Separations = append(res.Separations, Separation(fa, fb))
	}

	res.Rate = logSlope(res.Times, res.Separations, saturate)
	return res, nil
}

func logSlope(times, seps []float64, saturate float64) float64 {
	var n, sx, sy, sxx, sxy float64
	for i, d := range seps {
		if d <= 0 {
			continue
		}
		if saturate > 0 && d >= saturate {
			break
		}
		x, y := times[i], math.Log(d)
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if n < 2 || den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
