package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

func TestDominantFrequencySine(t *testing.T) {
	dt := 0.01
	n := 1000
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*2.0*float64(i)*dt)
	}

	f := DominantFrequency(data, dt)
	if math.Abs(f-2.0) > 0.11 {
		t.Errorf("expected ~2 Hz, got %f", f)
	}
}

func TestPowerSpectrumDegenerate(t *testing.T) {
	if ps := PowerSpectrum([]float64{1}); ps != nil {
		t.Errorf("expected nil spectrum, got %v", ps)
	}
	if f := DominantFrequency([]float64{2, 2, 2, 2, 2, 2}, 0.1); f != 0 {
		t.Errorf("expected 0 Hz for a constant series, got %f", f)
	}
}

func bouncingBall(t *testing.T, steps int) []dynamo.Frame {
	t.Helper()
	w, err := physics.New(physics.ArenaSpec{Width: 2, Height: 3, Gravity: -9.82},
		[]physics.BodySpec{{Pos: dynamo.Vec2{X: 1, Y: 2}, Vel: dynamo.Vec2{X: 0.7}, Radius: 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	frames := []dynamo.Frame{w.Snapshot()}
	for i := 0; i < steps; i++ {
		if err := w.Step(0.001); err != nil {
			t.Fatal(err)
		}
		frames = append(frames, w.Snapshot())
	}
	return frames
}

func TestDominantFrequencyBouncingBall(t *testing.T) {
	frames := bouncingBall(t, 16000)
	ys := HeightSeries(frames, 0)
	if len(ys) != len(frames) {
		t.Fatalf("expected %d samples, got %d", len(frames), len(ys))
	}

	// dropped from 1.9 m above the contact height: period 2*sqrt(2h/g)
	period := 2 * math.Sqrt(2*1.9/9.82)
	f := DominantFrequency(ys, 0.001)
	if math.Abs(f-1/period)/(1/period) > 0.1 {
		t.Errorf("expected ~%.3f Hz, got %.3f", 1/period, f)
	}
}

func TestPhasePortrait(t *testing.T) {
	frames := bouncingBall(t, 2000)
	p := NewPhasePortrait(frames, 0)
	if p == nil || len(p.Points) != len(frames) {
		t.Fatal("expected one point per frame")
	}
	if p.Points[0].X != 2 || p.Points[0].Y != 0 {
		t.Errorf("unexpected first point %+v", p.Points[0])
	}
	if NewPhasePortrait(frames, 3) != nil {
		t.Error("expected nil portrait for a missing body")
	}

	art := p.ASCII(40, 12)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("expected 12 rows, got %d", len(lines))
	}
	if !strings.Contains(art, "•") {
		t.Error("expected plotted points")
	}
}

func TestPoincareSection(t *testing.T) {
	frames := bouncingBall(t, 4000)
	s := NewPoincareSection(frames, 0, 1.0)
	if s == nil {
		t.Fatal("expected a section")
	}
	// one upward crossing per bounce
	if len(s.Points) < 2 {
		t.Errorf("expected upward crossings, got %d", len(s.Points))
	}
	for _, p := range s.Points {
		if math.Abs(math.Abs(p.Y)-0.7) > 1e-9 {
			t.Errorf("horizontal speed should stay 0.7, got %f", p.Y)
		}
	}

	if got := NewPoincareSection(frames, 0, 10).ASCII(10, 5); got != "No crossings detected" {
		t.Errorf("unexpected %q", got)
	}
}

func TestDivergence(t *testing.T) {
	arena := physics.ArenaSpec{Width: 4, Height: 3, Gravity: -9.82}
	specs := []physics.BodySpec{
		{Pos: dynamo.Vec2{X: 3.5, Y: 2.75}, Vel: dynamo.Vec2{X: 2, Y: -2}, Radius: 0.25},
		{Pos: dynamo.Vec2{X: 1, Y: 2}, Vel: dynamo.Vec2{X: 3, Y: 0.5}, Radius: 0.2},
	}
	a, _ := physics.New(arena, specs)
	b, _ := physics.New(arena, specs)

	res, err := Divergence(a, b, 1.0/60, 300, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Separations) != 301 {
		t.Fatalf("expected 301 samples, got %d", len(res.Separations))
	}
	for i, d := range res.Separations {
		if d != 0 {
			t.Fatalf("identical worlds separated at %d: %g", i, d)
		}
	}
	if res.Rate != 0 {
		t.Errorf("expected zero rate, got %f", res.Rate)
	}

	perturbed := append([]physics.BodySpec(nil), specs...)
	perturbed[1].Pos.X += 1e-6
	res, err = Divergence(mustWorld(t, arena, specs), mustWorld(t, arena, perturbed), 1.0/60, 300, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Separations[0]-1e-6) > 1e-12 {
		t.Errorf("expected initial separation 1e-6, got %g", res.Separations[0])
	}
	for i, d := range res.Separations {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			t.Fatalf("separation %d not finite", i)
		}
	}
}

func mustWorld(t *testing.T, arena physics.ArenaSpec, specs []physics.BodySpec) *physics.World {
	t.Helper()
	w, err := physics.New(arena, specs)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestLogSlope(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	seps := make([]float64, len(times))
	for i, x := range times {
		seps[i] = 1e-6 * math.Exp(0.5*x)
	}
	if got := logSlope(times, seps, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected slope 0.5, got %f", got)
	}
	// saturation cuts the fit short
	seps[4] = 10
	if got := logSlope(times, seps, 1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected slope 0.5 before saturation, got %f", got)
	}
}
