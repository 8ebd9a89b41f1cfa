package render

import (
	"image/color"
	"testing"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

func TestViewport(t *testing.T) {
	v := NewViewport(physics.ArenaSpec{Width: 4, Height: 3}, 200)
	if v.Width != 800 || v.Height != 600 {
		t.Fatalf("expected 800x600, got %vx%v", v.Width, v.Height)
	}

	tests := []struct {
		p      dynamo.Vec2
		sx, sy float64
	}{
		{dynamo.Vec2{X: 0, Y: 0}, 0, 600},
		{dynamo.Vec2{X: 4, Y: 3}, 800, 0},
		{dynamo.Vec2{X: 1, Y: 2}, 200, 200},
	}
	for _, tt := range tests {
		x, y := v.ToScreen(tt.p)
		if x != tt.sx || y != tt.sy {
			t.Errorf("%v: expected (%v, %v), got (%v, %v)", tt.p, tt.sx, tt.sy, x, y)
		}
	}
	if v.Length(0.25) != 50 {
		t.Errorf("expected 50 px, got %v", v.Length(0.25))
	}
}

func TestFit(t *testing.T) {
	v := Fit(physics.ArenaSpec{Width: 4, Height: 3}, 160, 160)
	if v.PixelsPerMeter != 40 || v.Height != 120 {
		t.Errorf("unexpected viewport %+v", v)
	}
}

func TestStyle(t *testing.T) {
	cfg := config.DefaultConfig()
	s := StyleFromConfig(cfg)
	if s.Outline != config.DefaultOutline || s.ShowBackground() {
		t.Errorf("unexpected default style %+v", s)
	}

	cfg.Render.Highlight = true
	if StyleFromConfig(cfg).ShowBackground() {
		t.Error("highlight without an image keeps the black background")
	}
	cfg.Render.Background = "bg.png"
	if !StyleFromConfig(cfg).ShowBackground() {
		t.Error("expected background with highlight on")
	}

	pink := color.RGBA{R: 255, G: 20, B: 147, A: 255}
	b := dynamo.BodyState{Color: pink}
	if s.Fill(b, true) != Black {
		t.Error("fill should stay black without flashing")
	}
	s.FlashOnCollision = true
	if s.Fill(b, true) != pink || s.Fill(b, false) != Black {
		t.Error("flash should only color balls that collided")
	}
}

func TestHits(t *testing.T) {
	hits := Hits(dynamo.Frame{Events: []dynamo.Event{
		{Kind: dynamo.BallBall, A: 0, B: 2},
		{Kind: dynamo.BallWall, A: 3, B: -1, Wall: dynamo.Top},
	}})
	if len(hits) != 3 || !hits[0] || !hits[2] || !hits[3] {
		t.Errorf("unexpected hits %v", hits)
	}
}

func TestStepsPerFrame(t *testing.T) {
	tests := []struct {
		fps  int
		dt   float64
		want int
	}{
		{60, 1.0 / 60, 1},
		{60, 1.0 / 240, 4},
		{30, 0.001, 33},
		{60, 0.5, 1},
		{0, 0.01, 1},
		{60, 0, 1},
	}
	for _, tt := range tests {
		if got := StepsPerFrame(tt.fps, tt.dt); got != tt.want {
			t.Errorf("StepsPerFrame(%d, %v) = %d, want %d", tt.fps, tt.dt, got, tt.want)
		}
	}
}
