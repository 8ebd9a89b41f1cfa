// Package render holds the drawing rules shared by every frontend: how
// arena meters map to screen pixels and how a ball is painted.
package render

import (
	"image/color"
	"math"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

var (
	Black = color.RGBA{A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Viewport maps arena coordinates (meters, y up) to screen pixels (y down).
type Viewport struct {
	PixelsPerMeter float64
	Width, Height  float64
}

func NewViewport(arena physics.ArenaSpec, ppm float64) Viewport {
	if ppm <= 0 {
		ppm = config.DefaultPixelsPerMeter
	}
	return Viewport{
		PixelsPerMeter: ppm,
		Width:          arena.Width * ppm,
		Height:         arena.Height * ppm,
	}
}

func (v Viewport) ToScreen(p dynamo.Vec2) (float64, float64) {
	return p.X * v.PixelsPerMeter, v.Height - p.Y*v.PixelsPerMeter
}

func (v Viewport) Length(m float64) float64 { return m * v.PixelsPerMeter }

// Fit returns a viewport that shows the whole arena inside w×h pixels.
func Fit(arena physics.ArenaSpec, w, h float64) Viewport {
	ppm := min(w/arena.Width, h/arena.Height)
	return NewViewport(arena, ppm)
}

// Style carries the presentation flags of a scene.
type Style struct {
	Outline          float64
	Background       string
	Highlight        bool
	FlashOnCollision bool
}

func StyleFromConfig(cfg *config.Config) Style {
	outline := cfg.Render.Outline
	if outline <= 0 {
		outline = config.DefaultOutline
	}
	return Style{
		Outline:          outline,
		Background:       cfg.Render.Background,
		Highlight:        cfg.Render.Highlight,
		FlashOnCollision: cfg.Render.FlashOnCollision,
	}
}

// ShowBackground reports whether the background image replaces black.
func (s Style) ShowBackground() bool {
	return s.Highlight && s.Background != ""
}

// Fill is black, or the ball's own color for a frame in which it collided
// when flashing is on.
func (s Style) Fill(b dynamo.BodyState, hit bool) color.RGBA {
	if s.FlashOnCollision && hit {
		return b.Color
	}
	return Black
}

// Hits returns the body indices that appear in the frame's events.
func Hits(f dynamo.Frame) map[int]bool {
	hits := make(map[int]bool, len(f.Events))
	for _, e := range f.Events {
		hits[e.A] = true
		if e.B >= 0 {
			hits[e.B] = true
		}
	}
	return hits
}

// StepsPerFrame is how many physics steps of dt cover one frame at fps.
// It is at least one.
func StepsPerFrame(fps int, dt float64) int {
	if fps <= 0 || !(dt > 0) {
		return 1
	}
	return max(int(math.Round(1/float64(fps)/dt)), 1)
}
