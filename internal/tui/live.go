// Package tui prints a plain ASCII view of a run as it progresses.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim observer that redraws the arena at most frameRate
// times per second.
type LiveRenderer struct {
	out       io.Writer
	scene     string
	arena     physics.ArenaSpec
	frameRate int
	lastFrame time.Time
	now       func() time.Time
	canvas    [][]rune
	ballHits  int
	wallHits  int
}

func NewLiveRenderer(out io.Writer, scene string, arena physics.ArenaSpec, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		out:       out,
		scene:     scene,
		arena:     arena,
		frameRate: frameRate,
		now:       time.Now,
		canvas:    canvas,
	}
}

func (r *LiveRenderer) OnStep(f dynamo.Frame) {
	for _, e := range f.Events {
		if e.Kind == dynamo.BallBall {
			r.ballHits++
		} else {
			r.wallHits++
		}
	}

	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now

	r.clear()
	r.draw(f)
	r.render(f)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

// cell maps arena meters to a character cell, y up.
func (r *LiveRenderer) cell(p dynamo.Vec2) (int, int) {
	x := int(p.X / r.arena.Width * (width - 1))
	y := height - 1 - int(p.Y/r.arena.Height*(height-1))
	return x, y
}

func (r *LiveRenderer) draw(f dynamo.Frame) {
	sx := (width - 1) / r.arena.Width
	sy := (height - 1) / r.arena.Height
	for _, b := range f.Bodies {
		cx, cy := r.cell(b.Pos)
		rx := int(math.Round(b.Radius * sx))
		ry := int(math.Round(b.Radius * sy))
		for a := 0.0; a < 2*math.Pi; a += math.Pi / 16 {
			r.set(cx+int(math.Round(float64(rx)*math.Cos(a))), cy+int(math.Round(float64(ry)*math.Sin(a))), '.')
		}
		r.set(cx, cy, ballGlyph(b.ID))
	}
}

func ballGlyph(id int) rune {
	const glyphs = "0123456789abcdefghijklmnopqrstuvwxyz"
	return rune(glyphs[id%len(glyphs)])
}

func (r *LiveRenderer) render(f dynamo.Frame) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs  step=%d\n", r.scene, f.Time, f.Step)
	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")

	for _, row := range r.canvas {
		b.WriteString("  |")
		b.WriteString(string(row))
		b.WriteString("|\n")
	}

	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")
	fmt.Fprintf(&b, "  KE=%.3f  |p|=%.3f  ball hits=%d  wall hits=%d\n",
		f.KineticEnergy(), f.Momentum().Len(), r.ballHits, r.wallHits)

	io.WriteString(r.out, b.String())
}

func (r *LiveRenderer) Start() { io.WriteString(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { io.WriteString(r.out, showCursor) }
