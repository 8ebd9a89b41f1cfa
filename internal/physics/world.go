package physics

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/san-kum/bounce/internal/dynamo"
)

const (
	// DefaultDensity is used when a BodySpec leaves Density at zero.
	DefaultDensity = 10.0

	// RelaxPasses bounds how often overlap and wall correction repeat
	// within one step. Non-penetration is best effort once the passes run
	// out: densely packed arenas can keep overlaps of order 1e-4 m.
	RelaxPasses = 32

	overlapTolerance = 1e-12
)

type ArenaSpec struct {
	Width   float64
	Height  float64
	Gravity float64
}

func (a ArenaSpec) Validate() error {
	if !(a.Width > 0) || math.IsInf(a.Width, 0) {
		return fmt.Errorf("width %v: %w", a.Width, dynamo.ErrInvalidArena)
	}
	if !(a.Height > 0) || math.IsInf(a.Height, 0) {
		return fmt.Errorf("height %v: %w", a.Height, dynamo.ErrInvalidArena)
	}
	if !dynamo.IsFinite(a.Gravity) {
		return fmt.Errorf("gravity %v: %w", a.Gravity, dynamo.ErrInvalidArena)
	}
	return nil
}

// BodySpec describes a body at creation time. Density 0 is the unset value
// and means DefaultDensity; negative, infinite or NaN densities are
// rejected.
type BodySpec struct {
	Pos     dynamo.Vec2
	Vel     dynamo.Vec2
	Radius  float64
	Density float64
}

// Body is a rigid ball. Radius, density and mass are fixed at creation.
type Body struct {
	Pos   dynamo.Vec2
	Vel   dynamo.Vec2
	Color color.RGBA

	id      int
	radius  float64
	density float64
	mass    float64
}

func NewBody(id int, spec BodySpec) (Body, error) {
	if !(spec.Radius > 0) || math.IsInf(spec.Radius, 0) {
		return Body{}, fmt.Errorf("body %d: radius %v: %w", id, spec.Radius, dynamo.ErrInvalidBody)
	}
	density := spec.Density
	if density == 0 {
		density = DefaultDensity
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return Body{}, fmt.Errorf("body %d: density %v: %w", id, spec.Density, dynamo.ErrInvalidBody)
	}
	if !spec.Pos.IsFinite() || !spec.Vel.IsFinite() {
		return Body{}, fmt.Errorf("body %d: non-finite position or velocity: %w", id, dynamo.ErrInvalidBody)
	}
	return Body{
		Pos:     spec.Pos,
		Vel:     spec.Vel,
		id:      id,
		radius:  spec.Radius,
		density: density,
		mass:    density * math.Pi * spec.Radius * spec.Radius,
	}, nil
}

func (b Body) ID() int          { return b.id }
func (b Body) Radius() float64  { return b.radius }
func (b Body) Density() float64 { return b.density }
func (b Body) Mass() float64    { return b.mass }

func (b Body) State() dynamo.BodyState {
	return dynamo.BodyState{
		ID:     b.id,
		Pos:    b.Pos,
		Vel:    b.Vel,
		Radius: b.radius,
		Mass:   b.mass,
		Color:  b.Color,
	}
}

type options struct {
	palette Palette
	rng     *rand.Rand
}

type Option func(*options)

func WithPalette(p Palette) Option {
	return func(o *options) { o.palette = p }
}

// WithSeed seeds the color source. Two worlds built with the same seed and
// bodies produce identical runs.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// World owns the arena and its bodies.
type World struct {
	arena  ArenaSpec
	bodies []Body
	colors *ColorPicker

	events   []dynamo.Event
	touched  []bool
	seenPair map[[2]int]struct{}
	seenWall map[[2]int]struct{}

	steps int
	time  float64
}

func New(arena ArenaSpec, specs []BodySpec, opts ...Option) (*World, error) {
	if err := arena.Validate(); err != nil {
		return nil, err
	}

	o := options{palette: DefaultPalette}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(1))
	}
	colors, err := NewColorPickerRand(o.palette, o.rng)
	if err != nil {
		return nil, err
	}

	bodies := make([]Body, len(specs))
	for i, spec := range specs {
		b, err := NewBody(i, spec)
		if err != nil {
			return nil, err
		}
		if 2*b.radius > arena.Width || 2*b.radius > arena.Height {
			return nil, fmt.Errorf("body %d: diameter %v does not fit the arena: %w", i, 2*b.radius, dynamo.ErrInvalidBody)
		}
		b.Color = colors.Any()
		bodies[i] = b
	}

	return &World{
		arena:    arena,
		bodies:   bodies,
		colors:   colors,
		events:   make([]dynamo.Event, 0, len(bodies)),
		touched:  make([]bool, len(bodies)),
		seenPair: make(map[[2]int]struct{}),
		seenWall: make(map[[2]int]struct{}),
	}, nil
}

func (w *World) Arena() ArenaSpec { return w.arena }
func (w *World) Len() int         { return len(w.bodies) }
func (w *World) Steps() int       { return w.steps }
func (w *World) Time() float64    { return w.time }

// Body returns a copy of body i.
func (w *World) Body(i int) Body { return w.bodies[i] }

// Bodies returns copies of every body in index order.
func (w *World) Bodies() []dynamo.BodyState {
	out := make([]dynamo.BodyState, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = b.State()
	}
	return out
}

// Events returns the contacts recorded by the last Step.
func (w *World) Events() []dynamo.Event {
	out := make([]dynamo.Event, len(w.events))
	copy(out, w.events)
	return out
}

func (w *World) Snapshot() dynamo.Frame {
	return dynamo.Frame{
		Step:   w.steps,
		Time:   w.time,
		Bodies: w.Bodies(),
		Events: w.Events(),
	}
}

// Step advances every body by dt seconds. A rejected dt leaves the world
// untouched.
func (w *World) Step(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt %v: %w", dt, dynamo.ErrInvalidStep)
	}

	w.events = w.events[:0]
	clear(w.seenPair)
	clear(w.seenWall)
	for i := range w.touched {
		w.touched[i] = false
	}

	for i := range w.bodies {
		b := &w.bodies[i]
		b.Vel.Y += dt * w.arena.Gravity
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	}

	for pass := 0; pass < RelaxPasses; pass++ {
		w.resolvePairs()
		w.resolveWalls()
		if !w.overlapping() {
			break
		}
	}

	for i, hit := range w.touched {
		if hit {
			w.bodies[i].Color = w.colors.Next(w.bodies[i].Color)
		}
	}

	w.steps++
	w.time += dt
	return nil
}

func (w *World) resolvePairs() {
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			a, b, c, ok := Collide(w.bodies[i], w.bodies[j])
			if !ok {
				continue
			}
			w.bodies[i], w.bodies[j] = a, b
			w.touched[i], w.touched[j] = true, true

			key := [2]int{i, j}
			if _, dup := w.seenPair[key]; dup {
				continue
			}
			w.seenPair[key] = struct{}{}
			w.events = append(w.events, dynamo.Event{Kind: dynamo.BallBall, A: i, B: j, Speed: c.Speed})
		}
	}
}

func (w *World) resolveWalls() {
	for i := range w.bodies {
		b := &w.bodies[i]
		before := b.Vel
		for _, wall := range containWalls(b, w.arena.Width, w.arena.Height) {
			w.touched[i] = true
			key := [2]int{i, int(wall)}
			if _, dup := w.seenWall[key]; dup {
				continue
			}
			w.seenWall[key] = struct{}{}
			speed := math.Abs(before.X)
			if wall == dynamo.Bottom || wall == dynamo.Top {
				speed = math.Abs(before.Y)
			}
			w.events = append(w.events, dynamo.Event{Kind: dynamo.BallWall, A: i, B: -1, Wall: wall, Speed: speed})
		}
	}
}

func (w *World) overlapping() bool {
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			a, b := w.bodies[i], w.bodies[j]
			if a.Pos.Dist(b.Pos) < a.radius+b.radius-overlapTolerance {
				return true
			}
		}
	}
	return false
}
