package dynamo

import (
	"fmt"
	"image/color"
)

// BodyState is a copy of one body, safe to keep after the next step.
type BodyState struct {
	ID     int
	Pos    Vec2
	Vel    Vec2
	Radius float64
	Mass   float64
	Color  color.RGBA
}

func (b BodyState) IsValid() bool {
	return b.Pos.IsFinite() && b.Vel.IsFinite()
}

// KineticEnergy returns ½·m·|v|².
func (b BodyState) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Vel.LenSq()
}

func (b BodyState) Momentum() Vec2 {
	return b.Vel.Scale(b.Mass)
}

type EventKind int

const (
	BallBall EventKind = iota
	BallWall
)

func (k EventKind) String() string {
	switch k {
	case BallBall:
		return "ball"
	case BallWall:
		return "wall"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Wall int

const (
	NoWall Wall = iota
	Left
	Right
	Bottom
	Top
)

func (w Wall) String() string {
	switch w {
	case Left:
		return "left"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	default:
		return "none"
	}
}

// Event records one contact. B is -1 for wall contacts.
type Event struct {
	Kind  EventKind
	A, B  int
	Wall  Wall
	Speed float64
}

// Frame is the state of every body at Time, plus the contacts of the step
// that produced it.
type Frame struct {
	Step   int
	Time   float64
	Bodies []BodyState
	Events []Event
}

func (f Frame) IsValid() bool {
	for _, b := range f.Bodies {
		if !b.IsValid() {
			return false
		}
	}
	return true
}

func (f Frame) KineticEnergy() float64 {
	ke := 0.0
	for _, b := range f.Bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

func (f Frame) Momentum() Vec2 {
	var p Vec2
	for _, b := range f.Bodies {
		p = p.Add(b.Momentum())
	}
	return p
}

// PotentialEnergy returns Σ m·(−g)·y with y measured from the floor.
func (f Frame) PotentialEnergy(gravity float64) float64 {
	pe := 0.0
	for _, b := range f.Bodies {
		pe += b.Mass * -gravity * b.Pos.Y
	}
	return pe
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}
