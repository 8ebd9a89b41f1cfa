// Package reference runs a scene through the chipmunk engine so the core
// stepper can be compared against an established solver.
package reference

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

const (
	collisionTypeBall cp.CollisionType = iota + 1
	collisionTypeWall
)

// Space mirrors a physics.World inside a cp.Space: perfectly elastic,
// frictionless balls that never rotate, inside four static wall segments.
type Space struct {
	space  *cp.Space
	bodies []*cp.Body
	radii  []float64
	masses []float64
	balls  map[*cp.Shape]int
	walls  map[*cp.Shape]dynamo.Wall
	events []dynamo.Event
	steps  int
	time   float64
}

func New(arena physics.ArenaSpec, specs []physics.BodySpec) (*Space, error) {
	if err := arena.Validate(); err != nil {
		return nil, err
	}

	s := &Space{
		space: cp.NewSpace(),
		balls: make(map[*cp.Shape]int, len(specs)),
		walls: make(map[*cp.Shape]dynamo.Wall, 4),
	}
	s.space.Iterations = 30
	s.space.SetGravity(cp.Vector{X: 0, Y: arena.Gravity})
	s.space.SetCollisionSlop(1e-4)

	w, h := arena.Width, arena.Height
	for _, seg := range []struct {
		a, b cp.Vector
		wall dynamo.Wall
	}{
		{cp.Vector{X: 0, Y: 0}, cp.Vector{X: w, Y: 0}, dynamo.Bottom},
		{cp.Vector{X: 0, Y: h}, cp.Vector{X: w, Y: h}, dynamo.Top},
		{cp.Vector{X: 0, Y: 0}, cp.Vector{X: 0, Y: h}, dynamo.Left},
		{cp.Vector{X: w, Y: 0}, cp.Vector{X: w, Y: h}, dynamo.Right},
	} {
		shape := s.space.AddShape(cp.NewSegment(s.space.StaticBody, seg.a, seg.b, 0))
		shape.SetElasticity(1)
		shape.SetFriction(0)
		shape.SetCollisionType(collisionTypeWall)
		s.walls[shape] = seg.wall
	}

	for i, spec := range specs {
		b, err := physics.NewBody(i, spec)
		if err != nil {
			return nil, err
		}
		body := s.space.AddBody(cp.NewBody(b.Mass(), math.Inf(1)))
		body.SetPosition(cp.Vector{X: spec.Pos.X, Y: spec.Pos.Y})
		body.SetVelocity(spec.Vel.X, spec.Vel.Y)

		shape := s.space.AddShape(cp.NewCircle(body, b.Radius(), cp.Vector{}))
		shape.SetElasticity(1)
		shape.SetFriction(0)
		shape.SetCollisionType(collisionTypeBall)
		s.balls[shape] = i

		s.bodies = append(s.bodies, body)
		s.radii = append(s.radii, b.Radius())
		s.masses = append(s.masses, b.Mass())
	}

	balls := s.space.NewCollisionHandler(collisionTypeBall, collisionTypeBall)
	balls.BeginFunc = s.beginBalls
	walls := s.space.NewCollisionHandler(collisionTypeBall, collisionTypeWall)
	walls.BeginFunc = s.beginWall

	return s, nil
}

func (s *Space) beginBalls(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	sa, sb := arb.Shapes()
	i, okA := s.balls[sa]
	j, okB := s.balls[sb]
	if !okA || !okB {
		return true
	}
	if i > j {
		i, j = j, i
	}
	rel := s.bodies[i].Velocity().Sub(s.bodies[j].Velocity())
	s.events = append(s.events, dynamo.Event{Kind: dynamo.BallBall, A: i, B: j, Speed: rel.Length()})
	return true
}

func (s *Space) beginWall(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	sa, sb := arb.Shapes()
	i, ok := s.balls[sa]
	wall, okW := s.walls[sb]
	if !ok || !okW {
		if i, ok = s.balls[sb]; !ok {
			return true
		}
		if wall, okW = s.walls[sa]; !okW {
			return true
		}
	}
	v := s.bodies[i].Velocity()
	speed := math.Abs(v.X)
	if wall == dynamo.Bottom || wall == dynamo.Top {
		speed = math.Abs(v.Y)
	}
	s.events = append(s.events, dynamo.Event{Kind: dynamo.BallWall, A: i, B: -1, Wall: wall, Speed: speed})
	return true
}

func (s *Space) Len() int { return len(s.bodies) }

// Step advances the space by dt. Events hold the contacts that began during
// this step.
func (s *Space) Step(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("dt %v: %w", dt, dynamo.ErrInvalidStep)
	}
	s.events = s.events[:0]
	s.space.Step(dt)
	s.steps++
	s.time += dt
	return nil
}

func (s *Space) Snapshot() dynamo.Frame {
	bodies := make([]dynamo.BodyState, len(s.bodies))
	for i, b := range s.bodies {
		p, v := b.Position(), b.Velocity()
		bodies[i] = dynamo.BodyState{
			ID:     i,
			Pos:    dynamo.Vec2{X: p.X, Y: p.Y},
			Vel:    dynamo.Vec2{X: v.X, Y: v.Y},
			Radius: s.radii[i],
			Mass:   s.masses[i],
			Color:  physics.DefaultPalette[i%len(physics.DefaultPalette)],
		}
	}
	events := make([]dynamo.Event, len(s.events))
	copy(events, s.events)
	return dynamo.Frame{Step: s.steps, Time: s.time, Bodies: bodies, Events: events}
}
