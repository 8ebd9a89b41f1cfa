package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
	"github.com/san-kum/bounce/internal/sim"
)

var _ sim.Stepper = (*Space)(nil)

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(physics.ArenaSpec{Width: 0, Height: 3}, nil)
	assert.ErrorIs(t, err, dynamo.ErrInvalidArena)

	_, err = New(physics.ArenaSpec{Width: 4, Height: 3}, []physics.BodySpec{{Radius: -1}})
	assert.ErrorIs(t, err, dynamo.ErrInvalidBody)
}

func TestStepRejectsBadDt(t *testing.T) {
	s, err := New(physics.ArenaSpec{Width: 4, Height: 3}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Step(0), dynamo.ErrInvalidStep)
	assert.Equal(t, 0, s.Snapshot().Step)
}

func TestFreeFlight(t *testing.T) {
	s, err := New(physics.ArenaSpec{Width: 4, Height: 3, Gravity: -10}, []physics.BodySpec{
		{Pos: dynamo.Vec2{X: 2, Y: 2}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2},
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Step(0.01))
	}
	f := s.Snapshot()
	assert.Equal(t, 10, f.Step)
	assert.InDelta(t, 0.1, f.Time, 1e-12)
	assert.InDelta(t, 2.1, f.Bodies[0].Pos.X, 1e-9)
	assert.InDelta(t, -1.0, f.Bodies[0].Vel.Y, 1e-9)
	assert.Less(t, f.Bodies[0].Pos.Y, 2.0)
}

func TestHeadOnMatchesCore(t *testing.T) {
	arena := physics.ArenaSpec{Width: 4, Height: 3}
	specs := []physics.BodySpec{
		{Pos: dynamo.Vec2{X: 1, Y: 1.5}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2},
		{Pos: dynamo.Vec2{X: 3, Y: 1.5}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2},
	}
	s, err := New(arena, specs)
	require.NoError(t, err)
	w, err := physics.New(arena, specs)
	require.NoError(t, err)

	ballHits := 0
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Step(0.01))
		require.NoError(t, w.Step(0.01))
		for _, e := range s.Snapshot().Events {
			if e.Kind == dynamo.BallBall {
				ballHits++
			}
		}
	}

	ref, core := s.Snapshot(), w.Snapshot()
	assert.Equal(t, 1, ballHits)
	assert.InDelta(t, core.KineticEnergy(), ref.KineticEnergy(), 0.05*core.KineticEnergy())
	assert.Less(t, ref.Bodies[0].Vel.X, 0.0)
	assert.Greater(t, ref.Bodies[1].Vel.X, 0.0)
	assert.InDelta(t, 0, ref.Momentum().X, 1e-6)
}

func TestBallStaysInside(t *testing.T) {
	arena := physics.ArenaSpec{Width: 4, Height: 3, Gravity: -9.82}
	s, err := New(arena, []physics.BodySpec{
		{Pos: dynamo.Vec2{X: 1, Y: 2}, Vel: dynamo.Vec2{X: 3, Y: 0.5}, Radius: 0.2},
	})
	require.NoError(t, err)

	walls := 0
	for i := 0; i < 600; i++ {
		require.NoError(t, s.Step(1.0/60))
		f := s.Snapshot()
		walls += len(f.Events)
		p := f.Bodies[0].Pos
		require.True(t, p.X > 0 && p.X < arena.Width && p.Y > 0 && p.Y < arena.Height, "escaped at %v", p)
	}
	assert.Positive(t, walls)
}
