package metrics

import "github.com/san-kum/bounce/internal/dynamo"

// Collisions counts contact events. Value is the total of both kinds.
type Collisions struct {
	name  string
	balls int
	walls int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions"}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(f dynamo.Frame) {
	for _, e := range f.Events {
		switch e.Kind {
		case dynamo.BallBall:
			c.balls++
		case dynamo.BallWall:
			c.walls++
		}
	}
}

func (c *Collisions) Value() float64 { return float64(c.balls + c.walls) }
func (c *Collisions) Balls() int     { return c.balls }
func (c *Collisions) Walls() int     { return c.walls }

func (c *Collisions) Reset() {
	c.balls = 0
	c.walls = 0
}

// Standard returns the metrics every run records.
func Standard(gravity float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(gravity),
		NewMomentum(),
		NewCollisions(),
	}
}
