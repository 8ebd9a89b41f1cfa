package physics

import (
	"github.com/san-kum/bounce/internal/dynamo"
)

// fallbackNormal separates bodies whose centers coincide.
var fallbackNormal = dynamo.Vec2{X: 1, Y: 0}

// Contact describes how two bodies touched.
type Contact struct {
	Normal  dynamo.Vec2 // unit, from a to b
	Overlap float64     // half the penetration depth
	Speed   float64     // closing speed along Normal before the response
	Bounced bool        // velocities were exchanged
}

// Collide resolves an overlap between a and b and returns corrected copies.
// When the bodies do not overlap they are returned unchanged with ok false.
//
// Each body is pushed out by half the penetration along the line of
// centers. If the pair is still approaching along that line, the normal
// velocity components are replaced by the 1D elastic result for unequal
// masses; tangential components are kept.
func Collide(a, b Body) (Body, Body, Contact, bool) {
	delta := b.Pos.Sub(a.Pos)
	d := delta.Len()
	reach := a.radius + b.radius
	if d >= reach {
		return a, b, Contact{}, false
	}

	n := fallbackNormal
	if d > 0 {
		n = delta.Scale(1 / d)
	}
	overlap := (reach - d) / 2
	a.Pos = a.Pos.Sub(n.Scale(overlap))
	b.Pos = b.Pos.Add(n.Scale(overlap))

	c := Contact{Normal: n, Overlap: overlap}
	closing := a.Vel.Sub(b.Vel).Dot(n)
	if closing <= 0 {
		return a, b, c, true
	}
	c.Speed = closing
	c.Bounced = true
	a.Vel, b.Vel = ElasticVelocities(a.Vel, b.Vel, a.mass, b.mass, n)
	return a, b, c, true
}

// ElasticVelocities returns the post-collision velocities of two bodies
// meeting along the unit normal n.
func ElasticVelocities(v1, v2 dynamo.Vec2, m1, m2 float64, n dynamo.Vec2) (dynamo.Vec2, dynamo.Vec2) {
	t := n.Perp()

	u1, u2 := v1.Dot(n), v2.Dot(n)
	t1, t2 := v1.Dot(t), v2.Dot(t)

	total := m1 + m2
	w1 := (u1*(m1-m2) + 2*m2*u2) / total
	w2 := (u2*(m2-m1) + 2*m1*u1) / total

	return t.Scale(t1).Add(n.Scale(w1)), t.Scale(t2).Add(n.Scale(w2))
}

// containWalls clamps b into [r, bound−r] on both axes and turns any
// outward velocity component around. It returns the walls touched.
func containWalls(b *Body, width, height float64) []dynamo.Wall {
	var hit []dynamo.Wall
	r := b.radius

	if b.Pos.X < r {
		b.Pos.X = r
		if b.Vel.X < 0 {
			b.Vel.X = -b.Vel.X
		}
		hit = append(hit, dynamo.Left)
	} else if b.Pos.X > width-r {
		b.Pos.X = width - r
		if b.Vel.X > 0 {
			b.Vel.X = -b.Vel.X
		}
		hit = append(hit, dynamo.Right)
	}

	if b.Pos.Y < r {
		b.Pos.Y = r
		if b.Vel.Y < 0 {
			b.Vel.Y = -b.Vel.Y
		}
		hit = append(hit, dynamo.Bottom)
	} else if b.Pos.Y > height-r {
		b.Pos.Y = height - r
		if b.Vel.Y > 0 {
			b.Vel.Y = -b.Vel.Y
		}
		hit = append(hit, dynamo.Top)
	}

	return hit
}
