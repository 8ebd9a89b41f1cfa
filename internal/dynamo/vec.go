package dynamo

import "math"

// Vec2 is a 2D vector in meters or meters/second.
type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64         { return math.Hypot(a.X, a.Y) }
func (a Vec2) LenSq() float64       { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Perp() Vec2           { return Vec2{-a.Y, a.X} }
func (a Vec2) Dist(b Vec2) float64  { return b.Sub(a).Len() }
func (a Vec2) IsFinite() bool       { return isFinite(a.X) && isFinite(a.Y) }
func (a Vec2) Equal(b Vec2) bool    { return a.X == b.X && a.Y == b.Y }
func (a Vec2) Near(b Vec2, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Unit returns a scaled to length one, or the zero vector when a has no length.
func (a Vec2) Unit() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool { return isFinite(v) }
