package metrics

import "github.com/san-kum/bounce/internal/dynamo"

// Momentum reports the magnitude of total momentum in the last frame.
type Momentum struct {
	name string
	last dynamo.Vec2
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string           { return m.name }
func (m *Momentum) Observe(f dynamo.Frame) { m.last = f.Momentum() }
func (m *Momentum) Value() float64         { return m.last.Len() }
func (m *Momentum) Vector() dynamo.Vec2    { return m.last }
func (m *Momentum) Reset()                 { m.last = dynamo.Vec2{} }
