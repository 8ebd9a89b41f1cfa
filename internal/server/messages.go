package server

import (
	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
)

type BodyMessage struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
}

type EventMessage struct {
	Kind  string  `json:"kind"`
	A     int     `json:"a"`
	B     int     `json:"b"`
	Wall  string  `json:"wall,omitempty"`
	Speed float64 `json:"speed"`
}

// FrameMessage is what subscribers and GET /state receive.
type FrameMessage struct {
	Scene  string         `json:"scene"`
	Step   int            `json:"step"`
	Time   float64        `json:"time"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Bodies []BodyMessage  `json:"bodies"`
	Events []EventMessage `json:"events,omitempty"`
}

func newFrameMessage(scene string, cfg *config.Config, f dynamo.Frame) FrameMessage {
	msg := FrameMessage{
		Scene:  scene,
		Step:   f.Step,
		Time:   f.Time,
		Width:  cfg.Arena.Width,
		Height: cfg.Arena.Height,
		Bodies: make([]BodyMessage, len(f.Bodies)),
	}
	for i, b := range f.Bodies {
		msg.Bodies[i] = BodyMessage{
			ID:     b.ID,
			X:      b.Pos.X,
			Y:      b.Pos.Y,
			VX:     b.Vel.X,
			VY:     b.Vel.Y,
			Radius: b.Radius,
			Color:  config.HexColor(b.Color),
		}
	}
	for _, e := range f.Events {
		em := EventMessage{Kind: e.Kind.String(), A: e.A, B: e.B, Speed: e.Speed}
		if e.Kind == dynamo.BallWall {
			em.Wall = e.Wall.String()
		}
		msg.Events = append(msg.Events, em)
	}
	return msg
}
