// Package dynamo provides the primitives shared by the simulation core and
// everything that consumes it.
//
//   - [Vec2]: 2D vector value type
//   - [BodyState]: read-only copy of a body handed to renderers
//   - [Event]: a ball-ball or ball-wall contact from the last step
//   - [Frame]: bodies and events at a point in time
//   - [Metric], [Observer]: hooks for headless runs
//
// # Example
//
//	w, _ := physics.New(arena, specs, physics.WithSeed(1))
//	for i := 0; i < 60; i++ {
//		_ = w.Step(1.0 / 60)
//	}
//	frame := w.Snapshot()
//
// # Thread Safety
//
// Nothing in this package synchronizes. Frames and body states are plain
// values; a [Frame] returned by a world is a copy and may be handed to
// another goroutine.
package dynamo
