// Package physics is the simulation core: circular rigid bodies in a
// rectangular arena under gravity, with elastic ball-ball and ball-wall
// collisions.
//
//   - [World]: the arena and its fixed list of bodies, advanced by [World.Step]
//   - [Collide]: pure two-body elastic collision resolver
//   - [ColorPicker]: seeded palette draw used to recolor bodies on contact
//
// A step applies gravity, integrates positions with forward Euler, then
// resolves overlaps and wall contacts on the integrated positions, so the
// bodies a renderer reads after [World.Step] never overlap and never leave
// the arena.
//
//	w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 3, Gravity: -9.82},
//	    []physics.BodySpec{{Pos: dynamo.Vec2{X: 1, Y: 2}, Vel: dynamo.Vec2{X: 3}, Radius: 0.2}},
//	    physics.WithSeed(42))
//	for i := 0; i < 60; i++ {
//	    _ = w.Step(1.0 / 60)
//	}
//
// A [World] is not safe for concurrent use.
package physics
