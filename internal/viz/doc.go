// Package viz is the terminal view of a running arena.
//
// The view is a Bubble Tea program that draws balls onto a braille
// [Canvas] next to a stats panel and an energy plot:
//
//   - [Model]: steps the world once per frame and paints it
//   - [Canvas]: braille sub-pixel grid with per-cell colors
//   - [Recorder]: collects canvas frames into an animated GIF
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single step while paused
//	R     - Reset the scene
//	H     - Toggle highlight
//	F     - Toggle color-on-collision
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	[ ]   - Rewind/forward through recent frames
//	?     - Show help overlay
package viz
