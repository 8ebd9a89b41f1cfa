// Package analysis inspects recorded ball trajectories.
//
//   - [PowerSpectrum], [DominantFrequency]: spectrum of a height series
//   - [NewPhasePortrait]: (y, vy) trajectory of one ball
//   - [NewPoincareSection]: (x, vx) whenever a ball rises through a height
//   - [Divergence]: separation growth between two nearly identical worlds
//
// Bounce periods show up directly in the spectrum:
//
//	ys := analysis.HeightSeries(result.Frames, 0)
//	f := analysis.DominantFrequency(ys, dt)
//	fmt.Printf("period %.3fs\n", 1/f)
package analysis
