package config

import (
	"math/rand"
	"sort"
)

var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"headon": {
		Arena:    ArenaConfig{Width: 4, Height: 4},
		FPS:      DefaultFPS,
		Duration: 5,
		Seed:     1,
		Balls: []Ball{
			{X: 1.5, Y: 2, VX: 1, Radius: 0.2},
			{X: 2.5, Y: 2, VX: -1, Radius: 0.2},
		},
		Render: defaultRender(),
	},
	"wall": {
		Arena:    ArenaConfig{Width: 4, Height: 4},
		FPS:      DefaultFPS,
		Duration: 10,
		Seed:     1,
		Balls: []Ball{
			{X: 2, Y: 2, VX: 3, VY: 1.3, Radius: 0.2},
		},
		Render: defaultRender(),
	},
	"heavy": {
		Arena:    ArenaConfig{Width: 4, Height: 3, Gravity: DefaultGravity},
		FPS:      DefaultFPS,
		Duration: 15,
		Seed:     1,
		Balls: []Ball{
			{X: 1, Y: 1.5, VX: 3, Radius: 0.15},
			{X: 3, Y: 1.5, VX: -1, Radius: 0.3, Density: 80},
		},
		Render: defaultRender(),
	},
	"cradle": {
		Arena:    ArenaConfig{Width: 4, Height: 3},
		FPS:      DefaultFPS,
		Duration: 10,
		Seed:     1,
		Balls: []Ball{
			{X: 0.8, Y: 1.5, VX: 3, Radius: 0.19},
			{X: 2.0, Y: 1.5, Radius: 0.19},
			{X: 2.4, Y: 1.5, Radius: 0.19},
			{X: 2.8, Y: 1.5, Radius: 0.19},
			{X: 3.2, Y: 1.5, Radius: 0.19},
		},
		Render: defaultRender(),
	},
	"rain": {
		Arena:    ArenaConfig{Width: 4, Height: 3, Gravity: DefaultGravity},
		FPS:      DefaultFPS,
		Duration: 20,
		Seed:     7,
		Balls:    rain(16, 4, 3, 7),
		Render:   defaultRender(),
	},
}

func defaultRender() RenderConfig {
	return RenderConfig{PixelsPerMeter: DefaultPixelsPerMeter, Outline: DefaultOutline}
}

// rain lays n small balls on a grid in the top half with random sideways
// drift.
func rain(n int, width, height float64, seed int64) []Ball {
	rng := rand.New(rand.NewSource(seed))
	cols := 8
	cell := width / float64(cols)
	balls := make([]Ball, n)
	for i := range balls {
		balls[i] = Ball{
			X:      cell*float64(i%cols) + cell/2,
			Y:      height - cell*float64(i/cols) - cell/2,
			VX:     rng.Float64()*2 - 1,
			VY:     -rng.Float64(),
			Radius: 0.08 + rng.Float64()*0.1,
		}
	}
	return balls
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
