package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

const (
	DefaultWidth          = 4.0
	DefaultHeight         = 3.0
	DefaultGravity        = -9.82
	DefaultFPS            = 60
	DefaultDuration       = 10.0
	DefaultPixelsPerMeter = 200.0
	DefaultOutline        = 5.0
)

type Config struct {
	Arena        ArenaConfig  `yaml:"arena"`
	Dt           float64      `yaml:"dt,omitempty"`
	FPS          int          `yaml:"fps"`
	Duration     float64      `yaml:"duration"`
	Seed         int64        `yaml:"seed"`
	Density      float64      `yaml:"density,omitempty"`
	Colors       []string     `yaml:"palette,omitempty"`
	Balls        []Ball       `yaml:"balls"`
	LayoutScript string       `yaml:"layout_script,omitempty"`
	Render       RenderConfig `yaml:"render"`
}

type ArenaConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Gravity float64 `yaml:"gravity"`
}

type Ball struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	VX      float64 `yaml:"vx"`
	VY      float64 `yaml:"vy"`
	Radius  float64 `yaml:"radius"`
	Density float64 `yaml:"density,omitempty"`
}

type RenderConfig struct {
	PixelsPerMeter   float64 `yaml:"pixels_per_meter"`
	Outline          float64 `yaml:"outline"`
	Background       string  `yaml:"background,omitempty"`
	Highlight        bool    `yaml:"highlight"`
	FlashOnCollision bool    `yaml:"flash_on_collision"`
}

// DefaultConfig is the classic two-ball scene: an 800×600 window at
// 200 px/m under earth gravity.
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			Gravity: DefaultGravity,
		},
		FPS:      DefaultFPS,
		Duration: DefaultDuration,
		Seed:     1,
		Balls: []Ball{
			{X: 3.5, Y: 3, VX: 2, VY: -2, Radius: 0.25},
			{X: 1, Y: 2, VX: 3, VY: 0.5, Radius: 0.2},
		},
		Render: RenderConfig{
			PixelsPerMeter: DefaultPixelsPerMeter,
			Outline:        DefaultOutline,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults. A document without a
// balls key keeps the default scene.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Balls = slices.Clone(c.Balls)
	cp.Colors = slices.Clone(c.Colors)
	return &cp
}

// TimeStep is the explicit dt if set, otherwise one frame.
func (c *Config) TimeStep() float64 {
	if c.Dt > 0 {
		return c.Dt
	}
	if c.FPS > 0 {
		return 1 / float64(c.FPS)
	}
	return 1.0 / DefaultFPS
}

func (c *Config) ArenaSpec() physics.ArenaSpec {
	return physics.ArenaSpec{
		Width:   c.Arena.Width,
		Height:  c.Arena.Height,
		Gravity: c.Arena.Gravity,
	}
}

func (c *Config) BodySpecs() []physics.BodySpec {
	specs := make([]physics.BodySpec, len(c.Balls))
	for i, b := range c.Balls {
		density := b.Density
		if density == 0 {
			density = c.Density
		}
		specs[i] = physics.BodySpec{
			Pos:     dynamo.Vec2{X: b.X, Y: b.Y},
			Vel:     dynamo.Vec2{X: b.VX, Y: b.VY},
			Radius:  b.Radius,
			Density: density,
		}
	}
	return specs
}

func (c *Config) Palette() (physics.Palette, error) {
	if len(c.Colors) == 0 {
		return physics.DefaultPalette, nil
	}
	p := make(physics.Palette, 0, len(c.Colors))
	for _, hex := range c.Colors {
		col, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		p = append(p, col)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// World builds the physics world described by the config.
func (c *Config) World() (*physics.World, error) {
	palette, err := c.Palette()
	if err != nil {
		return nil, err
	}
	return physics.New(c.ArenaSpec(), c.BodySpecs(), physics.WithPalette(palette), physics.WithSeed(c.Seed))
}

// WindowSize is the arena in pixels.
func (c *Config) WindowSize() (int, int) {
	ppm := c.Render.PixelsPerMeter
	if ppm <= 0 {
		ppm = DefaultPixelsPerMeter
	}
	return int(c.Arena.Width * ppm), int(c.Arena.Height * ppm)
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.ArenaSpec().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Dt < 0 {
		errs = append(errs, fmt.Errorf("dt %v: %w", c.Dt, dynamo.ErrInvalidStep))
	}
	if c.Dt == 0 && c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("either dt or fps must be positive"))
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %v", c.Duration))
	}
	if c.Density < 0 {
		errs = append(errs, fmt.Errorf("density %v: %w", c.Density, dynamo.ErrInvalidBody))
	}
	if _, err := c.Palette(); err != nil {
		errs = append(errs, err)
	}
	for i, spec := range c.BodySpecs() {
		b, err := physics.NewBody(i, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if 2*b.Radius() > c.Arena.Width || 2*b.Radius() > c.Arena.Height {
			errs = append(errs, fmt.Errorf("body %d: diameter %v does not fit the arena: %w", i, 2*b.Radius(), dynamo.ErrInvalidBody))
		}
	}
	return errors.Join(errs...)
}

// ParseHexColor accepts #rrggbb or #rrggbbaa.
func ParseHexColor(v string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color format: %q", v)
	}
	parse := func(start int) (uint8, error) {
		n, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(n), err
	}
	var out [4]uint8
	out[3] = 255
	for i := 0; i < len(s)/2; i++ {
		n, err := parse(2 * i)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", v, err)
		}
		out[i] = n
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}, nil
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
