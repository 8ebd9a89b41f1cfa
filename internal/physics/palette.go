package physics

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/san-kum/bounce/internal/dynamo"
)

const maxColorRetries = 64

type Palette []color.RGBA

// DefaultPalette is the neon set the balls cycle through.
var DefaultPalette = Palette{
	{R: 57, G: 255, B: 20, A: 255},   // green
	{R: 255, G: 20, B: 147, A: 255},  // pink
	{R: 77, G: 77, B: 255, A: 255},   // blue
	{R: 255, G: 165, B: 0, A: 255},   // orange
	{R: 0, G: 255, B: 255, A: 255},   // cyan
	{R: 255, G: 255, B: 0, A: 255},   // yellow
	{R: 191, G: 0, B: 255, A: 255},   // purple
	{R: 255, G: 0, B: 0, A: 255},     // red
	{R: 255, G: 0, B: 255, A: 255},   // magenta
	{R: 191, G: 255, B: 0, A: 255},   // lime
	{R: 125, G: 249, B: 255, A: 255}, // electric blue
	{R: 255, G: 69, B: 0, A: 255},    // orange-red
}

func (p Palette) distinct() int {
	seen := make(map[color.RGBA]struct{}, len(p))
	for _, c := range p {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func (p Palette) Validate() error {
	if n := p.distinct(); n < 2 {
		return fmt.Errorf("%d distinct colors: %w", n, dynamo.ErrInvalidPalette)
	}
	return nil
}

// ColorPicker draws palette colors from its own random source.
type ColorPicker struct {
	palette Palette
	rng     *rand.Rand
}

func NewColorPicker(p Palette, seed int64) (*ColorPicker, error) {
	return NewColorPickerRand(p, rand.New(rand.NewSource(seed)))
}

func NewColorPickerRand(p Palette, rng *rand.Rand) (*ColorPicker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("physics: nil random source")
	}
	cp := make(Palette, len(p))
	copy(cp, p)
	return &ColorPicker{palette: cp, rng: rng}, nil
}

// Any returns a uniformly drawn color.
func (c *ColorPicker) Any() color.RGBA {
	return c.palette[c.rng.Intn(len(c.palette))]
}

// Next returns a uniformly drawn color different from prev.
func (c *ColorPicker) Next(prev color.RGBA) color.RGBA {
	for i := 0; i < maxColorRetries; i++ {
		if col := c.Any(); col != prev {
			return col
		}
	}
	for _, col := range c.palette {
		if col != prev {
			return col
		}
	}
	// unreachable for a validated palette
	return prev
}

func (c *ColorPicker) Palette() Palette {
	cp := make(Palette, len(c.palette))
	copy(cp, c.palette)
	return cp
}
