package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const maxRecordedFrames = 900

// Recorder collects canvas snapshots and writes them out as an animated GIF.
// Every lit sub-pixel becomes one image pixel in its cell color.
type Recorder struct {
	delay  int
	frames []*image.Paletted
	colors map[color.RGBA]uint8
	pal    color.Palette
}

func NewRecorder(fps int) *Recorder {
	if fps <= 0 {
		fps = 60
	}
	return &Recorder{
		delay:  max(100/fps, 1),
		colors: map[color.RGBA]uint8{{A: 255}: 0, {R: 255, G: 255, B: 255, A: 255}: 1},
		pal:    color.Palette{color.RGBA{A: 255}, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) index(c color.RGBA) uint8 {
	if c.A == 0 {
		return 1
	}
	if i, ok := r.colors[c]; ok {
		return i
	}
	if len(r.pal) >= 256 {
		return 1
	}
	i := uint8(len(r.pal))
	r.pal = append(r.pal, c)
	r.colors[c] = i
	return i
}

// Capture appends the current canvas. Frames beyond the cap are dropped.
func (r *Recorder) Capture(c *Canvas) {
	if len(r.frames) >= maxRecordedFrames {
		return
	}
	w, h := c.PixelSize()
	img := image.NewPaletted(image.Rect(0, 0, w, h), nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.IsSet(x, y) {
				img.SetColorIndex(x, y, r.index(c.Colors[y/4][x/2]))
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Encode returns the recording as a GIF. The palette is shared by every
// frame and fixed once encoding starts.
func (r *Recorder) Encode() *gif.GIF {
	g := &gif.GIF{LoopCount: 0}
	for _, f := range r.frames {
		f.Palette = r.pal
		g.Image = append(g.Image, f)
		g.Delay = append(g.Delay, r.delay)
	}
	return g
}

// Save writes the recording to path and returns the frame count.
func (r *Recorder) Save(path string) (int, error) {
	if len(r.frames) == 0 {
		return 0, fmt.Errorf("nothing recorded")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := gif.EncodeAll(f, r.Encode()); err != nil {
		return 0, err
	}
	return len(r.frames), nil
}
