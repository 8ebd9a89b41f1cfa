// Package export renders frames and runs as standalone SVG documents.
package export

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/render"
	"github.com/san-kum/bounce/internal/viz"
)

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func header(sb *strings.Builder, w, h float64, bg string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, bg)
}

// FrameSVG draws one frame the way the window does: black balls outlined in
// their own color, filled with it when flashing and in contact.
func FrameSVG(f dynamo.Frame, view render.Viewport, style render.Style) string {
	var sb strings.Builder
	header(&sb, view.Width, view.Height, "#000000")

	if style.Highlight {
		fmt.Fprintf(&sb, `<rect x="0" y="0" width="%.0f" height="%.0f" fill="none" stroke="#ffffff" stroke-width="2"/>
`, view.Width, view.Height)
	}

	hits := render.Hits(f)
	for _, b := range f.Bodies {
		x, y := view.ToScreen(b.Pos)
		r := view.Length(b.Radius)
		// The stroke is centered on the path; pull it inwards so the
		// outline stays within the ball's radius.
		inner := max(r-style.Outline/2, 0)
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%.1f"/>
`, x, y, inner, hex(style.Fill(b, hits[b.ID])), hex(b.Color), style.Outline)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectorySVG traces every body's path through frames, ending on the final
// positions.
func TrajectorySVG(frames []dynamo.Frame, view render.Viewport, style render.Style) string {
	if len(frames) == 0 {
		return ""
	}

	var sb strings.Builder
	header(&sb, view.Width, view.Height, "#0a0a0a")

	last := frames[len(frames)-1]
	for i, b := range last.Bodies {
		sb.WriteString(`<path fill="none" stroke="`)
		sb.WriteString(hex(b.Color))
		sb.WriteString(`" stroke-opacity="0.6" stroke-width="1.5" d="`)
		n := 0
		for _, f := range frames {
			if i >= len(f.Bodies) {
				continue
			}
			x, y := view.ToScreen(f.Bodies[i].Pos)
			if n == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
			n++
		}
		sb.WriteString("\"/>\n")
	}

	for _, b := range last.Bodies {
		x, y := view.ToScreen(b.Pos)
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#000000" stroke="%s" stroke-width="%.1f"/>
`, x, y, view.Length(b.Radius), hex(b.Color), style.Outline)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG dots in their cell colors.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.PixelSize()
	var sb strings.Builder
	header(&sb, float64(pw)*scale, float64(ph)*scale, "#0a0a0a")

	dot := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fill := "#00ff00"
			if c := canvas.Colors[y/4][x/2]; c.A != 0 {
				fill = hex(c)
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, dot, fill)
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
