package analysis

import (
	"strings"

	"github.com/san-kum/bounce/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds the (y, vy) trajectory of one body.
type PhasePortrait struct {
	Body   int
	Points []Point
}

func NewPhasePortrait(frames []dynamo.Frame, body int) *PhasePortrait {
	portrait := &PhasePortrait{Body: body, Points: make([]Point, 0, len(frames))}
	for _, f := range frames {
		if body >= len(f.Bodies) {
			return nil
		}
		b := f.Bodies[body]
		portrait.Points = append(portrait.Points, Point{X: b.Pos.Y, Y: b.Vel.Y})
	}
	return portrait
}

// PoincareSection holds (x, vx) samples taken whenever a body rises through
// a fixed height.
type PoincareSection struct {
	Body      int
	Threshold float64
	Points    []Point
}

func NewPoincareSection(frames []dynamo.Frame, body int, threshold float64) *PoincareSection {
	section := &PoincareSection{Body: body, Threshold: threshold, Points: make([]Point, 0)}
	for i := 1; i < len(frames); i++ {
		if body >= len(frames[i].Bodies) || body >= len(frames[i-1].Bodies) {
			return nil
		}
		prev, curr := frames[i-1].Bodies[body], frames[i].Bodies[body]
		if prev.Pos.Y < threshold && curr.Pos.Y >= threshold {
			section.Points = append(section.Points, Point{X: curr.Pos.X, Y: curr.Vel.X})
		}
	}
	return section
}

// PointsToASCII plots points on a width×height character grid with axes
// where zero is in range.
func PointsToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX, maxX = minX-rangeX*0.1, maxX+rangeX*0.1
	minY, maxY = minY-rangeY*0.1, maxY+rangeY*0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range grid[r] {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}

	for _, p := range points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil {
		return ""
	}
	return PointsToASCII(p.Points, width, height)
}

func (s *PoincareSection) ASCII(width, height int) string {
	if s == nil || len(s.Points) == 0 {
		return "No crossings detected"
	}
	return PointsToASCII(s.Points, width, height)
}
