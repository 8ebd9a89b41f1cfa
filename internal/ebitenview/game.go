// Package ebitenview draws a scene with ebiten instead of raylib.
package ebitenview

import (
	"errors"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
	"github.com/san-kum/bounce/internal/render"
)

var errQuit = errors.New("quit")

type Sink interface {
	Play(events []dynamo.Event)
}

// Game implements ebiten.Game for one scene. Ebiten calls Update at the
// configured tick rate and each call advances one frame.
type Game struct {
	cfg     *config.Config
	world   *physics.World
	frame   dynamo.Frame
	view    render.Viewport
	style   render.Style
	sound   Sink
	paused  bool
	bg      *ebiten.Image
	width   int
	height  int
	lastErr error
}

func NewGame(cfg *config.Config, sound Sink) (*Game, error) {
	g := &Game{sound: sound}
	if err := g.load(cfg); err != nil {
		return nil, err
	}
	g.width, g.height = cfg.WindowSize()
	if path := cfg.Render.Background; path != "" {
		img, _, err := ebitenutil.NewImageFromFile(path)
		if err == nil {
			g.bg = img
		}
	}
	return g, nil
}

func (g *Game) load(cfg *config.Config) error {
	w, err := cfg.World()
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.world = w
	g.frame = w.Snapshot()
	g.view = render.NewViewport(cfg.ArenaSpec(), cfg.Render.PixelsPerMeter)
	g.style = render.StyleFromConfig(cfg)
	return nil
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return errQuit
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := g.load(g.cfg); err != nil {
			return err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.style.Highlight = !g.style.Highlight
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.style.FlashOnCollision = !g.style.FlashOnCollision
	}
	if g.paused {
		return nil
	}

	dt := g.cfg.TimeStep()
	var events []dynamo.Event
	for i := 0; i < render.StepsPerFrame(g.cfg.FPS, dt); i++ {
		if err := g.world.Step(dt); err != nil {
			return err
		}
		events = append(events, g.world.Events()...)
	}
	g.frame = g.world.Snapshot()
	g.frame.Events = events
	if g.sound != nil && len(events) > 0 {
		g.sound.Play(events)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if g.style.ShowBackground() && g.bg != nil {
		op := &ebiten.DrawImageOptions{}
		b := g.bg.Bounds()
		op.GeoM.Scale(g.view.Width/float64(b.Dx()), g.view.Height/float64(b.Dy()))
		screen.DrawImage(g.bg, op)
	}

	hits := render.Hits(g.frame)
	outline := float32(g.style.Outline)
	for _, b := range g.frame.Bodies {
		x, y := g.view.ToScreen(b.Pos)
		r := float32(g.view.Length(b.Radius))
		vector.DrawFilledCircle(screen, float32(x), float32(y), r, g.style.Fill(b, hits[b.ID]), true)
		vector.StrokeCircle(screen, float32(x), float32(y), max(r-outline/2, 0), outline, b.Color, true)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// Run opens the window and blocks until it is closed or q is pressed.
func Run(scene string, cfg *config.Config, sound Sink) error {
	g, err := NewGame(cfg, sound)
	if err != nil {
		return err
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle("bounce: " + scene)
	ebiten.SetTPS(fps)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
