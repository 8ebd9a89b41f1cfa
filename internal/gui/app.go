// Package gui is the raylib window: the scene drawn at its native pixel
// scale, one frame per timer tick.
package gui

import (
	"fmt"
	"image/color"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
	"github.com/san-kum/bounce/internal/render"
)

var (
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

// Sink receives the events of every drawn frame.
type Sink interface {
	Play(events []dynamo.Event)
}

type App struct {
	Scene   string
	Config  *config.Config
	World   *physics.World
	Frame   dynamo.Frame
	View    render.Viewport
	Style   render.Style
	Running bool
	ShowHUD bool

	background rl.Texture2D
	hasBg      bool
	sound      Sink
	err        error
}

func rlColor(c color.RGBA) rl.Color { return rl.NewColor(c.R, c.G, c.B, c.A) }

func initWindow(cfg *config.Config, title string) {
	w, h := cfg.WindowSize()
	rl.InitWindow(int32(w), int32(h), title)
	fps := cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)
}

func NewApp(scene string, cfg *config.Config, sound Sink) (*App, error) {
	a := &App{Scene: scene, Running: true, sound: sound}
	if err := a.load(cfg); err != nil {
		return nil, err
	}
	if bg := cfg.Render.Background; bg != "" {
		if _, err := os.Stat(bg); err == nil {
			a.background = rl.LoadTexture(bg)
			a.hasBg = a.background.ID != 0
		}
	}
	return a, nil
}

func (a *App) load(cfg *config.Config) error {
	w, err := cfg.World()
	if err != nil {
		return err
	}
	a.Config = cfg
	a.World = w
	a.Frame = w.Snapshot()
	a.View = render.NewViewport(cfg.ArenaSpec(), cfg.Render.PixelsPerMeter)
	a.Style = render.StyleFromConfig(cfg)
	return nil
}

// Run opens the window and blocks until it is closed.
func Run(scene string, cfg *config.Config, sound Sink) error {
	initWindow(cfg, "bounce: "+scene)
	defer rl.CloseWindow()

	app, err := NewApp(scene, cfg, sound)
	if err != nil {
		return err
	}
	defer app.Close()
	app.RunLoop()
	return app.err
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) Close() {
	if a.hasBg {
		rl.UnloadTexture(a.background)
	}
}

// Update handles input and advances the world by one frame. It returns
// false when the user asks to quit.
func (a *App) Update() bool {
	switch {
	case rl.IsKeyPressed(rl.KeyQ), rl.IsKeyPressed(rl.KeyEscape):
		return false
	case rl.IsKeyPressed(rl.KeySpace):
		a.Running = !a.Running
	case rl.IsKeyPressed(rl.KeyR):
		if err := a.load(a.Config); err != nil {
			a.err = err
			return false
		}
	case rl.IsKeyPressed(rl.KeyH):
		a.Style.Highlight = !a.Style.Highlight
	case rl.IsKeyPressed(rl.KeyF):
		a.Style.FlashOnCollision = !a.Style.FlashOnCollision
	case rl.IsKeyPressed(rl.KeyTab):
		a.ShowHUD = !a.ShowHUD
	}

	if !a.Running {
		return true
	}

	dt := a.Config.TimeStep()
	var events []dynamo.Event
	for i := 0; i < render.StepsPerFrame(a.Config.FPS, dt); i++ {
		if err := a.World.Step(dt); err != nil {
			a.err = err
			return false
		}
		events = append(events, a.World.Events()...)
	}
	a.Frame = a.World.Snapshot()
	a.Frame.Events = events
	if a.sound != nil && len(events) > 0 {
		a.sound.Play(events)
	}
	return true
}

func (a *App) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(rl.Black)
	if a.Style.ShowBackground() && a.hasBg {
		rl.DrawTexturePro(a.background,
			rl.NewRectangle(0, 0, float32(a.background.Width), float32(a.background.Height)),
			rl.NewRectangle(0, 0, float32(a.View.Width), float32(a.View.Height)),
			rl.NewVector2(0, 0), 0, rl.White)
	}

	hits := render.Hits(a.Frame)
	outline := float32(a.Style.Outline)
	for _, b := range a.Frame.Bodies {
		x, y := a.View.ToScreen(b.Pos)
		center := rl.NewVector2(float32(x), float32(y))
		r := float32(a.View.Length(b.Radius))
		rl.DrawCircleV(center, r, rlColor(a.Style.Fill(b, hits[b.ID])))
		rl.DrawRing(center, max(r-outline, 0), r, 0, 360, 48, rlColor(b.Color))
	}

	if a.ShowHUD {
		a.drawHUD()
	}
}

func (a *App) drawHUD() {
	f := a.Frame
	lines := []string{
		a.Scene,
		fmt.Sprintf("t=%.2fs  step=%d", f.Time, f.Step),
		fmt.Sprintf("KE=%.3f  |p|=%.3f", f.KineticEnergy(), f.Momentum().Len()),
		fmt.Sprintf("%d FPS", rl.GetFPS()),
	}
	for i, s := range lines {
		col := ColText
		if i == len(lines)-1 {
			col = ColTextDim
		}
		rl.DrawText(s, 12, int32(12+18*i), 16, col)
	}
}
