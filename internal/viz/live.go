package viz

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
	"github.com/san-kum/bounce/internal/render"
)

const (
	defaultCols     = 72
	defaultRows     = 20
	historyCapacity = 600
	statsWidth      = 44
)

// CollisionSink receives the contacts of every displayed step.
type CollisionSink interface {
	Play(events []dynamo.Event)
}

type TickMsg time.Time

// ReloadMsg swaps in a new scene, typically from a config watcher.
type ReloadMsg struct{ Config *config.Config }

type errMsg struct{ err error }

// Model is the bubbletea live view of a running world.
type Model struct {
	scene  string
	cfg    *config.Config
	world  *physics.World
	frame  dynamo.Frame
	style  render.Style
	sound  CollisionSink
	reload <-chan *config.Config

	canvas *Canvas
	view   render.Viewport

	running   bool
	themeIdx  int
	err       error
	energy    []float64
	history   []dynamo.Frame
	playHead  int
	ballHits  int
	wallHits  int
	recording bool
	recorder  *Recorder
	showHelp  bool
}

type Option func(*Model)

// WithSound plays collisions through s.
func WithSound(s CollisionSink) Option { return func(m *Model) { m.sound = s } }

// WithReload listens for replacement configs on ch.
func WithReload(ch <-chan *config.Config) Option { return func(m *Model) { m.reload = ch } }

func WithTheme(name string) Option { return func(m *Model) { m.themeIdx = themeIndex(name) } }

func NewModel(scene string, cfg *config.Config, opts ...Option) (Model, error) {
	m := Model{
		scene:    scene,
		running:  true,
		playHead: -1,
		canvas:   NewCanvas(defaultCols, defaultRows),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if err := m.load(cfg); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) load(cfg *config.Config) error {
	w, err := cfg.World()
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.world = w
	m.frame = w.Snapshot()
	m.style = render.StyleFromConfig(cfg)
	m.energy = m.energy[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.ballHits, m.wallHits = 0, 0
	m.fit()
	return nil
}

func (m *Model) fit() {
	pw, ph := m.canvas.PixelSize()
	m.view = render.Fit(m.cfg.ArenaSpec(), float64(pw-1), float64(ph-1))
}

func (m Model) tick() tea.Cmd {
	fps := m.cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) waitReload() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	ch := m.reload
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return ReloadMsg{Config: cfg}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitReload())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.load(m.cfg); err != nil {
				m.err = err
			}
		case "s":
			if !m.running {
				m.step()
			}
		case "h":
			m.style.Highlight = !m.style.Highlight
		case "f":
			m.style.FlashOnCollision = !m.style.FlashOnCollision
		case "t":
			m.themeIdx = (m.themeIdx + 1) % len(Themes)
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		cols := max(msg.Width-statsWidth-4, 16)
		rows := max(msg.Height-4, 8)
		m.canvas = NewCanvas(cols, rows)
		m.fit()
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.canvas)
		}
		return m, m.tick()
	case ReloadMsg:
		if err := m.load(msg.Config); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, m.waitReload()
	case errMsg:
		m.err = msg.err
	}
	return m, nil
}

// step advances one displayed frame, which may be several physics steps
// when dt is smaller than the frame time.
func (m *Model) step() {
	dt := m.cfg.TimeStep()
	n := render.StepsPerFrame(m.cfg.FPS, dt)

	var events []dynamo.Event
	for i := 0; i < n; i++ {
		if err := m.world.Step(dt); err != nil {
			m.err = err
			m.running = false
			return
		}
		events = append(events, m.world.Events()...)
	}
	m.frame = m.world.Snapshot()
	m.frame.Events = events

	for _, e := range events {
		if e.Kind == dynamo.BallBall {
			m.ballHits++
		} else {
			m.wallHits++
		}
	}
	if m.sound != nil && len(events) > 0 {
		m.sound.Play(events)
	}

	m.energy = append(m.energy, m.totalEnergy(m.frame))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	m.history = append(m.history, m.frame)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) toggleRecording() {
	if m.recording {
		if _, err := m.recorder.Save(fmt.Sprintf("%s.gif", m.scene)); err != nil {
			m.err = err
		}
		m.recording = false
		m.recorder = nil
		return
	}
	m.recorder = NewRecorder(m.cfg.FPS)
	m.recording = true
}

func (m Model) totalEnergy(f dynamo.Frame) float64 {
	return f.KineticEnergy() + f.PotentialEnergy(m.cfg.Arena.Gravity)
}

func (m Model) shown() dynamo.Frame {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.frame
}

// draw paints the arena walls and every ball outline.
func (m *Model) draw() {
	m.canvas.Clear()
	w := int(m.view.Width)
	h := int(m.view.Height)
	m.canvas.DrawRect(0, 0, w, h, rgba(Themes[m.themeIdx].Wall))

	f := m.shown()
	hits := render.Hits(f)
	for _, b := range f.Bodies {
		x, y := m.view.ToScreen(b.Pos)
		r := int(math.Round(m.view.Length(b.Radius)))
		cx, cy := int(math.Round(x)), int(math.Round(y))
		if fill := m.style.Fill(b, hits[b.ID]); fill != render.Black {
			m.canvas.FillCircle(cx, cy, r, fill)
		}
		m.canvas.DrawCircle(cx, cy, r, b.Color)
	}
}

func (m Model) View() string {
	theme := Themes[m.themeIdx]
	st := newStyles(theme, m.style.Highlight)
	f := m.shown()

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.scene), theme.Title, theme.Accent) + "\n")

	status := st.running.Render("RUNNING")
	switch {
	case m.playHead != -1:
		back := m.frame.Time - f.Time
		status = st.paused.Render(fmt.Sprintf("REPLAY -%.2fs", back))
	case !m.running:
		status = st.paused.Render("PAUSED")
	}
	if m.recording {
		status += " " + st.rec.Render("● REC")
	}
	s.WriteString(status + "\n\n")

	s.WriteString(st.row("Time", "%.2fs", f.Time))
	s.WriteString(st.row("Step", "%d", f.Step))
	s.WriteString(st.row("Balls", "%d", len(f.Bodies)))
	ke := f.KineticEnergy()
	pe := f.PotentialEnergy(m.cfg.Arena.Gravity)
	s.WriteString(st.row("Kinetic", "%.3f J", ke))
	s.WriteString(st.row("Potential", "%.3f J", pe))
	s.WriteString(st.row("Total", "%.3f J", ke+pe))
	s.WriteString(st.row("Momentum", "%.3f", f.Momentum().Len()))
	s.WriteString(st.row("Hits", "%d ball / %d wall", m.ballHits, m.wallHits))
	s.WriteString(st.row("Theme", "%s", theme.Name))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(statsWidth-14), asciigraph.Caption("energy"))
		s.WriteString("\n" + st.graph.Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + st.rec.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:pause R:reset S:step Q:quit\nH:highlight F:flash T:theme\n[ ]:rewind G:record ?:help"))

	arena := st.panel.Render(strings.TrimRight(m.canvas.Render(theme.Muted), "\n"))
	main := lipgloss.JoinHorizontal(lipgloss.Top, arena, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space  pause / resume
  R      reset the scene
  S      single step while paused
  H      toggle highlight
  F      color balls on contact
  T      cycle themes
  [ ]    rewind / forward through history
  G      start / stop GIF recording
  Q      quit
`

func rgba(c lipgloss.Color) color.RGBA {
	r, g, b := parseHex(string(c))
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// Run starts the live view and blocks until the user quits.
func Run(scene string, cfg *config.Config, opts ...Option) error {
	m, err := NewModel(scene, cfg, opts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
