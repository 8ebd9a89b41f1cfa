// Package server steps a scene on a ticker and streams its frames to
// websocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
	"github.com/san-kum/bounce/internal/render"
)

const clientBuffer = 16

type Server struct {
	scene  string
	cfg    *config.Config
	logger *log.Logger

	mu      sync.RWMutex
	world   *physics.World
	latest  FrameMessage
	clients map[*websocket.Conn]chan FrameMessage
}

func New(scene string, cfg *config.Config, logger *log.Logger) (*Server, error) {
	w, err := cfg.World()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		scene:   scene,
		cfg:     cfg,
		logger:  logger,
		world:   w,
		latest:  newFrameMessage(scene, cfg, w.Snapshot()),
		clients: make(map[*websocket.Conn]chan FrameMessage),
	}, nil
}

// Latest returns the most recent frame.
func (s *Server) Latest() FrameMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Tick advances the world by one frame and broadcasts it. Slow subscribers
// miss frames rather than stall the loop.
func (s *Server) Tick() error {
	dt := s.cfg.TimeStep()

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []dynamo.Event
	for i := 0; i < render.StepsPerFrame(s.cfg.FPS, dt); i++ {
		if err := s.world.Step(dt); err != nil {
			return err
		}
		events = append(events, s.world.Events()...)
	}
	f := s.world.Snapshot()
	f.Events = events
	s.latest = newFrameMessage(s.scene, s.cfg, f)

	for _, ch := range s.clients {
		select {
		case ch <- s.latest:
		default:
		}
	}
	return nil
}

// Run ticks at the scene frame rate until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	fps := s.cfg.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

func (s *Server) subscribe(ws *websocket.Conn) chan FrameMessage {
	ch := make(chan FrameMessage, clientBuffer)
	s.mu.Lock()
	s.clients[ws] = ch
	ch <- s.latest
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ws *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, ws)
	s.mu.Unlock()
}

// HandleSubscribe streams every frame to ws as JSON until the client goes
// away.
func (s *Server) HandleSubscribe(ws *websocket.Conn) {
	addr := ws.Request().RemoteAddr
	s.logger.Debug("subscriber connected", "addr", addr)
	defer func() {
		s.unsubscribe(ws)
		ws.Close()
		s.logger.Debug("subscriber left", "addr", addr)
	}()

	ch := s.subscribe(ws)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard json.RawMessage
		for {
			if err := websocket.JSON.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg := <-ch:
			if err := websocket.JSON.Send(ws, msg); err != nil {
				return
			}
		}
	}
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Latest()); err != nil {
		s.logger.Error("encode state", "err", err)
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe))
	mux.HandleFunc("/state", s.HandleState)
	return mux
}

// ListenAndServe runs the tick loop and the HTTP listener until ctx is
// done or either fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.Run(ctx) })
	g.Go(func() error {
		s.logger.Info("serving", "addr", addr, "scene", s.scene)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}
