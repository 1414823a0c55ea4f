package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/openrooms/relay/internal/signal"
	"github.com/openrooms/relay/internal/store"
)

// Server owns the signaling router, its shared state, and the HTTP surface.
// All state is constructed here and injected downwards; nothing lives in
// package-level singletons, so tests can run independent instances side by
// side.
type Server struct {
	cfg       Config
	log       *slog.Logger
	router    *signal.Router
	userStore store.UserStore
	roomStore store.RoomStore
	origins   *originChecker
	upgrader  websocket.Upgrader
	validate  *validator.Validate
	httpSrv   *http.Server

	pumps sync.WaitGroup
}

// New assembles a server from its collaborators.
func New(cfg Config, users store.UserStore, roomStore store.RoomStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.sanitized()

	registry := signal.NewRegistry()
	rooms := signal.NewRooms()
	presence := signal.NewPresence(rooms, registry, users, log)
	router := signal.NewRouter(users, roomStore, registry, rooms, presence, log)

	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    router,
		userStore: users,
		roomStore: roomStore,
		origins:   newOriginChecker(cfg.AllowedOrigins, log),
		validate:  validator.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	s.httpSrv = &http.Server{
		Addr:        cfg.Port,
		Handler:     s.Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Routes returns the HTTP mux so tests can mount it on their own listener.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/rooms/", s.handleRoomByID)
	return mux
}

// Start listens and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.cfg.Port)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting new connections, closes every live participant
// handle, and waits for the pump goroutines to finish or the context to
// expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")

	if err := s.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn("http shutdown", "error", err)
	}

	handles := s.router.Registry().Handles()
	for _, conn := range handles {
		_ = conn.Close()
	}
	s.log.Info("closed participant connections", "count", len(handles))

	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("shutdown complete")
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout reached, pumps may still be running")
		return ctx.Err()
	}
}
