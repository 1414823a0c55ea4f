package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openrooms/relay/internal/signal"
)

// handleWebSocket upgrades the connection and resolves the participant
// identity from the userId query parameter. The upgrade happens first so
// that an unresolvable identity terminates an established WebSocket with no
// signaling payload, matching the connection state machine: a failed
// CONNECTING -> AUTHENTICATED transition goes straight to CLOSED.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "WebSocket endpoint only accepts GET requests", http.StatusMethodNotAllowed)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	token := r.URL.Query().Get("userId")
	sess, err := s.router.Connect(r.Context(), token)
	if err != nil {
		if errors.Is(err, signal.ErrUnresolvedIdentity) {
			s.log.Warn("rejecting connection", "remote", r.RemoteAddr, "error", err)
		} else {
			s.log.Error("identity resolution failed", "remote", r.RemoteAddr, "error", err)
		}
		_ = ws.Close()
		return
	}

	c := newClient(ws, sess, s.router, s.cfg, s.log)
	s.router.Attach(sess, c)
	c.run(&s.pumps)

	s.log.Info("participant connected", "participant", sess.ID(), "remote", r.RemoteAddr)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "relay signaling server is running")
}
