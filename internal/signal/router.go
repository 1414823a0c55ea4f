package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openrooms/relay/internal/identity"
	"github.com/openrooms/relay/internal/store"
)

// State is the lifecycle phase of one participant connection.
type State uint8

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

// ErrUnresolvedIdentity is returned by Connect when the identity token is
// missing, malformed, or names an unknown user. The connection must be
// terminated immediately with no message exchanged.
var ErrUnresolvedIdentity = errors.New("unresolved identity")

// Session is the router-side state for one connection.
type Session struct {
	id    identity.ID
	conn  Conn
	state State
}

// ID returns the participant identity bound to the session.
func (s *Session) ID() identity.ID { return s.id }

// State returns the session's lifecycle phase.
func (s *Session) State() State { return s.state }

// Router interprets inbound frames, mutates the shared membership state, and
// decides fan-out per message kind. All cross-table mutations serialize on a
// single mutex so concurrent connections cannot corrupt the member sets or
// leak empty rooms; no socket I/O happens while it is held.
type Router struct {
	users     store.UserStore
	roomStore store.RoomStore
	registry  *Registry
	rooms     *Rooms
	presence  *Presence
	log       *slog.Logger

	mu sync.Mutex // serializes attach / join / leave / purge+remove
}

// NewRouter builds a router owning the given shared tables. State is
// injected at construction; there are no package-level singletons.
func NewRouter(users store.UserStore, roomStore store.RoomStore, registry *Registry, rooms *Rooms, presence *Presence, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		users:     users,
		roomStore: roomStore,
		registry:  registry,
		rooms:     rooms,
		presence:  presence,
		log:       log,
	}
}

// Registry exposes the connection registry for shutdown coordination.
func (r *Router) Registry() *Registry { return r.registry }

// Connect resolves the connection-establishment token into an authenticated
// session (CONNECTING -> AUTHENTICATED). Registered tokens must resolve
// against the user store; guest tokens are accepted as-is. On failure the
// caller closes the transport without sending anything.
func (r *Router) Connect(ctx context.Context, token string) (*Session, error) {
	id, err := identity.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvedIdentity, err)
	}

	if userID, registered := id.UserID(); registered {
		if _, err := r.users.GetUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("%w: user %d: %v", ErrUnresolvedIdentity, userID, err)
		}
	}

	return &Session{id: id, state: StateAuthenticated}, nil
}

// Attach binds the live handle to the session and registers it. A prior
// handle for the same identity is superseded and closed here; its own
// teardown then finds the registration gone and leaves the shared state
// alone.
func (r *Router) Attach(s *Session, conn Conn) {
	s.conn = conn

	r.mu.Lock()
	superseded := r.registry.Add(s.id, conn)
	r.mu.Unlock()

	if superseded != nil {
		r.log.Info("connection superseded", "participant", s.id)
		_ = superseded.Close()
	}
}

// Handle processes one inbound frame. Malformed frames and unknown kinds
// are logged and dropped; the connection stays open, because one bad
// message must not terminate an otherwise-healthy session.
func (r *Router) Handle(ctx context.Context, s *Session, frame []byte) {
	if s.state == StateClosed {
		return
	}
	if s.state == StateAuthenticated {
		s.state = StateActive
	}

	msg, err := Decode(frame)
	if err != nil {
		r.log.Warn("dropping malformed frame", "participant", s.id, "error", err)
		return
	}

	switch {
	case msg.Type == KindJoinRoom:
		r.handleJoin(ctx, s, msg.RoomID)
	case msg.Type == KindLeaveRoom:
		r.handleLeave(ctx, s, msg.RoomID)
	case msg.IsRelay():
		// Verbatim point-to-point relay. No membership check: the sender is
		// trusted to target a valid peer, and an absent target is a benign
		// no-op since the peer may have just disconnected.
		r.registry.Send(*msg.Target, frame)
	case msg.Type == KindChatMessage:
		r.handleChat(s, msg.RoomID, frame)
	case msg.Type == KindError:
		r.log.Info("client error report", "participant", s.id, "message", msg.Text)
	}
}

// handleJoin validates room existence against the room store; unknown rooms
// are silently ignored since existence is authoritative there, not here.
func (r *Router) handleJoin(ctx context.Context, s *Session, roomID int64) {
	if _, err := r.roomStore.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.log.Debug("join ignored, unknown room", "participant", s.id, "room", roomID)
		} else {
			r.log.Warn("join dropped, room lookup failed", "participant", s.id, "room", roomID, "error", err)
		}
		return
	}

	r.mu.Lock()
	r.rooms.Join(roomID, s.id)
	r.mu.Unlock()

	r.presence.Announce(ctx, roomID)
}

// handleLeave removes the participant and rebroadcasts presence to the
// remaining members right away, so their lists do not go stale until the
// next join.
func (r *Router) handleLeave(ctx context.Context, s *Session, roomID int64) {
	r.mu.Lock()
	r.rooms.Leave(roomID, s.id)
	r.mu.Unlock()

	r.presence.Announce(ctx, roomID)
}

// handleChat fans the raw frame out to every current member of the room,
// sender included: the echo doubles as the sender's delivery confirmation.
func (r *Router) handleChat(s *Session, roomID int64, frame []byte) {
	for _, member := range r.rooms.MembersOf(roomID) {
		r.registry.Send(member, frame)
	}
}

// Disconnect finalizes the session on transport closure (ACTIVE -> CLOSED).
// While the session still owns its registration, membership is purged first
// and the handle removed second, under the same lock ordering joins use, so
// no broadcast can reach the removed identity mid-teardown and the last
// writer wins deterministically. A superseded session skips the purge: the
// identity lives on under its replacement handle.
func (r *Router) Disconnect(ctx context.Context, s *Session) {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed

	r.mu.Lock()
	var affected []int64
	if r.registry.Get(s.id) == s.conn {
		affected = r.rooms.Purge(s.id)
		r.registry.RemoveIf(s.id, s.conn)
	}
	r.mu.Unlock()

	for _, roomID := range affected {
		r.presence.Announce(ctx, roomID)
	}
	if len(affected) > 0 {
		r.log.Info("participant disconnected", "participant", s.id, "rooms", len(affected))
	}
}
