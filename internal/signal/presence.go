package signal

import (
	"context"
	"log/slog"

	"github.com/openrooms/relay/internal/store"
)

// Presence recomputes and pushes the authoritative member list of a room.
//
// Announce reflects membership as of the moment it is invoked; concurrent
// joins are not collapsed into one snapshot, so a burst of joins may emit
// several back-to-back broadcasts, each internally consistent.
type Presence struct {
	rooms    *Rooms
	registry *Registry
	users    store.UserStore
	log      *slog.Logger
}

// NewPresence wires the broadcaster against the shared tables and the user
// store collaborator.
func NewPresence(rooms *Rooms, registry *Registry, users store.UserStore, log *slog.Logger) *Presence {
	if log == nil {
		log = slog.Default()
	}
	return &Presence{rooms: rooms, registry: registry, users: users, log: log}
}

// Announce pushes a room_users frame with the full member list to every
// member of the room. Registered identities are resolved to their stored
// profiles; guests get a synthesized profile carrying their tag and zero
// points. Members whose profile lookup fails are omitted from the list but
// still receive the broadcast.
func (p *Presence) Announce(ctx context.Context, roomID int64) {
	members := p.rooms.MembersOf(roomID)
	if len(members) == 0 {
		return
	}

	users := make([]RoomUser, 0, len(members))
	for _, id := range members {
		userID, registered := id.UserID()
		if !registered {
			users = append(users, RoomUser{ID: id, Username: id.String()})
			continue
		}
		profile, err := p.users.GetUser(ctx, userID)
		if err != nil {
			p.log.Warn("presence lookup failed", "room", roomID, "user", userID, "error", err)
			continue
		}
		users = append(users, RoomUser{ID: id, Username: profile.Username, Points: profile.Points})
	}

	frame, err := EncodeRoomUsers(roomID, users)
	if err != nil {
		p.log.Error("presence encode failed", "room", roomID, "error", err)
		return
	}

	for _, id := range members {
		p.registry.Send(id, frame)
	}
	p.log.Debug("presence announced", "room", roomID, "members", len(members))
}
