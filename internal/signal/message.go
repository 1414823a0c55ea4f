// Package signal implements the real-time signaling core: the connection
// registry, the room membership table, the message router, and the presence
// broadcaster. It owns all process-wide mutable state shared between
// participant connections.
package signal

import (
	"encoding/json"
	"fmt"

	"github.com/openrooms/relay/internal/identity"
)

// Kind tags a wire message.
type Kind string

const (
	KindJoinRoom     Kind = "join_room"
	KindLeaveRoom    Kind = "leave_room"
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindICECandidate Kind = "ice_candidate"
	KindChatMessage  Kind = "chat_message"
	KindRoomUsers    Kind = "room_users" // server to client only
	KindError        Kind = "error"      // server to client only
)

// RoomUser is one entry of a room_users presence list.
type RoomUser struct {
	ID       identity.ID `json:"id"`
	Username string      `json:"username"`
	Points   int         `json:"points"`
}

// Message is the JSON envelope exchanged over the WebSocket. Only the fields
// belonging to the tagged kind are populated. The offer, answer, and
// candidate payloads are opaque blobs: the server routes them verbatim and
// never inspects their contents.
type Message struct {
	Type      Kind            `json:"type"`
	RoomID    int64           `json:"roomId,omitempty"`
	Target    *identity.ID    `json:"target,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Text      string          `json:"message,omitempty"`
	Users     []RoomUser      `json:"users,omitempty"`
}

// roomUsersFrame always carries the users array, even when empty, so
// clients can clear their lists.
type roomUsersFrame struct {
	Type   Kind       `json:"type"`
	RoomID int64      `json:"roomId"`
	Users  []RoomUser `json:"users"`
}

// IsRelay reports whether the message is a point-to-point negotiation
// message forwarded verbatim to its target.
func (m *Message) IsRelay() bool {
	switch m.Type {
	case KindOffer, KindAnswer, KindICECandidate:
		return true
	default:
		return false
	}
}

// Decode parses and validates an inbound frame. The returned error marks the
// frame as malformed; per the error-handling contract the caller logs and
// drops it without closing the connection.
func Decode(frame []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Message) validate() error {
	switch m.Type {
	case KindJoinRoom, KindLeaveRoom:
		if m.RoomID <= 0 {
			return fmt.Errorf("%s: missing roomId", m.Type)
		}
	case KindOffer:
		return m.validateRelay(m.Offer, "offer")
	case KindAnswer:
		return m.validateRelay(m.Answer, "answer")
	case KindICECandidate:
		return m.validateRelay(m.Candidate, "candidate")
	case KindChatMessage:
		if m.RoomID <= 0 {
			return fmt.Errorf("%s: missing roomId", m.Type)
		}
	case KindError:
		// Advisory only; any payload is acceptable.
	case "":
		return fmt.Errorf("missing message type")
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

func (m *Message) validateRelay(payload json.RawMessage, field string) error {
	if m.Target == nil || m.Target.IsZero() {
		return fmt.Errorf("%s: missing target", m.Type)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%s: missing %s payload", m.Type, field)
	}
	return nil
}

// EncodeRoomUsers builds the presence frame pushed to every room member.
func EncodeRoomUsers(roomID int64, users []RoomUser) ([]byte, error) {
	if users == nil {
		users = []RoomUser{}
	}
	frame, err := json.Marshal(roomUsersFrame{
		Type:   KindRoomUsers,
		RoomID: roomID,
		Users:  users,
	})
	if err != nil {
		return nil, fmt.Errorf("encode room_users: %w", err)
	}
	return frame, nil
}
