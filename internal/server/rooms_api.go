package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/openrooms/relay/internal/identity"
	"github.com/openrooms/relay/internal/store"
)

// The rooms API is the HTTP path feeding the room store the signaling core
// treats as authoritative: clients create and browse rooms here, then join
// them over the WebSocket. Callers identify themselves with the same
// identity token the upgrade endpoint uses; room creation requires a
// registered user since rooms carry an owner.

type createRoomRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=64"`
	IsPrivate bool   `json:"isPrivate"`
}

type roomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OwnerID   int64  `json:"ownerId"`
	IsPrivate bool   `json:"isPrivate"`
}

func toRoomResponse(room store.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		IsPrivate: room.IsPrivate,
	}
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createRoom(w, r)
	case http.MethodGet:
		s.listRooms(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	room, err := s.roomStore.CreateRoom(r.Context(), store.NewRoom{
		Name:      req.Name,
		OwnerID:   caller.ID,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		s.log.Error("room creation failed", "owner", caller.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.log.Info("room created", "room", room.ID, "owner", caller.ID, "private", room.IsPrivate)
	writeJSON(w, http.StatusCreated, toRoomResponse(*room))
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	rooms, err := s.roomStore.ListRooms(r.Context())
	if err != nil {
		s.log.Error("room listing failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(rooms, func(room store.Room, _ int) roomResponse {
		return toRoomResponse(room)
	}))
}

func (s *Server) handleRoomByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	room, err := s.roomStore.GetRoom(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("room lookup failed", "room", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toRoomResponse(*room))
}

// authenticate resolves the caller's identity token (userId query parameter
// or X-User-ID header) to a registered user. Guests and unresolvable tokens
// get 401: the rooms API needs an owner on record.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	token := r.URL.Query().Get("userId")
	if token == "" {
		token = r.Header.Get("X-User-ID")
	}

	id, err := identity.Parse(token)
	if err != nil || id.IsGuest() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	userID, _ := id.UserID()
	user, err := s.userStore.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	if err != nil {
		s.log.Error("user lookup failed", "user", userID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
