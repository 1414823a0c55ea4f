package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process store with auto-incrementing ids. It backs tests
// and deployments without a configured database.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]User
	rooms      map[int64]Room
	passwords  map[int64]string
	nextUserID int64
	nextRoomID int64
}

var (
	_ UserStore = (*Memory)(nil)
	_ RoomStore = (*Memory)(nil)
)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]User),
		rooms:      make(map[int64]Room),
		passwords:  make(map[int64]string),
		nextUserID: 1,
		nextRoomID: 1,
	}
}

func (m *Memory) GetUser(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (m *Memory) CreateUser(_ context.Context, user NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == user.Username {
			return nil, fmt.Errorf("username %q already exists", user.Username)
		}
	}

	created := User{ID: m.nextUserID, Username: user.Username}
	m.users[created.ID] = created
	m.passwords[created.ID] = user.Password
	m.nextUserID++
	return &created, nil
}

func (m *Memory) GetRoom(_ context.Context, id int64) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	return &room, nil
}

func (m *Memory) ListRooms(_ context.Context) ([]Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (m *Memory) CreateRoom(_ context.Context, room NewRoom) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := Room{
		ID:        m.nextRoomID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		IsPrivate: room.IsPrivate,
	}
	m.rooms[created.ID] = created
	m.nextRoomID++
	return &created, nil
}

// SeedUser inserts a user with known id and points, for tests.
func (m *Memory) SeedUser(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.ID] = user
	if user.ID >= m.nextUserID {
		m.nextUserID = user.ID + 1
	}
}

// SeedRoom inserts a room with a known id, for tests.
func (m *Memory) SeedRoom(room Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms[room.ID] = room
	if room.ID >= m.nextRoomID {
		m.nextRoomID = room.ID + 1
	}
}
