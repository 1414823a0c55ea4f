// Package store defines the user and room collaborators consumed by the
// signaling layer, with an in-memory implementation for tests and small
// deployments and a Postgres implementation for production.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested user or room does not exist.
var ErrNotFound = errors.New("not found")

// User is a registered account as exposed to the signaling layer. The
// password hash never leaves the store.
type User struct {
	ID       int64
	Username string
	Points   int
}

// NewUser is the payload for account creation.
type NewUser struct {
	Username string
	Password string
}

// Room is persisted room metadata. Live membership is tracked separately by
// the signaling layer; a Room row existing says nothing about who is in it.
type Room struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OwnerID   int64  `json:"ownerId"`
	IsPrivate bool   `json:"isPrivate"`
}

// NewRoom is the payload for room creation.
type NewRoom struct {
	Name      string
	OwnerID   int64
	IsPrivate bool
}

// UserStore resolves and creates registered users.
type UserStore interface {
	// GetUser returns ErrNotFound when no user has the given id.
	GetUser(ctx context.Context, id int64) (*User, error)
	// GetUserByUsername returns ErrNotFound when the username is unknown.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// CreateUser fails if the username is already taken.
	CreateUser(ctx context.Context, user NewUser) (*User, error)
}

// RoomStore is the authoritative source for room existence and ownership.
type RoomStore interface {
	// GetRoom returns ErrNotFound when no room has the given id.
	GetRoom(ctx context.Context, id int64) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	CreateRoom(ctx context.Context, room NewRoom) (*Room, error)
}
