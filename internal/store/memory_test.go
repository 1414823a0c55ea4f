package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryUsers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := NewMemory()

	created, err := mem.CreateUser(ctx, NewUser{Username: "alice", Password: "hash"})
	req.NoError(err)
	req.Equal(int64(1), created.ID)
	req.Equal("alice", created.Username)
	req.Zero(created.Points)

	got, err := mem.GetUser(ctx, created.ID)
	req.NoError(err)
	req.Equal(*created, *got)

	byName, err := mem.GetUserByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)

	_, err = mem.GetUser(ctx, 99)
	req.ErrorIs(err, ErrNotFound)

	_, err = mem.CreateUser(ctx, NewUser{Username: "alice", Password: "other"})
	req.Error(err)
}

func TestMemoryRooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := NewMemory()

	first, err := mem.CreateRoom(ctx, NewRoom{Name: "standup", OwnerID: 1})
	req.NoError(err)
	second, err := mem.CreateRoom(ctx, NewRoom{Name: "lounge", OwnerID: 2, IsPrivate: true})
	req.NoError(err)
	req.Equal(first.ID+1, second.ID)

	got, err := mem.GetRoom(ctx, second.ID)
	req.NoError(err)
	req.True(got.IsPrivate)
	req.Equal(int64(2), got.OwnerID)

	_, err = mem.GetRoom(ctx, 42)
	req.ErrorIs(err, ErrNotFound)

	rooms, err := mem.ListRooms(ctx)
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal([]int64{first.ID, second.ID}, []int64{rooms[0].ID, rooms[1].ID})
}

func TestMemorySeedAdvancesIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := NewMemory()

	mem.SeedUser(User{ID: 10, Username: "bob", Points: 5})
	mem.SeedRoom(Room{ID: 7, Name: "demo", OwnerID: 10})

	user, err := mem.CreateUser(ctx, NewUser{Username: "carol"})
	req.NoError(err)
	req.Equal(int64(11), user.ID)

	room, err := mem.CreateRoom(ctx, NewRoom{Name: "next", OwnerID: 10})
	req.NoError(err)
	req.Equal(int64(8), room.ID)
}
