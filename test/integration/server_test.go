package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openrooms/relay/internal/store"
	"github.com/openrooms/relay/test/testhelpers"
)

func TestHealthOverHTTP(t *testing.T) {
	req := require.New(t)
	_, ts, _ := testhelpers.NewServer(t)

	resp, err := http.Get(ts.URL + "/")
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), "running")
}

// A room created through the HTTP API is immediately joinable over the
// WebSocket endpoint.
func TestCreateRoomThenJoin(t *testing.T) {
	req := require.New(t)
	_, ts, mem := testhelpers.NewServer(t)
	mem.SeedUser(store.User{ID: 1, Username: "alice", Points: 10})

	resp := testhelpers.PostJSON(t, ts, "/api/rooms?userId=1", `{"name":"planning"}`)
	req.Equal(http.StatusCreated, resp.StatusCode)

	var room struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&room))
	req.Equal("planning", room.Name)

	conn := testhelpers.Dial(t, testhelpers.WSURL(ts, "1"))
	testhelpers.SendJSON(t, conn, map[string]any{"type": "join_room", "roomId": room.ID})

	frame := testhelpers.ReadFrame(t, conn, frameWait)
	req.Equal("room_users", frame["type"])
	req.Equal([]any{float64(1)}, testhelpers.UserIDs(t, frame))
}

func TestListRoomsReflectsCreations(t *testing.T) {
	req := require.New(t)
	_, ts, mem := testhelpers.NewServer(t)
	mem.SeedUser(store.User{ID: 1, Username: "alice", Points: 10})

	resp := testhelpers.PostJSON(t, ts, "/api/rooms?userId=1", `{"name":"standup"}`)
	req.Equal(http.StatusCreated, resp.StatusCode)
	resp = testhelpers.PostJSON(t, ts, "/api/rooms?userId=1", `{"name":"retro","isPrivate":true}`)
	req.Equal(http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/rooms?userId=1")
	req.NoError(err)
	defer listResp.Body.Close()
	req.Equal(http.StatusOK, listResp.StatusCode)

	var rooms []struct {
		Name      string `json:"name"`
		IsPrivate bool   `json:"isPrivate"`
	}
	req.NoError(json.NewDecoder(listResp.Body).Decode(&rooms))
	req.Len(rooms, 2)
	req.Equal("standup", rooms[0].Name)
	req.True(rooms[1].IsPrivate)
}
