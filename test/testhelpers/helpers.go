// Package testhelpers provides shared utilities for the relay integration
// tests: assembling an in-memory-backed server instance and driving real
// WebSocket clients against it.
package testhelpers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openrooms/relay/internal/server"
	"github.com/openrooms/relay/internal/store"
)

// SilentLogger discards all output so test logs stay readable.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewServer builds a relay server on an in-memory store and mounts it on an
// httptest listener. The origin allowlist is open so test dialers connect
// without header ceremony; origin enforcement has its own test.
func NewServer(t *testing.T) (*server.Server, *httptest.Server, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{"*"}

	srv := server.New(cfg, mem, mem, SilentLogger())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts, mem
}

// WSURL converts the httptest base URL into the upgrade endpoint URL for
// the given identity token.
func WSURL(ts *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?userId=" + token
}

// Dial opens a WebSocket connection and registers cleanup.
func Dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendJSON writes one JSON frame.
func SendJSON(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// ReadFrame reads one frame within the timeout and decodes it into a
// generic map.
func ReadFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode frame %q: %v", data, err)
	}
	return decoded
}

// ExpectNoFrame asserts that nothing arrives within the timeout.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, received %q", data)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("unexpected error while waiting for silence: %v", err)
}

// ExpectClosed asserts that the server has terminated the connection.
func ExpectClosed(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected closed connection, received %q", data)
	}
}

// UserIDs extracts the id fields from a room_users frame for compact
// assertions.
func UserIDs(t *testing.T, frame map[string]any) []any {
	t.Helper()

	users, ok := frame["users"].([]any)
	if !ok {
		t.Fatalf("frame has no users list: %v", frame)
	}
	ids := make([]any, 0, len(users))
	for _, u := range users {
		entry, ok := u.(map[string]any)
		if !ok {
			t.Fatalf("malformed user entry: %v", u)
		}
		ids = append(ids, entry["id"])
	}
	return ids
}

// PostJSON issues a JSON POST against the test server.
func PostJSON(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
