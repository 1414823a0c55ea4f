package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginCheckerAllowlist(t *testing.T) {
	checker := newOriginChecker([]string{"http://localhost:8080", "HTTPS://App.Example.COM"}, slog.Default())

	assert.True(t, checker.check(requestWithOrigin("http://localhost:8080")))
	assert.True(t, checker.check(requestWithOrigin("https://app.example.com")))
	// Scheme and host comparison is case-insensitive.
	assert.True(t, checker.check(requestWithOrigin("HTTP://LOCALHOST:8080")))

	assert.False(t, checker.check(requestWithOrigin("http://evil.example.com")))
	assert.False(t, checker.check(requestWithOrigin("")))
	assert.False(t, checker.check(requestWithOrigin("::::")))
}

func TestOriginCheckerWildcard(t *testing.T) {
	checker := newOriginChecker([]string{"*"}, slog.Default())

	assert.True(t, checker.check(requestWithOrigin("http://anywhere.example.com")))
	// Wildcard also admits requests with no Origin header (non-browser clients).
	assert.True(t, checker.check(requestWithOrigin("")))
}

func TestOriginCheckerSkipsInvalidConfigEntries(t *testing.T) {
	checker := newOriginChecker([]string{"", "   ", "not a url", "http://ok.example.com"}, slog.Default())

	assert.True(t, checker.check(requestWithOrigin("http://ok.example.com")))
	assert.False(t, checker.check(requestWithOrigin("http://not a url")))
}
