// Package server implements the HTTP and WebSocket surface of the relay
// signaling service.
//
// The signaling semantics live in internal/signal; this package binds them
// to gorilla/websocket connections, enforces origin and rate-limit policy,
// and exposes the rooms API that feeds the room store.
package server
