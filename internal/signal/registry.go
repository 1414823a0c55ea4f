package signal

import (
	"sync"

	"github.com/samber/lo"

	"github.com/openrooms/relay/internal/identity"
)

// Conn is the live duplex handle for one participant connection. Send must
// not block: implementations queue the frame and report an error only when
// the transport is closed or the queue is full. Either way the signaling
// layer treats a failed send as benign.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

// Registry maps participant identities to their live connection handles.
// Pure bookkeeping: it never closes a handle it replaces, the caller does.
type Registry struct {
	mu    sync.RWMutex
	conns map[identity.ID]Conn
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[identity.ID]Conn)}
}

// Add stores the handle for id and returns any prior handle it superseded.
// The registry holds at most one handle per identity.
func (r *Registry) Add(id identity.ID, conn Conn) (superseded Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := r.conns[id]
	r.conns[id] = conn
	if prior == conn {
		return nil
	}
	return prior
}

// Remove drops the entry for id.
func (r *Registry) Remove(id identity.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, id)
}

// RemoveIf drops the entry for id only while conn is still the registered
// handle, and reports whether it did. A connection that was superseded by a
// reconnect must not tear down its successor's registration.
func (r *Registry) RemoveIf(id identity.ID, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[id] != conn {
		return false
	}
	delete(r.conns, id)
	return true
}

// Get returns the live handle for id, or nil when the participant is not
// connected.
func (r *Registry) Get(id identity.ID) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.conns[id]
}

// Send delivers a frame to id if a handle is present. Absent participants
// and dead transports are silently skipped: disconnects are expected, and a
// recipient that is gone must never block or fail the sender.
func (r *Registry) Send(id identity.ID, frame []byte) {
	conn := r.Get(id)
	if conn == nil {
		return
	}
	_ = conn.Send(frame)
}

// Handles returns a snapshot of all live handles, used at shutdown.
func (r *Registry) Handles() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.conns)
}

// Len reports the number of connected participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
