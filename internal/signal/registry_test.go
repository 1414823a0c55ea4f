package signal

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openrooms/relay/internal/identity"
)

// fakeConn records frames delivered to one participant. Shared by the
// signal package tests.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = string(f)
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegistryAddGetRemove(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	alice := identity.Registered(1)
	conn := &fakeConn{}

	req.Nil(reg.Get(alice))
	req.Nil(reg.Add(alice, conn))
	req.Same(conn, reg.Get(alice).(*fakeConn))
	req.Equal(1, reg.Len())

	reg.Remove(alice)
	req.Nil(reg.Get(alice))
	req.Zero(reg.Len())
}

func TestRegistryAddSupersedesPriorHandle(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	alice := identity.Registered(1)
	first := &fakeConn{}
	second := &fakeConn{}

	req.Nil(reg.Add(alice, first))
	superseded := reg.Add(alice, second)
	req.Same(first, superseded.(*fakeConn))
	req.Same(second, reg.Get(alice).(*fakeConn))
	req.Equal(1, reg.Len())

	// Re-adding the same handle is not a supersede.
	req.Nil(reg.Add(alice, second))
}

func TestRegistryRemoveIf(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	alice := identity.Registered(1)
	first := &fakeConn{}
	second := &fakeConn{}

	reg.Add(alice, first)
	reg.Add(alice, second)

	// The superseded handle cannot remove its successor's registration.
	req.False(reg.RemoveIf(alice, first))
	req.Same(second, reg.Get(alice).(*fakeConn))

	req.True(reg.RemoveIf(alice, second))
	req.Nil(reg.Get(alice))
}

func TestRegistrySendDropsSilently(t *testing.T) {
	reg := NewRegistry()
	alice := identity.Registered(1)

	// Absent participant: no panic, no error surfaced.
	reg.Send(alice, []byte(`{"type":"chat_message"}`))

	// Dead transport: the failed send is swallowed.
	conn := &fakeConn{}
	reg.Add(alice, conn)
	require.NoError(t, conn.Close())
	reg.Send(alice, []byte(`{"type":"chat_message"}`))
	require.Empty(t, conn.received())
}

func TestRegistrySendDelivers(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	guest := identity.Guest("guest-a")
	conn := &fakeConn{}
	reg.Add(guest, conn)

	reg.Send(guest, []byte("one"))
	reg.Send(guest, []byte("two"))
	req.Equal([]string{"one", "two"}, conn.received())
}

func TestRegistryHandlesSnapshot(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Add(identity.Registered(1), &fakeConn{})
	reg.Add(identity.Guest("guest-b"), &fakeConn{})

	req.Len(reg.Handles(), 2)
}
