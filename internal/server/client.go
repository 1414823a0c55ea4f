package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openrooms/relay/internal/signal"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var (
	errConnClosed    = errors.New("connection closed")
	errSendQueueFull = errors.New("send queue full")
)

// client owns one participant's WebSocket connection: a read pump feeding
// the router and a write pump draining the buffered send queue. It is the
// live handle the connection registry holds for the participant.
type client struct {
	ws      *websocket.Conn
	sess    *signal.Session
	router  *signal.Router
	limiter *rateLimiter
	log     *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ signal.Conn = (*client)(nil)

func newClient(ws *websocket.Conn, sess *signal.Session, router *signal.Router, cfg Config, log *slog.Logger) *client {
	ws.SetReadLimit(cfg.MaxMessageSize)
	return &client{
		ws:      ws,
		sess:    sess,
		router:  router,
		limiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefillInterval),
		log:     log,
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
	}
}

// Send queues a frame for delivery. It never blocks: a closed connection or
// a full queue reports an error that the registry treats as a benign drop.
func (c *client) Send(frame []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errSendQueueFull
	}
}

// Close tears down the transport. Safe to call from any goroutine, any
// number of times.
func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// run starts the pump goroutines, tracked by the server's wait group for
// shutdown.
func (c *client) run(wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump()
	}()
	go func() {
		defer wg.Done()
		c.readPump()
	}()
}

func (c *client) readPump() {
	defer func() {
		c.router.Disconnect(context.Background(), c.sess)
		_ = c.Close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.logReadExit(err)
			return
		}
		if !c.limiter.allow() {
			c.log.Warn("rate limit exceeded, discarding frame", "participant", c.sess.ID())
			continue
		}
		c.router.Handle(context.Background(), c.sess, frame)
	}
}

func (c *client) logReadExit(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("frame exceeded maximum size", "participant", c.sess.ID())
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug("participant closed connection", "participant", c.sess.ID())
	case isExpectedCloseError(err):
		c.log.Debug("connection closed", "participant", c.sess.ID())
	default:
		c.log.Warn("read error", "participant", c.sess.ID(), "error", err)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// isExpectedCloseError reports whether an error is part of normal
// connection teardown rather than a fault worth logging loudly.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
