// Package client owns the WebSocket connection to one board: dialing,
// the inbound read loop, outbound sends and close-code classification.
// Exactly one socket exists per open board; board switches tear the old
// socket down before the new one's first frame can be applied.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/protocol"
)

// Close codes with protocol meaning. 1000 is a normal close (board switch,
// logout); 4001/4003 are unauthorized and terminal.
const (
	CloseNormal       websocket.StatusCode = websocket.StatusNormalClosure
	CloseUnauthorized websocket.StatusCode = 4001
	CloseForbidden    websocket.StatusCode = 4003
)

// UnauthorizedCode reports whether a close code means the connection was
// rejected for authorization reasons. Such closes never retry.
func UnauthorizedCode(c websocket.StatusCode) bool {
	return c == CloseUnauthorized || c == CloseForbidden
}

// Event is one item delivered by the read loop.
type Event interface {
	isEvent()
}

// MessageEvent carries one decoded server frame.
type MessageEvent struct {
	Msg protocol.Message
}

// ProtocolErrorEvent marks a malformed frame. Non-fatal: the frame is
// dropped and the connection stays open.
type ProtocolErrorEvent struct {
	Err error
}

// ClosedEvent is the terminal event for a connection.
type ClosedEvent struct {
	Code websocket.StatusCode // -1 when no close frame was received
	Err  error
}

// Unauthorized reports whether the close was an authorization rejection.
func (e ClosedEvent) Unauthorized() bool {
	return UnauthorizedCode(e.Code)
}

func (MessageEvent) isEvent()       {}
func (ProtocolErrorEvent) isEvent() {}
func (ClosedEvent) isEvent()        {}

// Conn is one live board socket. Events() delivers frames in strict arrival
// order and ends with exactly one ClosedEvent.
type Conn struct {
	log    zerolog.Logger
	ws     *websocket.Conn
	events chan Event
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Dial opens the socket and starts the read loop.
func Dial(ctx context.Context, wsURL string, log zerolog.Logger) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("client.Dial: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		log:    log,
		ws:     ws,
		events: make(chan Event, 64),
		cancel: cancel,
	}
	go c.readLoop(loopCtx)
	return c, nil
}

// Events returns the inbound event stream. The channel closes after the
// terminal ClosedEvent.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Send encodes and writes one client action. When the socket is not open it
// reports domain.ErrNotConnected; it never queues and never panics.
func (c *Conn) Send(ctx context.Context, action string, payload any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.ErrNotConnected
	}

	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("client.Conn.Send: %w: %w", domain.ErrNotConnected, err)
	}
	return nil
}

// Close performs a normal close (code 1000). Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.ws.Close(CloseNormal, "board switch or disconnect")
	c.cancel()
	if err != nil {
		c.log.Debug().Err(err).Msg("websocket close")
	}
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.events)

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			code := websocket.CloseStatus(err)
			c.mu.Lock()
			wasClosed := c.closed
			c.closed = true
			c.mu.Unlock()

			if wasClosed || code == CloseNormal {
				c.events <- ClosedEvent{Code: CloseNormal}
				return
			}
			if UnauthorizedCode(code) {
				c.log.Warn().Int("code", int(code)).Msg("board connection unauthorized")
			} else {
				c.log.Error().Err(err).Msg("websocket read")
			}
			c.events <- ClosedEvent{Code: code, Err: err}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed frames are dropped; the connection stays open.
			c.log.Error().Err(err).Msg("invalid data from server")
			c.events <- ProtocolErrorEvent{Err: err}
			continue
		}
		if u, ok := msg.(protocol.Unknown); ok {
			c.log.Warn().Str("action", u.Action).Msg("unknown server action ignored")
		}
		c.events <- MessageEvent{Msg: msg}
	}
}
