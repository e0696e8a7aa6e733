// Package presence tracks live cursors: it throttles outbound cursor
// broadcasts and applies inbound ones, never rendering the local user's own
// cursor. Entries are removed only by the pruning pass the store runs after
// every active-user replacement.
package presence

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/geom"
	"github.com/gosuda/ideaboard/internal/protocol"
	"github.com/gosuda/ideaboard/internal/state"
)

// Sender sends one client action to the server.
type Sender interface {
	Send(action string, payload any) error
}

// Tracker owns the outbound cursor throttle and the inbound cursor rules for
// one board connection.
type Tracker struct {
	selfID  int64
	send    Sender
	store   *state.Store
	limiter *rate.Limiter

	mu        sync.Mutex
	transform geom.Transform
}

// New creates a tracker emitting at most one update_cursor per interval.
// Excess pointer samples are dropped, not queued, which bounds the outbound
// rate independent of input device polling rate.
func New(selfID int64, interval time.Duration, send Sender, store *state.Store) *Tracker {
	return &Tracker{
		selfID:    selfID,
		send:      send,
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		transform: geom.Identity(),
	}
}

// SetTransform records the current pan/zoom state used to invert screen
// coordinates into canvas space.
func (t *Tracker) SetTransform(tr geom.Transform) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transform = tr
}

// PointerMoved handles one pointer sample in screen coordinates (relative to
// the canvas origin). The sample is converted to canvas space and broadcast
// if the throttle window permits. Returns true when a message was sent.
func (t *Tracker) PointerMoved(screen geom.Point) (bool, error) {
	if !t.limiter.Allow() {
		return false, nil
	}

	t.mu.Lock()
	canvas := t.transform.ScreenToCanvas(screen)
	t.mu.Unlock()

	err := t.send.Send(protocol.ActionUpdateCursor, protocol.UpdateCursorPayload{X: canvas.X, Y: canvas.Y})
	if err != nil {
		return false, err
	}
	return true, nil
}

// HandleCursorUpdate applies an inbound cursor_update. Updates carrying the
// local user's own id are ignored. Returns true when the cursor map changed.
func (t *Tracker) HandleCursorUpdate(c domain.CursorPosition) bool {
	if c.UserID == t.selfID {
		return false
	}
	t.store.UpsertCursor(c)
	return true
}
