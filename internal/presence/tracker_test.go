package presence_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/geom"
	"github.com/gosuda/ideaboard/internal/presence"
	"github.com/gosuda/ideaboard/internal/protocol"
	"github.com/gosuda/ideaboard/internal/state"
)

type captureSender struct {
	mu       sync.Mutex
	actions  []string
	payloads []any
}

func (c *captureSender) Send(action string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

func (c *captureSender) lastPayload() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.payloads) == 0 {
		return nil
	}
	return c.payloads[len(c.payloads)-1]
}

func TestTracker_ThrottlesBurstToOneSend(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	tr := presence.New(1, 500*time.Millisecond, sender, state.New())

	sentCount := 0
	for i := 0; i < 10; i++ {
		sent, err := tr.PointerMoved(geom.Point{X: float64(i), Y: 0})
		require.NoError(t, err)
		if sent {
			sentCount++
		}
	}

	assert.Equal(t, 1, sentCount)
	assert.Equal(t, 1, sender.count())
	assert.Equal(t, protocol.ActionUpdateCursor, sender.actions[0])
}

func TestTracker_AllowsAgainAfterInterval(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	tr := presence.New(1, 20*time.Millisecond, sender, state.New())

	sent, err := tr.PointerMoved(geom.Point{X: 1})
	require.NoError(t, err)
	assert.True(t, sent)

	time.Sleep(40 * time.Millisecond)

	sent, err = tr.PointerMoved(geom.Point{X: 2})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, sender.count())
}

func TestTracker_ConvertsScreenToCanvas(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	tr := presence.New(1, 10*time.Millisecond, sender, state.New())
	tr.SetTransform(geom.Transform{Scale: 2, OffsetX: 100, OffsetY: 50})

	sent, err := tr.PointerMoved(geom.Point{X: 300, Y: 250})
	require.NoError(t, err)
	require.True(t, sent)

	payload, ok := sender.lastPayload().(protocol.UpdateCursorPayload)
	require.True(t, ok)
	assert.InDelta(t, 100, payload.X, 1e-9)
	assert.InDelta(t, 100, payload.Y, 1e-9)
}

func TestTracker_IgnoresOwnCursorUpdates(t *testing.T) {
	t.Parallel()

	store := state.New()
	store.ApplyActiveUsers([]domain.ActiveUser{{UserID: 1}, {UserID: 2}})
	tr := presence.New(1, 10*time.Millisecond, &captureSender{}, store)

	assert.False(t, tr.HandleCursorUpdate(domain.CursorPosition{UserID: 1, X: 5}))
	assert.Empty(t, store.Cursors())

	assert.True(t, tr.HandleCursorUpdate(domain.CursorPosition{UserID: 2, X: 5}))
	assert.Contains(t, store.Cursors(), int64(2))
}
