package drag_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/drag"
	"github.com/gosuda/ideaboard/internal/geom"
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

func (c *captureSender) sent() ([]string, []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.actions...), append([]any(nil), c.payloads...)
}

func testConfig() drag.Config {
	return drag.Config{
		NodeDiameter:     48,
		BinInflation:     70,
		PositionDebounce: 30 * time.Millisecond,
	}
}

func seededStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.New()
	s.ApplySnapshot(protocol.BoardData{
		BoardID: 7,
		Todos:   []domain.Todo{{ID: 1, Name: "node", PositionX: 100, PositionY: 100, BoardID: 7}},
	})
	return s
}

func TestReconciler_MoveBurstCoalescesToOneBroadcast(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	require.NoError(t, r.Start(1))

	// A burst of move samples, then a drop far from any bin.
	for i := 0; i < 20; i++ {
		r.Move(geom.Point{X: float64(200 + i), Y: 300})
	}
	out, err := r.Drop(geom.Point{X: 276, Y: 276})
	require.NoError(t, err)
	assert.Equal(t, drag.OutcomeMoved, out)

	// The local position mutated immediately (top-left 276 -> center 300).
	todo, ok := store.Todo(1)
	require.True(t, ok)
	assert.InDelta(t, 300, todo.PositionX, 1e-9)
	assert.InDelta(t, 300, todo.PositionY, 1e-9)

	// Exactly one update_todo goes out, carrying the final position.
	require.Eventually(t, func() bool {
		actions, _ := sender.sent()
		return len(actions) == 1
	}, time.Second, 5*time.Millisecond)

	actions, payloads := sender.sent()
	assert.Equal(t, protocol.ActionUpdateTodo, actions[0])
	payload, ok := payloads[0].(protocol.UpdateTodoPayload)
	require.True(t, ok)
	assert.Equal(t, int64(1), payload.ID)
	require.NotNil(t, payload.PositionX)
	assert.InDelta(t, 300, *payload.PositionX, 1e-9)

	// Nothing further after the window.
	time.Sleep(60 * time.Millisecond)
	actions, _ = sender.sent()
	assert.Len(t, actions, 1)
}

func TestReconciler_DropInPlaceSendsNothing(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	require.NoError(t, r.Start(1))
	// Drop at the origin center (100,100) -> top-left (76,76).
	out, err := r.Drop(geom.Point{X: 76, Y: 76})
	require.NoError(t, err)
	assert.Equal(t, drag.OutcomeNone, out)

	time.Sleep(60 * time.Millisecond)
	actions, _ := sender.sent()
	assert.Empty(t, actions)
}

func TestReconciler_DeleteBinArmsConfirmation(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	r.SetBin(drag.BinDelete, geom.RectAt(500, 500, 40, 40))

	require.NoError(t, r.Start(1))
	hovered := r.Move(geom.Point{X: 496, Y: 496}) // center (520,520) inside the bin
	assert.Equal(t, drag.BinDelete, hovered)

	out, err := r.Drop(geom.Point{X: 496, Y: 496})
	require.NoError(t, err)
	assert.Equal(t, drag.OutcomeDeleteRequested, out)

	// Armed, not executed: the todo survives and nothing was sent.
	_, ok := store.Todo(1)
	assert.True(t, ok)
	actions, _ := sender.sent()
	assert.Empty(t, actions)

	id, pending := r.PendingDelete()
	require.True(t, pending)
	assert.Equal(t, int64(1), id)

	require.NoError(t, r.ConfirmDelete())

	_, ok = store.Todo(1)
	assert.False(t, ok)
	actions, payloads := sender.sent()
	require.Len(t, actions, 1)
	assert.Equal(t, protocol.ActionDeleteTodo, actions[0])
	assert.Equal(t, protocol.DeleteTodoPayload{ID: 1}, payloads[0])

	_, pending = r.PendingDelete()
	assert.False(t, pending)
}

func TestReconciler_CancelDeleteKeepsTodo(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	r.SetBin(drag.BinDelete, geom.RectAt(500, 500, 40, 40))
	require.NoError(t, r.Start(1))
	_, err := r.Drop(geom.Point{X: 496, Y: 496})
	require.NoError(t, err)

	r.CancelDelete()

	_, pending := r.PendingDelete()
	assert.False(t, pending)
	_, ok := store.Todo(1)
	assert.True(t, ok)
	actions, _ := sender.sent()
	assert.Empty(t, actions)
}

func TestReconciler_CompleteBinSendsImmediately(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	r.SetBin(drag.BinComplete, geom.RectAt(500, 500, 40, 40))
	require.NoError(t, r.Start(1))

	out, err := r.Drop(geom.Point{X: 496, Y: 496})
	require.NoError(t, err)
	assert.Equal(t, drag.OutcomeCompleted, out)

	todo, ok := store.Todo(1)
	require.True(t, ok)
	assert.True(t, todo.IsCompleted)
	// The position change is discarded; the node snaps back.
	assert.InDelta(t, 100, todo.PositionX, 1e-9)

	actions, payloads := sender.sent()
	require.Len(t, actions, 1)
	assert.Equal(t, protocol.ActionUpdateTodo, actions[0])
	payload, ok := payloads[0].(protocol.UpdateTodoPayload)
	require.True(t, ok)
	require.NotNil(t, payload.IsCompleted)
	assert.True(t, *payload.IsCompleted)
	assert.Nil(t, payload.PositionX)
}

func TestReconciler_DeleteTakesPrecedenceOverComplete(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	r := drag.New(testConfig(), store, &captureSender{})
	defer r.Stop()

	// Overlapping bins; the drop point is inside both inflated rects.
	r.SetBin(drag.BinDelete, geom.RectAt(500, 500, 40, 40))
	r.SetBin(drag.BinComplete, geom.RectAt(540, 500, 40, 40))

	require.NoError(t, r.Start(1))
	hovered := r.Move(geom.Point{X: 506, Y: 496}) // center (530,520)
	assert.Equal(t, drag.BinDelete, hovered)
}

func TestReconciler_HitTestUsesScreenTransform(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	r := drag.New(testConfig(), store, &captureSender{})
	defer r.Stop()

	// Bin far out in screen space; only reachable with the zoomed transform.
	r.SetBin(drag.BinDelete, geom.RectAt(1000, 1000, 40, 40))
	r.SetTransform(geom.Transform{Scale: 2, OffsetX: 0, OffsetY: 0})

	require.NoError(t, r.Start(1))
	// Canvas center (510,510) projects to screen (1020,1020), inside the bin.
	hovered := r.Move(geom.Point{X: 486, Y: 486})
	assert.Equal(t, drag.BinDelete, hovered)
}

func TestReconciler_StartUnknownTodo(t *testing.T) {
	t.Parallel()

	r := drag.New(testConfig(), state.New(), &captureSender{})
	defer r.Stop()

	err := r.Start(42)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTodo)
}

func TestReconciler_ResetDiscardsQueuedBroadcast(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	sender := &captureSender{}
	r := drag.New(testConfig(), store, sender)
	defer r.Stop()

	require.NoError(t, r.Start(1))
	out, err := r.Drop(geom.Point{X: 276, Y: 276})
	require.NoError(t, err)
	require.Equal(t, drag.OutcomeMoved, out)

	// Teardown before the window elapses; the queued update never goes out.
	r.Reset()
	time.Sleep(60 * time.Millisecond)
	actions, _ := sender.sent()
	assert.Empty(t, actions)

	// Still usable after Reset.
	require.NoError(t, r.Start(1))
	_, _, dragging := r.Dragging()
	assert.True(t, dragging)
}
