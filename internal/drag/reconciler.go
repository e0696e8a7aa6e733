// Package drag turns a pointer-drag gesture on a node into an immediate
// local position mutation plus a debounced outbound update_todo broadcast,
// and decides drops onto the delete/complete bins via the inflated hit test.
package drag

import (
	"fmt"
	"sync"
	"time"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/geom"
	"github.com/gosuda/ideaboard/internal/protocol"
	"github.com/gosuda/ideaboard/internal/state"
	"github.com/gosuda/ideaboard/internal/timing"
)

// Bin identifies a fixed drop target.
type Bin string

const (
	BinNone     Bin = ""
	BinDelete   Bin = "delete"
	BinComplete Bin = "complete"
)

// Outcome reports what a drop did.
type Outcome int

const (
	// OutcomeNone: dropped in place, nothing to send.
	OutcomeNone Outcome = iota
	// OutcomeMoved: position mutated locally, broadcast scheduled.
	OutcomeMoved
	// OutcomeDeleteRequested: dropped on the delete bin; a confirmation
	// step is armed and nothing is sent until ConfirmDelete.
	OutcomeDeleteRequested
	// OutcomeCompleted: dropped on the complete bin; completion sent, the
	// position change is discarded.
	OutcomeCompleted
)

// Sender sends one client action to the server.
type Sender interface {
	Send(action string, payload any) error
}

// Config carries the drag geometry and timing.
type Config struct {
	NodeDiameter     float64       // drag gestures move a top-left anchor; data positions are centers
	BinInflation     float64       // margin added to each bin rect before hit-testing
	PositionDebounce time.Duration // quiescence before the position broadcast
}

// DefaultConfig returns the stock drag tuning.
func DefaultConfig() Config {
	return Config{
		NodeDiameter:     48,
		BinInflation:     70,
		PositionDebounce: 750 * time.Millisecond,
	}
}

type activeDrag struct {
	id      int64
	origin  geom.Point // center at drag start
	center  geom.Point // live center
	hovered Bin
}

// Reconciler is the per-connection drag state machine: idle -> dragging ->
// idle, with drops resolving to canvas moves or bin actions. At most one
// node drags at a time.
type Reconciler struct {
	cfg      Config
	store    *state.Store
	send     Sender
	debounce *timing.Debouncer[geom.Point]

	mu            sync.Mutex
	transform     geom.Transform
	bins          map[Bin]geom.Rect
	active        *activeDrag
	pendingDelete int64 // 0 = none
}

// New creates a reconciler. Position broadcasts coalesce to one message per
// debounce window, carrying the last position.
func New(cfg Config, store *state.Store, send Sender) *Reconciler {
	r := &Reconciler{
		cfg:       cfg,
		store:     store,
		send:      send,
		transform: geom.Identity(),
		bins:      make(map[Bin]geom.Rect),
	}
	r.debounce = timing.NewDebouncer(cfg.PositionDebounce, func(id int64, center geom.Point) {
		x, y := center.X, center.Y
		_ = r.send.Send(protocol.ActionUpdateTodo, protocol.UpdateTodoPayload{
			ID:        id,
			TodoPatch: domain.TodoPatch{PositionX: &x, PositionY: &y},
		})
	})
	return r
}

// SetTransform records the pan/zoom state used to project node centers into
// screen space for bin hit-testing.
func (r *Reconciler) SetTransform(t geom.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = t
}

// SetBin registers a drop target's screen rectangle.
func (r *Reconciler) SetBin(kind Bin, rect geom.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bins[kind] = rect
}

// Start begins dragging the given node, capturing its current center as the
// drag origin. The live position is substituted into layout geometry via
// Dragging without waiting for a store commit.
func (r *Reconciler) Start(id int64) error {
	t, ok := r.store.Todo(id)
	if !ok {
		return fmt.Errorf("drag.Reconciler.Start: id %d: %w", id, domain.ErrUnknownTodo)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	center := geom.Point{X: t.PositionX, Y: t.PositionY}
	r.active = &activeDrag{id: id, origin: center, center: center}
	return nil
}

// Move updates the transient drag position (top-left anchor, canvas
// coordinates) and re-runs the bin hit test against the node's screen-space
// center. The authoritative todo is not touched yet.
func (r *Reconciler) Move(topLeft geom.Point) Bin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return BinNone
	}

	r.active.center = r.centerOf(topLeft)
	r.active.hovered = r.hitTestLocked(r.active.center)
	return r.active.hovered
}

// Drop ends the drag. Over a bin, the bin's action wins and no position
// change persists; otherwise a changed position is applied optimistically
// and its broadcast debounced.
func (r *Reconciler) Drop(topLeft geom.Point) (Outcome, error) {
	r.mu.Lock()
	if r.active == nil {
		r.mu.Unlock()
		return OutcomeNone, nil
	}
	a := *r.active
	r.active = nil
	a.center = r.centerOf(topLeft)
	hovered := r.hitTestLocked(a.center)
	r.mu.Unlock()

	switch hovered {
	case BinDelete:
		r.mu.Lock()
		r.pendingDelete = a.id
		r.mu.Unlock()
		return OutcomeDeleteRequested, nil

	case BinComplete:
		completed := true
		r.store.PatchTodo(a.id, domain.TodoPatch{IsCompleted: &completed})
		err := r.send.Send(protocol.ActionUpdateTodo, protocol.UpdateTodoPayload{
			ID:        a.id,
			TodoPatch: domain.TodoPatch{IsCompleted: &completed},
		})
		if err != nil {
			return OutcomeCompleted, fmt.Errorf("drag.Reconciler.Drop: %w", err)
		}
		return OutcomeCompleted, nil

	default:
		if a.center == a.origin {
			return OutcomeNone, nil
		}
		x, y := a.center.X, a.center.Y
		r.store.PatchTodo(a.id, domain.TodoPatch{PositionX: &x, PositionY: &y})
		r.debounce.Trigger(a.id, a.center)
		return OutcomeMoved, nil
	}
}

// Dragging returns the live center of the node currently being dragged, for
// substitution into layout geometry.
func (r *Reconciler) Dragging() (int64, geom.Point, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0, geom.Point{}, false
	}
	return r.active.id, r.active.center, true
}

// PendingDelete returns the id armed by a drop on the delete bin.
func (r *Reconciler) PendingDelete() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingDelete, r.pendingDelete != 0
}

// ConfirmDelete sends the armed delete_todo and removes the todo locally.
func (r *Reconciler) ConfirmDelete() error {
	r.mu.Lock()
	id := r.pendingDelete
	r.pendingDelete = 0
	r.mu.Unlock()
	if id == 0 {
		return nil
	}

	r.store.RemoveTodo(id)
	if err := r.send.Send(protocol.ActionDeleteTodo, protocol.DeleteTodoPayload{ID: id}); err != nil {
		return fmt.Errorf("drag.Reconciler.ConfirmDelete: %w", err)
	}
	return nil
}

// CancelDelete disarms a pending delete without sending anything.
func (r *Reconciler) CancelDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingDelete = 0
}

// Reset discards in-flight drag state and any queued position broadcast,
// keeping the reconciler usable. A board switch is not required to deliver
// unsent mutations.
func (r *Reconciler) Reset() {
	r.debounce.Reset()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
	r.pendingDelete = 0
}

// Stop tears the reconciler down, discarding any queued position broadcast.
func (r *Reconciler) Stop() {
	r.debounce.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
	r.pendingDelete = 0
}

func (r *Reconciler) centerOf(topLeft geom.Point) geom.Point {
	half := r.cfg.NodeDiameter / 2
	return geom.Point{X: topLeft.X + half, Y: topLeft.Y + half}
}

func (r *Reconciler) hitTestLocked(center geom.Point) Bin {
	screen := r.transform.CanvasToScreen(center)
	nodeRect := geom.RectAt(
		screen.X-r.cfg.NodeDiameter/2,
		screen.Y-r.cfg.NodeDiameter/2,
		r.cfg.NodeDiameter,
		r.cfg.NodeDiameter,
	)
	// Delete takes precedence when bins overlap.
	for _, kind := range []Bin{BinDelete, BinComplete} {
		rect, ok := r.bins[kind]
		if !ok {
			continue
		}
		if geom.CenterOverBin(nodeRect, rect, r.cfg.BinInflation) {
			return kind
		}
	}
	return BinNone
}
