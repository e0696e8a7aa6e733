package board

import (
	"strings"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/drag"
	"github.com/gosuda/ideaboard/internal/geom"
	"github.com/gosuda/ideaboard/internal/layout"
	"github.com/gosuda/ideaboard/internal/protocol"
)

// Local operations. Each mutating operation applies optimistically and then
// fires the broadcast; the next authoritative snapshot supersedes the guess.
// Viewers are rejected up front.

// CreateTodo optimistically adds a todo with a provisional negative id and
// broadcasts create_todo. The server echo replaces the placeholder.
func (s *Session) CreateTodo(name string, pos geom.Point, categoryID *int64) (domain.Todo, error) {
	if err := s.requireEditor(); err != nil {
		return domain.Todo{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = "New Task"
	}

	create := domain.TodoCreate{
		Name:       name,
		PositionX:  pos.X,
		PositionY:  pos.Y,
		CategoryID: categoryID,
	}
	t := s.store.AddProvisional(create)
	s.changed()

	if err := s.Send(protocol.ActionCreateTodo, create); err != nil {
		return t, err
	}
	return t, nil
}

// UpdateTodo applies a partial update optimistically and broadcasts it.
func (s *Session) UpdateTodo(id int64, patch domain.TodoPatch) error {
	if err := s.requireEditor(); err != nil {
		return err
	}
	if !s.store.PatchTodo(id, patch) {
		return domain.ErrUnknownTodo
	}
	s.changed()
	return s.Send(protocol.ActionUpdateTodo, protocol.UpdateTodoPayload{ID: id, TodoPatch: patch})
}

// SetTodoCompleted toggles completion. Completing stamps completed_at;
// reactivating clears it.
func (s *Session) SetTodoCompleted(id int64, completed bool) error {
	return s.UpdateTodo(id, domain.TodoPatch{IsCompleted: &completed})
}

// DeleteTodo removes a todo immediately, without the drag-to-bin
// confirmation step.
func (s *Session) DeleteTodo(id int64) error {
	if err := s.requireEditor(); err != nil {
		return err
	}
	if !s.store.RemoveTodo(id) {
		return domain.ErrUnknownTodo
	}
	s.changed()
	return s.Send(protocol.ActionDeleteTodo, protocol.DeleteTodoPayload{ID: id})
}

// UpdateCategory renames or recolors a category optimistically and
// broadcasts it. Any transient color preview for the category is dropped.
func (s *Session) UpdateCategory(id int64, patch domain.CategoryPatch) error {
	if err := s.requireEditor(); err != nil {
		return err
	}
	s.store.PatchCategory(id, patch)
	if patch.Color != nil {
		s.ClearColorPreview(id)
	}
	s.changed()
	return s.Send(protocol.ActionUpdateCategory, protocol.UpdateCategoryPayload{ID: id, CategoryPatch: patch})
}

// SendChat broadcasts one chat message. The message appears in the log when
// the server echoes it back; chat is never applied optimistically.
func (s *Session) SendChat(message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return s.Send(protocol.ActionSendChatMessage, protocol.SendChatPayload{Message: message})
}

// SetMyColor broadcasts the local user's board color.
func (s *Session) SetMyColor(color string) error {
	return s.Send(protocol.ActionUpdateMyBoardColor, protocol.UpdateBoardColorPayload{Color: color})
}

// PointerMoved feeds one pointer sample (screen coordinates relative to the
// canvas origin) into the throttled cursor broadcast.
func (s *Session) PointerMoved(screen geom.Point) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return nil
	}
	_, err := s.tracker.PointerMoved(screen)
	return err
}

// SetTransform records the canvas pan/zoom state for cursor conversion and
// bin hit-testing.
func (s *Session) SetTransform(t geom.Transform) {
	s.tracker.SetTransform(t)
	s.drag.SetTransform(t)
}

// SetBin registers a drop target's screen rectangle.
func (s *Session) SetBin(kind drag.Bin, rect geom.Rect) {
	s.drag.SetBin(kind, rect)
}

// StartDrag begins dragging a node.
func (s *Session) StartDrag(id int64) error {
	if err := s.requireEditor(); err != nil {
		return err
	}
	return s.drag.Start(id)
}

// MoveDrag updates the transient drag position (top-left anchor) and returns
// the bin currently hovered, if any.
func (s *Session) MoveDrag(topLeft geom.Point) drag.Bin {
	hovered := s.drag.Move(topLeft)
	s.changed()
	return hovered
}

// DropDrag ends the drag and resolves its outcome.
func (s *Session) DropDrag(topLeft geom.Point) (drag.Outcome, error) {
	out, err := s.drag.Drop(topLeft)
	s.changed()
	return out, err
}

// PendingDelete returns the todo id armed by a drop on the delete bin.
func (s *Session) PendingDelete() (int64, bool) {
	return s.drag.PendingDelete()
}

// ConfirmDelete completes an armed drag-to-bin deletion.
func (s *Session) ConfirmDelete() error {
	err := s.drag.ConfirmDelete()
	s.changed()
	return err
}

// CancelDelete disarms an armed deletion without sending anything.
func (s *Session) CancelDelete() {
	s.drag.CancelDelete()
	s.changed()
}

// PreviewCategoryColor sets a transient color override used by layout until
// the server echoes the recolor.
func (s *Session) PreviewCategoryColor(id int64, color string) {
	s.mu.Lock()
	s.colorPreviews[id] = color
	s.mu.Unlock()
	s.changed()
}

// ClearColorPreview drops a transient color override.
func (s *Session) ClearColorPreview(id int64) {
	s.mu.Lock()
	delete(s.colorPreviews, id)
	s.mu.Unlock()
}

// Layout computes the current derived geometry, substituting the live drag
// position so dragging perturbs clustering and connections immediately.
func (s *Session) Layout() layout.Result {
	in := layout.Input{
		Todos:      s.store.Todos(),
		Categories: s.store.Categories(),
	}

	if id, center, ok := s.drag.Dragging(); ok {
		in.Drag = &layout.DragOverride{TodoID: id, Center: center}
	}

	s.mu.Lock()
	if len(s.colorPreviews) > 0 {
		previews := make(map[int64]string, len(s.colorPreviews))
		for k, v := range s.colorPreviews {
			previews[k] = v
		}
		in.ColorPreviews = previews
	}
	s.mu.Unlock()

	return layout.Compute(s.cfg.Layout, in)
}

// State accessors; all return copies.

func (s *Session) Todos() []domain.Todo { return s.store.Todos() }

func (s *Session) Categories() []domain.Category { return s.store.Categories() }

func (s *Session) ActiveUsers() []domain.ActiveUser { return s.store.ActiveUsers() }

func (s *Session) Cursors() map[int64]domain.CursorPosition { return s.store.Cursors() }

func (s *Session) Chat() []domain.ChatMessage { return s.store.Chat() }

// Connected reports whether a socket is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Unauthorized reports whether the connection was terminally rejected.
func (s *Session) Unauthorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unauthorized
}

// Err returns the current transient error banner, empty when none.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}
