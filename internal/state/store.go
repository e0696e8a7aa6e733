// Package state holds the reconciled in-memory collections for the one open
// board: todos, categories, active users, chat log and cursor map.
//
// Two mutation paths exist. Authoritative snapshots replace whole
// collections; the server always sends the complete current set for todos,
// categories and active users, never a delta. Optimistic local mutations
// shallow-merge changed fields (or append a provisional entity) so the UI
// updates with zero latency, and are superseded wholesale by the next
// snapshot. That is last-writer-wins at snapshot granularity; concurrent
// edits to different fields of the same todo can lose one edit within a
// round-trip window, which is the accepted consistency model, not a defect.
package state

import (
	"sync"
	"time"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/protocol"
)

// Store is the single mutable resource per open board. It is mutated by the
// inbound read loop and by local optimistic callbacks, so access is
// mutex-guarded.
type Store struct {
	mu sync.RWMutex

	boardID     int64
	todos       []domain.Todo
	categories  []domain.Category
	activeUsers []domain.ActiveUser
	cursors     map[int64]domain.CursorPosition
	chat        []domain.ChatMessage

	// chat history is applied once per connection, then only appends.
	historyApplied bool

	// provisional ids count down from -1; they can never collide with
	// server-assigned positive ids.
	nextProvisionalID int64

	now func() time.Time
}

// New creates an empty store for one board connection.
func New() *Store {
	return &Store{
		cursors:           make(map[int64]domain.CursorPosition),
		nextProvisionalID: -1,
		now:               time.Now,
	}
}

// Reset clears every collection. Called on connect, on close and on board
// switch so stale data from a previous board is never visible.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boardID = 0
	s.todos = nil
	s.categories = nil
	s.activeUsers = nil
	s.cursors = make(map[int64]domain.CursorPosition)
	s.chat = nil
	s.historyApplied = false
	s.nextProvisionalID = -1
}

// ApplySnapshot applies a board_data_update: wholesale replacement of todos,
// categories and active users, plus the one-time reversed chat history.
// Cursors for users absent from the new active set are pruned.
func (s *Store) ApplySnapshot(m protocol.BoardData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boardID = m.BoardID
	s.todos = append([]domain.Todo(nil), m.Todos...)
	s.categories = append([]domain.Category(nil), m.Categories...)
	s.activeUsers = append([]domain.ActiveUser(nil), m.ActiveUsers...)
	s.pruneCursorsLocked()

	if len(m.ChatHistory) > 0 && !s.historyApplied {
		// History arrives newest-first; reverse into chronological order.
		hist := make([]domain.ChatMessage, len(m.ChatHistory))
		for i, msg := range m.ChatHistory {
			hist[len(hist)-1-i] = msg
		}
		s.chat = hist
		s.historyApplied = true
	}
}

// ApplyActiveUsers applies an active_users_update: full replacement of the
// set, followed by the cursor pruning pass. Pruning is the only removal path
// for cursors; there is no explicit "user left" cursor message.
func (s *Store) ApplyActiveUsers(users []domain.ActiveUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeUsers = append([]domain.ActiveUser(nil), users...)
	s.pruneCursorsLocked()
}

func (s *Store) pruneCursorsLocked() {
	active := make(map[int64]struct{}, len(s.activeUsers))
	for _, u := range s.activeUsers {
		active[u.UserID] = struct{}{}
	}
	for id := range s.cursors {
		if _, ok := active[id]; !ok {
			delete(s.cursors, id)
		}
	}
}

// UpsertCursor records another user's cursor position.
func (s *Store) UpsertCursor(c domain.CursorPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[c.UserID] = c
}

// AppendChat appends one message to the chat log.
func (s *Store) AppendChat(m domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, m)
}

// PatchTodo applies an optimistic shallow merge onto the todo with the given
// id. Returns false if the id is unknown.
func (s *Store) PatchTodo(id int64, p domain.TodoPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			p.Apply(&s.todos[i], s.now().UTC())
			return true
		}
	}
	return false
}

// AddProvisional appends an optimistic todo for a local create and returns
// it. The placeholder id is negative; the next snapshot supersedes it.
func (s *Store) AddProvisional(c domain.TodoCreate) domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t := domain.Todo{
		ID:          s.nextProvisionalID,
		Name:        c.Name,
		Description: c.Description,
		PositionX:   c.PositionX,
		PositionY:   c.PositionY,
		CategoryID:  c.CategoryID,
		BoardID:     s.boardID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextProvisionalID--
	s.todos = append(s.todos, t)
	return t
}

// RemoveTodo drops a todo optimistically (delete flows).
func (s *Store) RemoveTodo(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return true
		}
	}
	return false
}

// PatchCategory applies an optimistic shallow merge onto a category.
func (s *Store) PatchCategory(id int64, p domain.CategoryPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			p.Apply(&s.categories[i])
			return true
		}
	}
	return false
}

// Todo returns a copy of the todo with the given id.
func (s *Store) Todo(id int64) (domain.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.todos {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Todo{}, false
}

// BoardID returns the id of the board the current state belongs to.
func (s *Store) BoardID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boardID
}

// Todos returns a copy of the todo collection.
func (s *Store) Todos() []domain.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Todo(nil), s.todos...)
}

// Categories returns a copy of the category collection.
func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories...)
}

// ActiveUsers returns a copy of the active-user set.
func (s *Store) ActiveUsers() []domain.ActiveUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ActiveUser(nil), s.activeUsers...)
}

// Cursors returns a copy of the cursor map.
func (s *Store) Cursors() map[int64]domain.CursorPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]domain.CursorPosition, len(s.cursors))
	for id, c := range s.cursors {
		out[id] = c
	}
	return out
}

// Chat returns a copy of the chat log in chronological order.
func (s *Store) Chat() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatMessage(nil), s.chat...)
}
