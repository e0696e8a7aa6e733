package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/protocol"
	"github.com/gosuda/ideaboard/internal/state"
)

func snapshot(boardID int64, todos ...domain.Todo) protocol.BoardData {
	return protocol.BoardData{BoardID: boardID, Todos: todos}
}

func TestStore_SnapshotReplacesWholesale(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.ApplySnapshot(snapshot(7,
		domain.Todo{ID: 1, Name: "one"},
		domain.Todo{ID: 2, Name: "two"},
	))

	// Local optimistic edit, then a snapshot that does not contain it.
	name := "renamed locally"
	require.True(t, s.PatchTodo(1, domain.TodoPatch{Name: &name}))

	s.ApplySnapshot(snapshot(7, domain.Todo{ID: 1, Name: "server wins"}))

	todos := s.Todos()
	require.Len(t, todos, 1)
	assert.Equal(t, "server wins", todos[0].Name)
	assert.Equal(t, int64(7), s.BoardID())
}

func TestStore_SnapshotIsIdempotent(t *testing.T) {
	t.Parallel()

	s := state.New()
	snap := snapshot(7, domain.Todo{ID: 1, Name: "one"})

	s.ApplySnapshot(snap)
	first := s.Todos()
	s.ApplySnapshot(snap)
	assert.Equal(t, first, s.Todos())
}

func TestStore_ChatHistoryReversedOncePerConnection(t *testing.T) {
	t.Parallel()

	s := state.New()
	snap := snapshot(7)
	snap.ChatHistory = []domain.ChatMessage{
		{ID: 3, Message: "newest"},
		{ID: 2, Message: "middle"},
		{ID: 1, Message: "oldest"},
	}
	s.ApplySnapshot(snap)

	chat := s.Chat()
	require.Len(t, chat, 3)
	assert.Equal(t, "oldest", chat[0].Message)
	assert.Equal(t, "newest", chat[2].Message)

	// Live appends extend the log.
	s.AppendChat(domain.ChatMessage{ID: 4, Message: "live"})
	require.Len(t, s.Chat(), 4)

	// A later snapshot carrying history again must not clobber the log.
	s.ApplySnapshot(snap)
	chat = s.Chat()
	require.Len(t, chat, 4)
	assert.Equal(t, "live", chat[3].Message)

	// After Reset the next history applies again.
	s.Reset()
	s.ApplySnapshot(snap)
	require.Len(t, s.Chat(), 3)
}

func TestStore_ProvisionalIDsCountDown(t *testing.T) {
	t.Parallel()

	s := state.New()
	first := s.AddProvisional(domain.TodoCreate{Name: "a"})
	second := s.AddProvisional(domain.TodoCreate{Name: "b"})

	assert.Equal(t, int64(-1), first.ID)
	assert.Equal(t, int64(-2), second.ID)
	assert.True(t, first.Provisional())

	// Reset restarts the counter for the next connection.
	s.Reset()
	third := s.AddProvisional(domain.TodoCreate{Name: "c"})
	assert.Equal(t, int64(-1), third.ID)
}

func TestStore_CursorPruning(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.ApplyActiveUsers([]domain.ActiveUser{{UserID: 1}, {UserID: 2}})
	s.UpsertCursor(domain.CursorPosition{UserID: 1, X: 5})
	s.UpsertCursor(domain.CursorPosition{UserID: 2, X: 9})

	// User 2 leaves; their cursor goes with them.
	s.ApplyActiveUsers([]domain.ActiveUser{{UserID: 1}})

	cursors := s.Cursors()
	assert.Contains(t, cursors, int64(1))
	assert.NotContains(t, cursors, int64(2))

	// Snapshots prune too.
	s.ApplySnapshot(protocol.BoardData{BoardID: 7})
	assert.Empty(t, s.Cursors())
}

func TestStore_PatchAndRemoveUnknownTodo(t *testing.T) {
	t.Parallel()

	s := state.New()
	name := "x"
	assert.False(t, s.PatchTodo(42, domain.TodoPatch{Name: &name}))
	assert.False(t, s.RemoveTodo(42))
}

func TestStore_PatchTodoCompletionStampsTimestamp(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.ApplySnapshot(snapshot(7, domain.Todo{ID: 1, Name: "one"}))

	completed := true
	require.True(t, s.PatchTodo(1, domain.TodoPatch{IsCompleted: &completed}))
	got, ok := s.Todo(1)
	require.True(t, ok)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)

	completed = false
	require.True(t, s.PatchTodo(1, domain.TodoPatch{IsCompleted: &completed}))
	got, ok = s.Todo(1)
	require.True(t, ok)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.CompletedAt)
}

func TestStore_ResetClearsEverything(t *testing.T) {
	t.Parallel()

	s := state.New()
	snap := snapshot(7, domain.Todo{ID: 1, Name: "one"})
	snap.Categories = []domain.Category{{ID: 3, Name: "cat"}}
	snap.ActiveUsers = []domain.ActiveUser{{UserID: 1}}
	s.ApplySnapshot(snap)
	s.UpsertCursor(domain.CursorPosition{UserID: 1})
	s.AppendChat(domain.ChatMessage{ID: 1, Message: "hi"})

	s.Reset()

	assert.Empty(t, s.Todos())
	assert.Empty(t, s.Categories())
	assert.Empty(t, s.ActiveUsers())
	assert.Empty(t, s.Cursors())
	assert.Empty(t, s.Chat())
	assert.Zero(t, s.BoardID())
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	s := state.New()
	s.ApplySnapshot(snapshot(7, domain.Todo{ID: 1, Name: "one"}))

	todos := s.Todos()
	todos[0].Name = "mutated copy"

	fresh := s.Todos()
	assert.Equal(t, "one", fresh[0].Name)
}
