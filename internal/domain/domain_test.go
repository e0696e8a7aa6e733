package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ideaboard/internal/domain"
)

func TestRole(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.RoleOwner.CanEdit())
	assert.True(t, domain.RoleEditor.CanEdit())
	assert.False(t, domain.RoleViewer.CanEdit())

	assert.True(t, domain.RoleViewer.Valid())
	assert.False(t, domain.Role("admin").Valid())
	assert.False(t, domain.Role("").Valid())
}

func TestTodoPatch_Apply(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil fields untouched", func(t *testing.T) {
		t.Parallel()

		todo := domain.Todo{ID: 1, Name: "keep", PositionX: 10, PositionY: 20}
		x := 99.0
		domain.TodoPatch{PositionX: &x}.Apply(&todo, now)

		assert.Equal(t, "keep", todo.Name)
		assert.InDelta(t, 99, todo.PositionX, 1e-9)
		assert.InDelta(t, 20, todo.PositionY, 1e-9)
		assert.Equal(t, now, todo.UpdatedAt)
	})

	t.Run("completing stamps completed_at", func(t *testing.T) {
		t.Parallel()

		todo := domain.Todo{ID: 1}
		completed := true
		domain.TodoPatch{IsCompleted: &completed}.Apply(&todo, now)

		assert.True(t, todo.IsCompleted)
		require.NotNil(t, todo.CompletedAt)
		assert.Equal(t, now, *todo.CompletedAt)
	})

	t.Run("reactivating clears completed_at", func(t *testing.T) {
		t.Parallel()

		ts := now
		todo := domain.Todo{ID: 1, IsCompleted: true, CompletedAt: &ts}
		completed := false
		domain.TodoPatch{IsCompleted: &completed}.Apply(&todo, now)

		assert.False(t, todo.IsCompleted)
		assert.Nil(t, todo.CompletedAt)
	})
}

func TestTodo_Provisional(t *testing.T) {
	t.Parallel()

	provisional := domain.Todo{ID: -1}
	confirmed := domain.Todo{ID: 1}
	assert.True(t, provisional.Provisional())
	assert.False(t, confirmed.Provisional())
}

func TestCategoryPatch_Apply(t *testing.T) {
	t.Parallel()

	cat := domain.Category{ID: 1, Name: "old"}
	name := "new"
	color := "#123456"
	domain.CategoryPatch{Name: &name, Color: &color}.Apply(&cat)

	assert.Equal(t, "new", cat.Name)
	require.NotNil(t, cat.Color)
	assert.Equal(t, "#123456", *cat.Color)

	// Nil color leaves the existing one alone.
	other := "renamed again"
	domain.CategoryPatch{Name: &other}.Apply(&cat)
	require.NotNil(t, cat.Color)
	assert.Equal(t, "#123456", *cat.Color)
}
