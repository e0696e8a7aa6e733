package domain

import "time"

// Todo is a positioned node on the board canvas. PositionX/PositionY are the
// node's center in canvas coordinates. The server assigns positive ids;
// optimistically created todos carry a negative placeholder id until the next
// authoritative snapshot supersedes them.
type Todo struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	PositionX   float64    `json:"position_x"`
	PositionY   float64    `json:"position_y"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	BoardID     int64      `json:"board_id"`
}

// Provisional reports whether this todo is an optimistic local create that the
// server has not yet confirmed.
func (t *Todo) Provisional() bool {
	return t.ID < 0
}

// TodoPatch is a partial update to a todo. Nil fields are left untouched by
// Apply. It doubles as the update_todo payload body.
type TodoPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	PositionX   *float64 `json:"position_x,omitempty"`
	PositionY   *float64 `json:"position_y,omitempty"`
	IsCompleted *bool    `json:"is_completed,omitempty"`
	CategoryID  *int64   `json:"category_id,omitempty"`
}

// Apply shallow-merges the patch onto t. Completing sets CompletedAt to now;
// reactivating clears it.
func (p TodoPatch) Apply(t *Todo, now time.Time) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.PositionX != nil {
		t.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		t.PositionY = *p.PositionY
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
		if *p.IsCompleted {
			ts := now
			t.CompletedAt = &ts
		} else {
			t.CompletedAt = nil
		}
	}
	if p.CategoryID != nil {
		t.CategoryID = p.CategoryID
	}
	t.UpdatedAt = now
}

// TodoCreate is the create_todo payload.
type TodoCreate struct {
	Name        string  `json:"name"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
	Description *string `json:"description,omitempty"`
	CategoryID  *int64  `json:"category_id,omitempty"`
}
