package protocol

import "github.com/gosuda/ideaboard/internal/domain"

// Client -> server payload bodies. TodoCreate, TodoPatch and CategoryPatch
// from the domain package serve create_todo, update_todo and update_category
// directly.

// UpdateCursorPayload carries the local cursor in canvas coordinates.
type UpdateCursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdateTodoPayload is the update_todo body: the target id plus the changed
// fields.
type UpdateTodoPayload struct {
	ID int64 `json:"id"`
	domain.TodoPatch
}

// DeleteTodoPayload is the delete_todo body.
type DeleteTodoPayload struct {
	ID int64 `json:"id"`
}

// UpdateCategoryPayload is the update_category body.
type UpdateCategoryPayload struct {
	ID int64 `json:"id"`
	domain.CategoryPatch
}

// SendChatPayload is the send_chat_message body.
type SendChatPayload struct {
	Message string `json:"message"`
}

// UpdateBoardColorPayload is the update_my_board_color body.
type UpdateBoardColorPayload struct {
	Color string `json:"color"`
}
