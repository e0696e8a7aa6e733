// Package protocol implements the {action, payload} wire envelope shared by
// client and server. Inbound frames decode once, at this boundary, into a
// closed set of message variants; dispatch elsewhere is a type switch, not a
// string comparison.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gosuda/ideaboard/internal/domain"
)

// Server -> client actions.
const (
	ActionBoardDataUpdate   = "board_data_update"
	ActionActiveUsersUpdate = "active_users_update"
	ActionCursorUpdate      = "cursor_update"
	ActionNewChatMessage    = "new_chat_message"
	ActionError             = "error"
)

// Client -> server actions. All are fire-and-forget; there is no
// request/response correlation. Success is inferred from a later snapshot.
const (
	ActionUpdateCursor       = "update_cursor"
	ActionCreateTodo         = "create_todo"
	ActionUpdateTodo         = "update_todo"
	ActionDeleteTodo         = "delete_todo"
	ActionUpdateCategory     = "update_category"
	ActionSendChatMessage    = "send_chat_message"
	ActionUpdateMyBoardColor = "update_my_board_color"
)

// ErrMalformed marks a frame that is not valid JSON or whose payload does not
// match its action. Malformed frames are dropped without closing the
// connection.
var ErrMalformed = errors.New("protocol: malformed frame")

// Envelope is the raw wire shape of every frame in both directions.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Message is the decoded form of one inbound server frame.
type Message interface {
	isMessage()
}

// BoardData is a full-board snapshot. Todos, Categories and ActiveUsers
// replace their collections wholesale. ChatHistory is present only on the
// first frame after connect and arrives newest-first.
type BoardData struct {
	BoardID     int64                `json:"board_id"`
	Todos       []domain.Todo        `json:"todos"`
	Categories  []domain.Category    `json:"categories"`
	ActiveUsers []domain.ActiveUser  `json:"active_users"`
	ChatHistory []domain.ChatMessage `json:"chat_history,omitempty"`
}

// ActiveUsers replaces the active-user set wholesale. Its wire payload is a
// bare array, not an object.
type ActiveUsers struct {
	Users []domain.ActiveUser
}

// CursorUpdate upserts one user's cursor.
type CursorUpdate struct {
	domain.CursorPosition
}

// NewChat appends one chat message.
type NewChat struct {
	domain.ChatMessage
}

// ServerError is an application-level error. Non-fatal unless the socket also
// closes with an unauthorized code.
type ServerError struct {
	Message    string `json:"message"`
	StatusCode *int   `json:"status_code,omitempty"`
}

// Unknown is the fallthrough variant for actions this client does not
// recognize. Unknown actions are ignored, not fatal.
type Unknown struct {
	Action  string
	Payload json.RawMessage
}

func (BoardData) isMessage()    {}
func (ActiveUsers) isMessage()  {}
func (CursorUpdate) isMessage() {}
func (NewChat) isMessage()      {}
func (ServerError) isMessage()  {}
func (Unknown) isMessage()      {}

// Decode parses one inbound frame. Unrecognized actions return Unknown with a
// nil error; anything that fails to parse returns an error wrapping
// ErrMalformed.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Action {
	case ActionBoardDataUpdate:
		var m BoardData
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Action, err)
		}
		return m, nil

	case ActionActiveUsersUpdate:
		var users []domain.ActiveUser
		if err := json.Unmarshal(env.Payload, &users); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Action, err)
		}
		return ActiveUsers{Users: users}, nil

	case ActionCursorUpdate:
		var m CursorUpdate
		if err := json.Unmarshal(env.Payload, &m.CursorPosition); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Action, err)
		}
		return m, nil

	case ActionNewChatMessage:
		var m NewChat
		if err := json.Unmarshal(env.Payload, &m.ChatMessage); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Action, err)
		}
		return m, nil

	case ActionError:
		var m ServerError
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Action, err)
		}
		return m, nil

	default:
		return Unknown{Action: env.Action, Payload: env.Payload}, nil
	}
}

// Encode wraps a payload into the wire envelope.
func Encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol.Encode: %s: %w", action, err)
	}
	data, err := json.Marshal(Envelope{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("protocol.Encode: %s: %w", action, err)
	}
	return data, nil
}
