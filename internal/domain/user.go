package domain

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanEdit reports whether the role may mutate board content. Viewers can
// still move their cursor and chat.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// ActiveUser is a user currently connected to the board's channel. The active
// set is always replaced wholesale by active_users_update or board_data_update,
// never patched.
type ActiveUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Color    string `json:"color"`
	Role     Role   `json:"role"`
}

// CursorPosition is another user's live cursor in canvas coordinates. Entries
// are upserted on cursor_update and removed only when the owning user drops
// out of the active set.
type CursorPosition struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}
