package domain

import "errors"

var (
	// ErrNotConnected is returned by sends attempted while the socket is not
	// open. Sends never queue and never panic.
	ErrNotConnected = errors.New("board: not connected")

	// ErrUnauthorized marks a terminal close (codes 4001/4003). The session
	// will not retry; the user must re-authenticate or re-select the board.
	ErrUnauthorized = errors.New("board: connection unauthorized")

	// ErrViewerRole is returned when a viewer attempts a mutating operation.
	ErrViewerRole = errors.New("board: viewers cannot modify the board")

	// ErrUnknownTodo is returned for operations referencing a todo id absent
	// from the current state.
	ErrUnknownTodo = errors.New("board: unknown todo")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("board: session closed")
)
