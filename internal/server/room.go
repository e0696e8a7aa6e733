package server

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/protocol"
)

// roomClient is one connected socket's server-side handle. Outbound frames
// go through a buffered channel drained by the connection's write loop; a
// slow client drops frames rather than stalling the room.
type roomClient struct {
	id   uuid.UUID
	user domain.ActiveUser
	send chan []byte
}

// Room is the authoritative state for one board: it applies client actions
// and rebroadcasts full-collection snapshots. Deltas are never sent; clients
// replace their collections wholesale, which is what keeps every client
// convergent without per-field merging.
type Room struct {
	boardID int64
	log     zerolog.Logger

	mu         sync.Mutex
	todos      []domain.Todo
	categories []domain.Category
	chat       []domain.ChatMessage // chronological
	clients    map[uuid.UUID]*roomClient
	nextTodoID int64
	nextChatID int64

	// publish forwards frames to the cross-instance fanout, when configured.
	publish func(frame []byte)
}

func newRoom(boardID int64, log zerolog.Logger) *Room {
	return &Room{
		boardID:    boardID,
		log:        log.With().Int64("board_id", boardID).Logger(),
		clients:    make(map[uuid.UUID]*roomClient),
		nextTodoID: 1,
		nextChatID: 1,
	}
}

// Seed loads initial content, for tests and local demos.
func (r *Room) Seed(todos []domain.Todo, categories []domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos = append([]domain.Todo(nil), todos...)
	r.categories = append([]domain.Category(nil), categories...)
	for _, t := range todos {
		if t.ID >= r.nextTodoID {
			r.nextTodoID = t.ID + 1
		}
	}
}

// Join registers a client, sends it the initial snapshot (the only frame
// that carries chat history, newest-first) and tells everyone else about the
// new active-user set.
func (r *Room) Join(c *roomClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.id] = c
	if frame, err := r.snapshotFrameLocked(true); err == nil {
		c.send <- frame
	}
	r.broadcastActiveUsersLocked(c.id)
}

// Leave removes a client and rebroadcasts the active-user set.
func (r *Room) Leave(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	r.broadcastActiveUsersLocked(uuid.Nil)
}

// Empty reports whether the room has no clients left.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

// HandleFrame applies one client frame. Malformed frames and permission
// failures answer with an error action; the connection stays open.
func (r *Room) HandleFrame(c *roomClient, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.sendError(c, "malformed frame", 400)
		return
	}

	switch env.Action {
	case protocol.ActionUpdateCursor:
		r.handleCursor(c, env.Payload)
	case protocol.ActionCreateTodo:
		r.handleCreateTodo(c, env.Payload)
	case protocol.ActionUpdateTodo:
		r.handleUpdateTodo(c, env.Payload)
	case protocol.ActionDeleteTodo:
		r.handleDeleteTodo(c, env.Payload)
	case protocol.ActionUpdateCategory:
		r.handleUpdateCategory(c, env.Payload)
	case protocol.ActionSendChatMessage:
		r.handleChat(c, env.Payload)
	case protocol.ActionUpdateMyBoardColor:
		r.handleBoardColor(c, env.Payload)
	default:
		r.log.Warn().Str("action", env.Action).Msg("unknown client action")
		r.sendError(c, "unknown action: "+env.Action, 400)
	}
}

func (r *Room) handleCursor(c *roomClient, payload json.RawMessage) {
	var p protocol.UpdateCursorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.sendError(c, "malformed cursor payload", 400)
		return
	}

	cur := domain.CursorPosition{
		UserID:   c.user.UserID,
		Username: c.user.Username,
		Color:    c.user.Color,
		X:        p.X,
		Y:        p.Y,
	}
	frame, err := protocol.Encode(protocol.ActionCursorUpdate, cur)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.broadcastLocked(frame)
	r.mu.Unlock()
}

func (r *Room) handleCreateTodo(c *roomClient, payload json.RawMessage) {
	if !r.requireEditor(c) {
		return
	}
	var p domain.TodoCreate
	if err := json.Unmarshal(payload, &p); err != nil || p.Name == "" {
		r.sendError(c, "malformed create_todo payload", 400)
		return
	}

	r.mu.Lock()
	now := time.Now().UTC()
	t := domain.Todo{
		ID:          r.nextTodoID,
		Name:        p.Name,
		Description: p.Description,
		PositionX:   p.PositionX,
		PositionY:   p.PositionY,
		CategoryID:  p.CategoryID,
		BoardID:     r.boardID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.nextTodoID++
	r.todos = append(r.todos, t)
	r.broadcastSnapshotLocked()
	r.mu.Unlock()
}

func (r *Room) handleUpdateTodo(c *roomClient, payload json.RawMessage) {
	if !r.requireEditor(c) {
		return
	}
	var p protocol.UpdateTodoPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.sendError(c, "malformed update_todo payload", 400)
		return
	}

	r.mu.Lock()
	found := false
	for i := range r.todos {
		if r.todos[i].ID == p.ID {
			p.TodoPatch.Apply(&r.todos[i], time.Now().UTC())
			found = true
			break
		}
	}
	if found {
		r.broadcastSnapshotLocked()
	}
	r.mu.Unlock()

	if !found {
		r.sendError(c, "unknown todo", 404)
	}
}

func (r *Room) handleDeleteTodo(c *roomClient, payload json.RawMessage) {
	if !r.requireEditor(c) {
		return
	}
	var p protocol.DeleteTodoPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.sendError(c, "malformed delete_todo payload", 400)
		return
	}

	r.mu.Lock()
	for i := range r.todos {
		if r.todos[i].ID == p.ID {
			r.todos = append(r.todos[:i], r.todos[i+1:]...)
			break
		}
	}
	r.broadcastSnapshotLocked()
	r.mu.Unlock()
}

func (r *Room) handleUpdateCategory(c *roomClient, payload json.RawMessage) {
	if !r.requireEditor(c) {
		return
	}
	var p protocol.UpdateCategoryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		r.sendError(c, "malformed update_category payload", 400)
		return
	}

	r.mu.Lock()
	for i := range r.categories {
		if r.categories[i].ID == p.ID {
			p.CategoryPatch.Apply(&r.categories[i])
			break
		}
	}
	r.broadcastSnapshotLocked()
	r.mu.Unlock()
}

func (r *Room) handleChat(c *roomClient, payload json.RawMessage) {
	var p protocol.SendChatPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Message == "" {
		r.sendError(c, "malformed chat payload", 400)
		return
	}

	r.mu.Lock()
	msg := domain.ChatMessage{
		ID:        r.nextChatID,
		BoardID:   r.boardID,
		UserID:    c.user.UserID,
		Message:   p.Message,
		Timestamp: time.Now().UTC(),
		User: domain.ChatUser{
			ID:       c.user.UserID,
			Username: c.user.Username,
			Color:    c.user.Color,
		},
	}
	r.nextChatID++
	r.chat = append(r.chat, msg)
	if frame, err := protocol.Encode(protocol.ActionNewChatMessage, msg); err == nil {
		r.broadcastLocked(frame)
	}
	r.mu.Unlock()
}

func (r *Room) handleBoardColor(c *roomClient, payload json.RawMessage) {
	var p protocol.UpdateBoardColorPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Color == "" {
		r.sendError(c, "malformed color payload", 400)
		return
	}

	r.mu.Lock()
	c.user.Color = p.Color
	r.broadcastActiveUsersLocked(uuid.Nil)
	r.mu.Unlock()
}

func (r *Room) requireEditor(c *roomClient) bool {
	if c.user.Role.CanEdit() {
		return true
	}
	r.sendError(c, "viewers cannot modify the board", 403)
	return false
}

func (r *Room) sendError(c *roomClient, msg string, status int) {
	frame, err := protocol.Encode(protocol.ActionError, protocol.ServerError{
		Message:    msg,
		StatusCode: &status,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// activeUsersLocked derives the active set from connected clients, deduped
// by user id and ordered for deterministic frames.
func (r *Room) activeUsersLocked() []domain.ActiveUser {
	seen := make(map[int64]struct{}, len(r.clients))
	users := make([]domain.ActiveUser, 0, len(r.clients))
	for _, c := range r.clients {
		if _, ok := seen[c.user.UserID]; ok {
			continue
		}
		seen[c.user.UserID] = struct{}{}
		users = append(users, c.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// snapshotFrameLocked builds a board_data_update frame. History goes
// newest-first; the client reverses it back into chronological order.
func (r *Room) snapshotFrameLocked(withHistory bool) ([]byte, error) {
	snap := protocol.BoardData{
		BoardID:     r.boardID,
		Todos:       append([]domain.Todo(nil), r.todos...),
		Categories:  append([]domain.Category(nil), r.categories...),
		ActiveUsers: r.activeUsersLocked(),
	}
	if withHistory && len(r.chat) > 0 {
		hist := make([]domain.ChatMessage, len(r.chat))
		for i, m := range r.chat {
			hist[len(hist)-1-i] = m
		}
		snap.ChatHistory = hist
	}
	return protocol.Encode(protocol.ActionBoardDataUpdate, snap)
}

func (r *Room) broadcastSnapshotLocked() {
	frame, err := r.snapshotFrameLocked(false)
	if err != nil {
		r.log.Error().Err(err).Msg("encode snapshot")
		return
	}
	r.broadcastLocked(frame)
}

func (r *Room) broadcastActiveUsersLocked(except uuid.UUID) {
	frame, err := protocol.Encode(protocol.ActionActiveUsersUpdate, r.activeUsersLocked())
	if err != nil {
		return
	}
	for id, c := range r.clients {
		if id == except {
			continue
		}
		select {
		case c.send <- frame:
		default:
		}
	}
}

func (r *Room) broadcastLocked(frame []byte) {
	for _, c := range r.clients {
		select {
		case c.send <- frame:
		default:
			r.log.Warn().Str("client", c.id.String()).Msg("dropping frame for slow client")
		}
	}
	if r.publish != nil {
		r.publish(frame)
	}
}

// relayRemote pushes a frame received from another boardd instance to the
// local clients without touching room state.
func (r *Room) relayRemote(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		select {
		case c.send <- frame:
		default:
		}
	}
}
