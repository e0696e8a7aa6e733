package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gosuda/ideaboard/internal/client"
	"github.com/gosuda/ideaboard/internal/domain"
)

// Hub manages the per-board rooms and upgrades board connections.
type Hub struct {
	secret string
	log    zerolog.Logger
	fanout *Fanout // nil when running single-instance

	mu    sync.Mutex
	rooms map[int64]*Room
}

// NewHub creates a hub. fanout may be nil for single-instance deployments.
func NewHub(secret string, fanout *Fanout, log zerolog.Logger) *Hub {
	return &Hub{
		secret: secret,
		log:    log,
		fanout: fanout,
		rooms:  make(map[int64]*Room),
	}
}

// Room returns the room for a board, creating it on first use.
func (h *Hub) Room(boardID int64) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[boardID]
	if !ok {
		r = newRoom(boardID, h.log)
		h.rooms[boardID] = r
		if h.fanout != nil {
			r.publish = func(frame []byte) { h.fanout.Publish(boardID, frame) }
			h.fanout.Subscribe(boardID, r.relayRemote)
		}
	}
	return r
}

// ServeBoard upgrades GET /ws/board/{boardID}/{token}. Auth runs after the
// upgrade so the client observes the close code: 4001 for a bad token, 4003
// for a token scoped to a different board.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := strconv.ParseInt(chi.URLParam(r, "boardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}
	token := chi.URLParam(r, "token")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	claims, err := VerifyToken(h.secret, token)
	if err != nil {
		h.log.Warn().Err(err).Int64("board_id", boardID).Msg("rejecting connection")
		_ = conn.Close(client.CloseUnauthorized, "invalid token")
		return
	}
	if claims.BoardID != boardID {
		h.log.Warn().
			Int64("board_id", boardID).
			Int64("token_board_id", claims.BoardID).
			Msg("token scoped to another board")
		_ = conn.Close(client.CloseForbidden, "wrong board")
		return
	}

	c := &roomClient{
		id: uuid.New(),
		user: domain.ActiveUser{
			UserID:   claims.UserID,
			Username: claims.Username,
			Color:    claims.Color,
			Role:     claims.Role,
		},
		send: make(chan []byte, 64),
	}

	room := h.Room(boardID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, c)

	room.Join(c)
	defer room.Leave(c.id)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Int64("user_id", claims.UserID).Msg("websocket read")
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		room.HandleFrame(c, data)
	}
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, c *roomClient) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("websocket write")
				return
			}
		}
	}
}
