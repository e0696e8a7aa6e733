// Package board wires the synchronization core together: one Session owns
// the connection, the state store, the presence tracker and the drag
// reconciler for one open board. Everything board-scoped lives inside the
// session and is destroyed deterministically on teardown; there are no
// ambient globals and no cross-board state retention.
package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosuda/ideaboard/internal/client"
	"github.com/gosuda/ideaboard/internal/domain"
	"github.com/gosuda/ideaboard/internal/drag"
	"github.com/gosuda/ideaboard/internal/layout"
	"github.com/gosuda/ideaboard/internal/presence"
	"github.com/gosuda/ideaboard/internal/protocol"
	"github.com/gosuda/ideaboard/internal/state"
)

// Config describes one board session.
type Config struct {
	ServerURL string
	BoardID   int64
	Token     string

	SelfUserID   int64
	SelfUsername string
	Role         domain.Role

	CursorInterval   time.Duration // outbound cursor throttle window
	PositionDebounce time.Duration // drag position quiescence window
	NodeDiameter     float64
	BinInflation     float64
	Layout           layout.Config

	// Reconnect enables capped exponential backoff after abnormal closes.
	// Unauthorized closes (4001/4003) are terminal regardless.
	Reconnect     bool
	ReconnectBase time.Duration
	ReconnectMax  time.Duration

	Logger zerolog.Logger
}

func (c *Config) fillDefaults() {
	if c.CursorInterval <= 0 {
		c.CursorInterval = 100 * time.Millisecond
	}
	if c.PositionDebounce <= 0 {
		c.PositionDebounce = 750 * time.Millisecond
	}
	if c.NodeDiameter <= 0 {
		c.NodeDiameter = 48
	}
	if c.BinInflation <= 0 {
		c.BinInflation = 70
	}
	if c.Layout == (layout.Config{}) {
		c.Layout = layout.DefaultConfig()
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = 500 * time.Millisecond
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = 30 * time.Second
	}
}

// Session is the arena for one open board connection.
type Session struct {
	cfg Config
	log zerolog.Logger

	store   *state.Store
	tracker *presence.Tracker
	drag    *drag.Reconciler

	mu            sync.Mutex
	conn          *client.Conn
	connected     bool
	unauthorized  bool
	closed        bool
	errMsg        string
	colorPreviews map[int64]string
	loopDone      chan struct{}

	// onChange fires after every applied state mutation so the caller can
	// recompute layout and re-render.
	onChange func()
}

// NewSession builds a session; Open establishes the connection.
func NewSession(cfg Config) *Session {
	cfg.fillDefaults()
	s := &Session{
		cfg:           cfg,
		log:           cfg.Logger.With().Int64("board_id", cfg.BoardID).Logger(),
		store:         state.New(),
		colorPreviews: make(map[int64]string),
	}
	s.tracker = presence.New(cfg.SelfUserID, cfg.CursorInterval, sessionSender{s}, s.store)
	s.drag = drag.New(drag.Config{
		NodeDiameter:     cfg.NodeDiameter,
		BinInflation:     cfg.BinInflation,
		PositionDebounce: cfg.PositionDebounce,
	}, s.store, sessionSender{s})
	return s
}

// sessionSender adapts the session to the Sender interfaces of the presence
// and drag packages.
type sessionSender struct{ s *Session }

func (w sessionSender) Send(action string, payload any) error {
	return w.s.Send(action, payload)
}

// OnChange registers a callback invoked after every applied mutation. Set it
// before Open.
func (s *Session) OnChange(fn func()) {
	s.onChange = fn
}

// Open connects to the board. All board-scoped state is cleared first, so
// stale data from a previous connection is never visible. If a socket is
// already open it is closed and its event loop drained before the new one is
// established; a buffered frame from the old socket can never land after the
// reset.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	old := s.conn
	oldDone := s.loopDone
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if oldDone != nil {
		<-oldDone
	}
	s.teardownState()

	wsURL, err := client.BuildURL(s.cfg.ServerURL, s.cfg.BoardID, s.cfg.Token)
	if err != nil {
		return fmt.Errorf("board.Session.Open: %w", err)
	}

	conn, err := client.Dial(ctx, wsURL, s.log)
	if err != nil {
		return fmt.Errorf("board.Session.Open: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.errMsg = ""
	loopDone := make(chan struct{})
	s.loopDone = loopDone
	s.mu.Unlock()

	s.log.Info().Str("url", s.cfg.ServerURL).Msg("board connected")
	go s.eventLoop(conn, loopDone)
	return nil
}

// Close tears the session down: normal close (code 1000), all five state
// collections cleared, queued throttled/debounced sends discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.connected = false
	loopDone := s.loopDone
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if loopDone != nil {
		<-loopDone
	}
	s.drag.Stop()
	s.store.Reset()
	return nil
}

// teardownState clears board-scoped state between connections without
// killing the reusable pieces.
func (s *Session) teardownState() {
	s.drag.Reset()
	s.store.Reset()
	s.mu.Lock()
	s.colorPreviews = make(map[int64]string)
	s.mu.Unlock()
}

func (s *Session) eventLoop(conn *client.Conn, done chan struct{}) {
	defer close(done)

	for ev := range conn.Events() {
		switch e := ev.(type) {
		case client.MessageEvent:
			s.apply(e.Msg)

		case client.ProtocolErrorEvent:
			s.setError("Received invalid data from server.")

		case client.ClosedEvent:
			s.handleClosed(conn, e)
			return
		}
	}
}

func (s *Session) apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.BoardData:
		s.store.ApplySnapshot(m)
		s.changed()

	case protocol.ActiveUsers:
		s.store.ApplyActiveUsers(m.Users)
		s.changed()

	case protocol.CursorUpdate:
		if s.tracker.HandleCursorUpdate(m.CursorPosition) {
			s.changed()
		}

	case protocol.NewChat:
		s.store.AppendChat(m.ChatMessage)
		s.changed()

	case protocol.ServerError:
		s.log.Warn().Str("message", m.Message).Msg("server error")
		s.setError(m.Message)

	case protocol.Unknown:
		// Logged at the connection; ignored here for forward compatibility.
	}
}

func (s *Session) handleClosed(conn *client.Conn, e client.ClosedEvent) {
	s.mu.Lock()
	// A reopen detaches the old conn before closing it; its close is then
	// routine teardown, not an error worth a banner or a retry.
	superseded := s.conn != conn
	if !superseded {
		s.conn = nil
	}
	s.connected = false
	userClosed := s.closed
	s.mu.Unlock()

	// Board-scoped state never survives a close.
	s.teardownState()

	if userClosed || superseded || e.Code == client.CloseNormal {
		s.changed()
		return
	}

	if e.Unauthorized() {
		s.mu.Lock()
		s.unauthorized = true
		s.errMsg = "Connection unauthorized."
		s.mu.Unlock()
		s.log.Warn().Int("code", int(e.Code)).Msg("board connection unauthorized, not retrying")
		s.changed()
		return
	}

	s.setError("WebSocket connection error.")
	s.changed()

	if s.cfg.Reconnect {
		go s.reconnectLoop()
	}
}

// reconnectLoop retries with capped exponential backoff until the session is
// closed, marked unauthorized, or a dial succeeds.
func (s *Session) reconnectLoop() {
	delay := s.cfg.ReconnectBase
	for {
		time.Sleep(delay)

		s.mu.Lock()
		stop := s.closed || s.unauthorized
		s.mu.Unlock()
		if stop {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.Open(ctx)
		cancel()
		if err == nil {
			s.log.Info().Msg("board reconnected")
			return
		}

		s.log.Warn().Err(err).Dur("next_delay", delay).Msg("reconnect failed")
		delay *= 2
		if delay > s.cfg.ReconnectMax {
			delay = s.cfg.ReconnectMax
		}
	}
}

// Send transmits one client action. Reports domain.ErrNotConnected (and sets
// the error banner) when no socket is open; it never queues.
func (s *Session) Send(action string, payload any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.setError("Not connected to board.")
		return domain.ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return conn.Send(ctx, action, payload)
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Session) requireEditor() error {
	if !s.cfg.Role.CanEdit() {
		return domain.ErrViewerRole
	}
	return nil
}
