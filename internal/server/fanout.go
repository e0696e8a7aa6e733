package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Fanout relays board frames between boardd instances over Redis pub/sub.
// Each frame carries the publishing instance's id so an instance never
// re-applies its own traffic.
type Fanout struct {
	client   *redis.Client
	instance uuid.UUID
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

type fanoutFrame struct {
	Origin uuid.UUID       `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

// NewFanout connects to Redis and verifies the connection.
func NewFanout(ctx context.Context, addr, password string, db int, log zerolog.Logger) (*Fanout, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("server.NewFanout: ping: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	return &Fanout{
		client:   client,
		instance: uuid.New(),
		log:      log,
		ctx:      runCtx,
		cancel:   cancel,
	}, nil
}

// Close stops all subscriptions and releases the Redis client.
func (f *Fanout) Close() error {
	f.cancel()
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("server.Fanout.Close: %w", err)
	}
	return nil
}

// BoardChannel returns the Redis channel name for one board.
func BoardChannel(boardID int64) string {
	return "board:" + strconv.FormatInt(boardID, 10)
}

// Publish forwards a locally produced frame to the other instances.
// Best-effort; a Redis hiccup must not take down local delivery.
func (f *Fanout) Publish(boardID int64, frame []byte) {
	payload, err := json.Marshal(fanoutFrame{Origin: f.instance, Frame: frame})
	if err != nil {
		return
	}
	if err := f.client.Publish(f.ctx, BoardChannel(boardID), payload).Err(); err != nil {
		f.log.Warn().Err(err).Int64("board_id", boardID).Msg("fanout publish")
	}
}

// Subscribe starts relaying remote frames for a board into deliver. Frames
// published by this instance are skipped.
func (f *Fanout) Subscribe(boardID int64, deliver func(frame []byte)) {
	sub := f.client.Subscribe(f.ctx, BoardChannel(boardID))

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-f.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ff fanoutFrame
				if err := json.Unmarshal([]byte(msg.Payload), &ff); err != nil {
					f.log.Warn().Err(err).Msg("fanout decode")
					continue
				}
				if ff.Origin == f.instance {
					continue
				}
				deliver(ff.Frame)
			}
		}
	}()
}
