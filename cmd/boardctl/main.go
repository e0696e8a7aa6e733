// boardctl is a headless board client: it joins one board, mirrors the live
// state to the log, and relays stdin lines as chat messages. Useful for
// smoke-testing a board server without a browser.
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/ideaboard/internal/board"
	"github.com/gosuda/ideaboard/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	say := flag.String("say", "", "post one chat message after connecting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg.Log)

	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	session := board.NewSession(board.Config{
		ServerURL:        cfg.Client.ServerURL,
		BoardID:          cfg.Client.BoardID,
		Token:            cfg.Client.Token,
		SelfUserID:       cfg.Client.UserID,
		SelfUsername:     cfg.Client.Username,
		Role:             cfg.Client.Role,
		CursorInterval:   cfg.Client.CursorInterval,
		PositionDebounce: cfg.Client.PositionDebounce,
		Reconnect:        cfg.Client.Reconnect,
		ReconnectBase:    cfg.Client.ReconnectBase,
		ReconnectMax:     cfg.Client.ReconnectMax,
		Logger:           log.Logger,
	})
	session.OnChange(func() {
		log.Debug().
			Int("todos", len(session.Todos())).
			Int("active_users", len(session.ActiveUsers())).
			Int("chat", len(session.Chat())).
			Msg("board state changed")
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	err = session.Open(dialCtx)
	dialCancel()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if *say != "" {
		if err := session.SendChat(*say); err != nil {
			log.Warn().Err(err).Msg("chat send failed")
		}
	}

	// Every stdin line becomes a chat message. Blank lines are dropped by
	// SendChat; EOF just stops the relay, the session stays up.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := session.SendChat(scanner.Text()); err != nil {
				log.Warn().Err(err).Msg("chat send failed")
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warn().Err(err).Msg("stdin read failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("leaving board")
	return nil
}

func initLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
