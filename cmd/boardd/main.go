// boardd is the development board server: an in-memory WebSocket relay for
// collaborative boards, with optional Redis fanout between instances.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/ideaboard/internal/config"
	"github.com/gosuda/ideaboard/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg.Log)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var fanout *server.Fanout
	if cfg.Server.RedisFanout {
		fanout, err = server.NewFanout(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = fanout.Close() }()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis fanout enabled")
	}

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		Secret:       cfg.Server.Secret,
		TokenTTL:     cfg.Server.TokenTTL,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, fanout, log.Logger)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting boardd")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func initLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
