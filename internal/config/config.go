// Package config loads boardctl and boardd configuration from BOARD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gosuda/ideaboard/internal/domain"
)

// Config holds all settings for both binaries. Client holds the synchronization
// core tuning used by boardctl; Server holds boardd settings.
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Redis  RedisConfig
	Log    LogConfig
}

// ClientConfig holds one board connection's settings.
type ClientConfig struct {
	ServerURL string
	BoardID   int64
	Token     string

	UserID   int64
	Username string
	Role     domain.Role

	CursorInterval   time.Duration
	PositionDebounce time.Duration

	Reconnect     bool
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// ServerConfig holds boardd HTTP settings.
type ServerConfig struct {
	Addr         string
	Secret       string //nolint:gosec // G117: token signing secret config
	TokenTTL     time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RedisFanout  bool
}

// RedisConfig holds the optional fanout connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// LogConfig holds logging settings shared by both binaries.
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from environment variables. Defaults are safe for
// local development only.
func Load() (*Config, error) {
	boardID, err := getEnvInt64("BOARD_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	userID, err := getEnvInt64("BOARD_USER_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cursorInterval, err := getEnvDuration("BOARD_CURSOR_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	positionDebounce, err := getEnvDuration("BOARD_POSITION_DEBOUNCE", 750*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reconnect, err := getEnvBool("BOARD_RECONNECT", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reconnectBase, err := getEnvDuration("BOARD_RECONNECT_BASE", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reconnectMax, err := getEnvDuration("BOARD_RECONNECT_MAX", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tokenTTL, err := getEnvDuration("BOARD_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("BOARD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("BOARD_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisFanout, err := getEnvBool("BOARD_REDIS_FANOUT", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("BOARD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Client: ClientConfig{
			ServerURL:        getEnv("BOARD_SERVER_URL", "http://localhost:8080"),
			BoardID:          boardID,
			Token:            getEnv("BOARD_TOKEN", ""),
			UserID:           userID,
			Username:         getEnv("BOARD_USERNAME", ""),
			Role:             domain.Role(getEnv("BOARD_ROLE", string(domain.RoleEditor))),
			CursorInterval:   cursorInterval,
			PositionDebounce: positionDebounce,
			Reconnect:        reconnect,
			ReconnectBase:    reconnectBase,
			ReconnectMax:     reconnectMax,
		},
		Server: ServerConfig{
			Addr:         getEnv("BOARD_SERVER_ADDR", ":8080"),
			Secret:       getEnv("BOARD_SECRET", ""),
			TokenTTL:     tokenTTL,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			RedisFanout:  redisFanout,
		},
		Redis: RedisConfig{
			Addr:     getEnv("BOARD_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("BOARD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Log: LogConfig{
			Level:  getEnv("BOARD_LOG_LEVEL", "info"),
			Format: getEnv("BOARD_LOG_FORMAT", "console"),
		},
	}

	return cfg, nil
}

// ValidateClient checks the fields boardctl needs.
func (c *Config) ValidateClient() error {
	if c.Client.BoardID <= 0 {
		return fmt.Errorf("BOARD_ID must be positive, got %d", c.Client.BoardID)
	}
	if c.Client.Token == "" {
		return errors.New("BOARD_TOKEN is required")
	}
	if c.Client.Username == "" {
		return errors.New("BOARD_USERNAME is required")
	}
	if !c.Client.Role.Valid() {
		return fmt.Errorf("BOARD_ROLE must be owner, editor or viewer, got %q", c.Client.Role)
	}
	if c.Client.CursorInterval <= 0 {
		return fmt.Errorf("BOARD_CURSOR_INTERVAL must be positive, got %s", c.Client.CursorInterval)
	}
	if c.Client.PositionDebounce <= 0 {
		return fmt.Errorf("BOARD_POSITION_DEBOUNCE must be positive, got %s", c.Client.PositionDebounce)
	}
	return nil
}

// ValidateServer checks the fields boardd needs.
func (c *Config) ValidateServer() error {
	if c.Server.Secret == "" {
		return errors.New("BOARD_SECRET is required")
	}
	if len(c.Server.Secret) < 32 {
		return errors.New("BOARD_SECRET must be at least 32 characters")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("BOARD_TOKEN_TTL must be positive, got %s", c.Server.TokenTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("BOARD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("BOARD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int64: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}
