package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/ideaboard/internal/config"
	"github.com/gosuda/ideaboard/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Client.ServerURL)
	assert.Equal(t, domain.RoleEditor, cfg.Client.Role)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.CursorInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.Client.PositionDebounce)
	assert.False(t, cfg.Client.Reconnect)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.ReconnectBase)
	assert.Equal(t, 30*time.Second, cfg.Client.ReconnectMax)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
	assert.False(t, cfg.Server.RedisFanout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOARD_ID", "42")
	t.Setenv("BOARD_TOKEN", "tok")
	t.Setenv("BOARD_USERNAME", "ada")
	t.Setenv("BOARD_ROLE", "viewer")
	t.Setenv("BOARD_CURSOR_INTERVAL", "50ms")
	t.Setenv("BOARD_POSITION_DEBOUNCE", "1s")
	t.Setenv("BOARD_RECONNECT", "true")
	t.Setenv("BOARD_REDIS_FANOUT", "true")
	t.Setenv("BOARD_REDIS_DB", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Client.BoardID)
	assert.Equal(t, "tok", cfg.Client.Token)
	assert.Equal(t, domain.RoleViewer, cfg.Client.Role)
	assert.Equal(t, 50*time.Millisecond, cfg.Client.CursorInterval)
	assert.Equal(t, time.Second, cfg.Client.PositionDebounce)
	assert.True(t, cfg.Client.Reconnect)
	assert.True(t, cfg.Server.RedisFanout)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("BOARD_CURSOR_INTERVAL", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}

func TestValidateClient(t *testing.T) {
	t.Setenv("BOARD_ID", "7")
	t.Setenv("BOARD_TOKEN", "tok")
	t.Setenv("BOARD_USERNAME", "ada")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateClient())

	t.Run("missing token", func(t *testing.T) {
		bad := *cfg
		bad.Client.Token = ""
		assert.Error(t, bad.ValidateClient())
	})

	t.Run("missing board id", func(t *testing.T) {
		bad := *cfg
		bad.Client.BoardID = 0
		assert.Error(t, bad.ValidateClient())
	})

	t.Run("bad role", func(t *testing.T) {
		bad := *cfg
		bad.Client.Role = "admin"
		assert.Error(t, bad.ValidateClient())
	})
}

func TestValidateServer(t *testing.T) {
	t.Setenv("BOARD_SECRET", "test-secret-key-at-least-32-characters")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateServer())

	t.Run("missing secret", func(t *testing.T) {
		bad := *cfg
		bad.Server.Secret = ""
		assert.Error(t, bad.ValidateServer())
	})

	t.Run("short secret", func(t *testing.T) {
		bad := *cfg
		bad.Server.Secret = "short"
		assert.Error(t, bad.ValidateServer())
	})
}
