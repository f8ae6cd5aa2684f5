package config_test

import (
	"testing"
	"time"

	"go-huddle/core/config"

	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 1500*time.Millisecond, cfg.Scheduling.EditSuppressionWindow)
	require.Equal(t, 500*time.Millisecond, cfg.Scheduling.SaveDebounce)
	require.Equal(t, 10, cfg.Scheduling.ProposalLimit)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCHEDULING_SAVE_DEBOUNCE", "250ms")
	t.Setenv("STORAGE_BUCKET", "huddle-archive")
	t.Setenv("DATABASE_NAME", "huddle_test")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 250*time.Millisecond, cfg.Scheduling.SaveDebounce)
	require.Equal(t, "huddle-archive", cfg.Storage.Bucket)
	require.Equal(t, "huddle_test", cfg.Database.Name)
}

func TestLoad_missingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "JWT_SECRET")
}
