package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/mindguide")
	t.Setenv("GUIDE_API_URL", "https://guide.example/")
	t.Setenv("ADMIN_IDS", "1,2")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 30*time.Millisecond, cfg.GuidePacing)
	require.Equal(t, 24*time.Hour, cfg.GuideIdleTTL)
	require.Equal(t, 1200*time.Millisecond, cfg.EditInterval)
	require.Equal(t, "https://guide.example/guide/chat", cfg.ChatURL())
	require.Equal(t, "https://guide.example/guide/tiles", cfg.TilesURL())
	require.True(t, cfg.IsAdmin(2))
	require.False(t, cfg.IsAdmin(3))
	require.Equal(t, "1,2", cfg.AdminIDsString())
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadRequiresGuideURL(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/mindguide")
	t.Setenv("GUIDE_API_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	} {
		require.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}
