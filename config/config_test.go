package config

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/lobby-test.db")
	t.Setenv("DISPLAY_POLL_SECONDS", "5")
	t.Setenv("MQTT_TOPIC", "hospital/stage")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/lobby-test.db", cfg.Lobby.DbPath)
	assert.Equal(t, 5, cfg.Display.PollSeconds)
	assert.Equal(t, "hospital/stage", cfg.MQTT.Topic)
	// untouched values keep their defaults
	assert.Equal(t, ":8080", cfg.Lobby.ListenAddr)
}

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"loud":    slog.LevelInfo,
	}
	for input, want := range cases {
		cfg := Config{Lobby: LobbyConfig{LogLevel: input}}
		assert.Equal(t, want, cfg.GetLogLevel(), input)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" https://a.example , ,https://b.example,")
	want := []string{"https://a.example", "https://b.example"}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}
