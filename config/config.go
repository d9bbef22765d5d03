package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
)

type Config struct {
	Lobby    LobbyConfig
	Display  DisplayConfig
	MQTT     MQTTConfig
	Pushover PushoverConfig
	Webhook  WebhookConfig
}

type LobbyConfig struct {
	ListenAddr     string `env:"LISTEN_ADDR"`
	DbPath         string `env:"DB_PATH"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogFile        string `env:"LOG_FILE"`
	StorageDir     string `env:"STORAGE_DIR"`
	PublicURL      string `env:"PUBLIC_URL"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	JWTSecret      string `env:"JWT_SECRET"`
	ResolvePages   bool   `env:"RESOLVE_PAGES"`
	JobsEnabled    bool   `env:"BACKGROUND_JOBS_ENABLED"`
}

type DisplayConfig struct {
	ListenAddr           string `env:"DISPLAY_LISTEN_ADDR"`
	UpstreamURL          string `env:"DISPLAY_UPSTREAM_URL"`
	Token                string `env:"DISPLAY_TOKEN"`
	PollSeconds          int    `env:"DISPLAY_POLL_SECONDS"`
	TrustedPlayerOrigins string `env:"DISPLAY_TRUSTED_PLAYER_ORIGINS"`
}

type MQTTConfig struct {
	Broker   string `env:"MQTT_BROKER_URL"`
	ClientID string `env:"MQTT_CLIENT_ID"`
	Username string `env:"MQTT_USERNAME"`
	Password string `env:"MQTT_PASSWORD"`
	Topic    string `env:"MQTT_TOPIC"`
}

type PushoverConfig struct {
	Recipient string `env:"PUSHOVER_RECIPIENT"`
	Token     string `env:"PUSHOVER_TOKEN"`
}

type WebhookConfig struct {
	Secret string `env:"WEBHOOK_SECRET"`
}

// Defaults is what we run with when nothing is configured at all
func Defaults() Config {
	return Config{
		Lobby: LobbyConfig{
			ListenAddr:     ":8080",
			DbPath:         "lobby.db",
			LogLevel:       "info",
			StorageDir:     "./storage",
			PublicURL:      "http://localhost:8080",
			AllowedOrigins: "http://localhost:5173,http://localhost:8081",
			JobsEnabled:    true,
		},
		Display: DisplayConfig{
			ListenAddr:           ":8081",
			UpstreamURL:          "http://localhost:8080",
			PollSeconds:          30,
			TrustedPlayerOrigins: "https://www.youtube.com,https://www.youtube-nocookie.com",
		},
		MQTT: MQTTConfig{
			ClientID: "lobby",
			Topic:    "lobby/patients/stage",
		},
	}
}

// Load feeds the defaults with a .env file (if there is one) and then the
// process environment, which always wins.
func Load() (Config, error) {
	cfg := Defaults()
	c := config.New()
	if _, err := os.Stat(".env"); err == nil {
		c.AddFeeder(feeder.DotEnv{Path: ".env"})
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	c.AddFeeder(feeder.Env{})
	c.AddStruct(&cfg)
	if err := c.Feed(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Lobby.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}

// SplitList turns a comma separated setting into its trimmed, non-empty parts
func SplitList(value string) []string {
	parts := []string{}
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
