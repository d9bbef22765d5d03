package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcus-crane/lobby/auth"
	"github.com/marcus-crane/lobby/config"
	"github.com/marcus-crane/lobby/db"
	"github.com/marcus-crane/lobby/events"
	"github.com/marcus-crane/lobby/ingest"
	"github.com/marcus-crane/lobby/media"
	"github.com/marcus-crane/lobby/notify"
	"github.com/marcus-crane/lobby/patients"
	"github.com/marcus-crane/lobby/shared"
	"github.com/marcus-crane/lobby/utils"
)

func openStore(path string) (db.Store, error) {
	if path == "" {
		slog.Warn("No DB_PATH configured. Running with an in-memory store, nothing will survive a restart!")
		return db.NewMemoryStore(), nil
	}
	store, err := db.Initialize(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	utils.SetupLogging(cfg.GetLogLevel(), cfg.Lobby.LogFile)

	store, err := openStore(cfg.Lobby.DbPath)
	if err != nil {
		slog.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	storage, err := media.NewStorage(cfg.Lobby.StorageDir)
	if err != nil {
		slog.Error("Failed to prepare storage directory", slog.String("dir", cfg.Lobby.StorageDir), slog.Any("error", err))
		os.Exit(1)
	}

	broker := events.New(shared.STREAM_PATIENTS, shared.STREAM_MEDIA)

	ps := patients.NewPatientSystem(store, broker)
	if cfg.Pushover.Token != "" && cfg.Pushover.Recipient != "" {
		ps.SetNotifier(notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.Recipient))
		slog.Info("Stage notifications will be sent through Pushover")
	}

	ms := media.NewMediaSystem(store, broker)
	if cfg.Lobby.ResolvePages {
		ms.EnablePageResolution(utils.NewHTTPClient())
	}

	scheduler, err := SetupInBackground(broker, ps, ms)
	if err != nil {
		slog.Error("Failed to set up background jobs", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Lobby.JobsEnabled {
		scheduler.Start()
		slog.Info("Background jobs have started up in the background")
	} else {
		slog.Info("Background jobs are disabled")
	}

	var subscriber *ingest.MQTTSubscriber
	if cfg.MQTT.Broker != "" {
		subscriber = ingest.NewMQTTSubscriber(cfg.MQTT, ps)
		if err := subscriber.Start(); err != nil {
			// stage events can still come in through the API and webhook
			slog.Error("Failed to connect to MQTT broker", slog.String("broker", cfg.MQTT.Broker), slog.Any("error", err))
			subscriber = nil
		}
	}

	router := RegisterRoutes(http.NewServeMux(), API{
		Patients:      ps,
		Media:         ms,
		Storage:       storage,
		Broker:        broker,
		Auth:          auth.New(cfg.Lobby.JWTSecret),
		WebhookSecret: cfg.Webhook.Secret,
	}, config.SplitList(cfg.Lobby.AllowedOrigins))

	srv := &http.Server{
		Addr:              cfg.Lobby.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Lobby is running", slog.String("addr", cfg.Lobby.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Gracefully shutting down")

	// SSE connections never finish on their own so close the broker first
	broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server cleanly", slog.Any("error", err))
	}
	if err := scheduler.Shutdown(); err != nil {
		slog.Error("Failed to stop background jobs", slog.Any("error", err))
	}
	if subscriber != nil {
		subscriber.Stop()
	}
	slog.Info("Lobby has shut down")
}
