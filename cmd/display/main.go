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

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/r3labs/sse/v2"

	"github.com/marcus-crane/lobby/client"
	"github.com/marcus-crane/lobby/config"
	"github.com/marcus-crane/lobby/display"
	"github.com/marcus-crane/lobby/utils"
)

func setupPolling(loop *display.Loop, d *display.Display, seconds int) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	if seconds <= 0 {
		slog.Info("Polling fallback is disabled")
		return s, nil
	}
	if _, err := s.NewJob(
		gocron.DurationJob(time.Duration(seconds)*time.Second),
		gocron.NewTask(func() {
			loop.Post(d.Refetch)
		}),
	); err != nil {
		return nil, err
	}
	return s, nil
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := display.NewLoop(clockwork.NewRealClock())
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()

	events := sse.New()
	events.AutoReplay = false
	surface := display.NewBroadcastSurface(events)

	channel := display.NewSSEChannel(ctx, cfg.Display.UpstreamURL, cfg.Display.Token)
	api := client.NewClient(cfg.Display.UpstreamURL, cfg.Display.Token, nil)

	d := display.New(loop, channel, api, surface, display.Options{
		PublicBase:     cfg.Lobby.PublicURL,
		TrustedOrigins: config.SplitList(cfg.Display.TrustedPlayerOrigins),
	})
	d.OnView(surface.PublishView)
	loop.Post(func() { d.Mount(ctx) })

	scheduler, err := setupPolling(loop, d, cfg.Display.PollSeconds)
	if err != nil {
		slog.Error("Failed to set up polling", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.Display.ListenAddr,
		Handler:           display.RegisterRoutes(http.NewServeMux(), loop, d, events),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Display is running", slog.String("addr", cfg.Display.ListenAddr), slog.String("upstream", cfg.Display.UpstreamURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Gracefully shutting down")

	if err := scheduler.Shutdown(); err != nil {
		slog.Error("Failed to stop polling", slog.Any("error", err))
	}

	unmountCtx, cancelUnmount := context.WithTimeout(context.Background(), 5*time.Second)
	if err := loop.Call(unmountCtx, d.Unmount); err != nil {
		slog.Warn("Display did not unmount cleanly", slog.Any("error", err))
	}
	cancelUnmount()
	stopLoop()
	<-loopDone

	events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server cleanly", slog.Any("error", err))
		_ = srv.Close()
	}
	slog.Info("Display has shut down")
}
