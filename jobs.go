package main

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/marcus-crane/lobby/events"
	"github.com/marcus-crane/lobby/media"
	"github.com/marcus-crane/lobby/patients"
)

const (
	heartbeatInterval = 15 * time.Second
	refreshInterval   = time.Minute
)

func refreshAll(ps *patients.PatientSystem, ms *media.MediaSystem) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ps.Sync(ctx)
	ms.Sync(ctx)
}

func SetupInBackground(broker *events.Broker, ps *patients.PatientSystem, ms *media.MediaSystem) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	// Display clients only consider themselves connected once something
	// arrives so this also bounds how long a fresh display waits
	if _, err := s.NewJob(
		gocron.DurationJob(heartbeatInterval),
		gocron.NewTask(broker.Heartbeat),
	); err != nil {
		return nil, err
	}

	if _, err := s.NewJob(
		gocron.DurationJob(refreshInterval),
		gocron.NewTask(refreshAll, ps, ms),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	// If we're redeployed, we'll populate the latest state
	refreshAll(ps, ms)

	return s, nil
}
