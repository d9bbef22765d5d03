package ingest

import (
	"context"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/marcus-crane/lobby/config"
)

// MQTTSubscriber applies stage events published by bedside and theatre
// devices. The subscription is renewed from the connect handler on every
// reconnect.
type MQTTSubscriber struct {
	cfg     config.MQTTConfig
	updater StageUpdater
	client  mqtt.Client
	timeout time.Duration
}

func NewMQTTSubscriber(cfg config.MQTTConfig, updater StageUpdater) *MQTTSubscriber {
	return &MQTTSubscriber{
		cfg:     cfg,
		updater: updater,
		timeout: 10 * time.Second,
	}
}

func (s *MQTTSubscriber) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.OnConnect = func(client mqtt.Client) {
		slog.Info("Connected to MQTT broker", slog.String("broker", s.cfg.Broker))
		token := client.Subscribe(s.cfg.Topic, 1, s.handle)
		token.Wait()
		if err := token.Error(); err != nil {
			slog.Error("Failed to subscribe to stage topic", slog.String("topic", s.cfg.Topic), slog.Any("error", err))
			return
		}
		slog.Info("Subscribed to stage topic", slog.String("topic", s.cfg.Topic))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		slog.Warn("Lost connection to MQTT broker", slog.Any("error", err))
	}

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (s *MQTTSubscriber) handle(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	patient, err := ApplyStageUpdate(ctx, s.updater, msg.Payload())
	if err != nil {
		slog.Error("Failed to apply stage update",
			slog.String("topic", msg.Topic()),
			slog.String("payload", string(msg.Payload())),
			slog.Any("error", err))
		return
	}
	slog.Info("Applied stage update from MQTT",
		slog.Int64("patient_id", patient.ID),
		slog.String("stage", patient.Stage))
}

func (s *MQTTSubscriber) Stop() {
	if s.client == nil {
		return
	}
	s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(time.Second)
	s.client.Disconnect(250)
}
