// internal/telemetry/telemetry.go

// Package telemetry publishes diagnostic snapshots as JSON over MQTT
// for dashboards and historians. Fire-and-forget: the broker being
// unreachable never blocks anything, the client reconnects on its own.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/diag"
)

const connectRetryInterval = 5 * time.Second

// Config for the MQTT publisher.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
}

// Publisher owns one MQTT connection.
type Publisher struct {
	cli   mqtt.Client
	topic string
}

// New connects to the broker. A broker that is down at start is not an
// error, the client keeps retrying in the background and publishes
// resume once it is up.
func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("telemetry: broker must not be empty")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("telemetry: topic must not be empty")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.OnConnect = func(mqtt.Client) {
		log.WithField("broker", cfg.Broker).Info("telemetry connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("telemetry connection lost")
	}

	cli := mqtt.NewClient(opts)
	token := cli.Connect()
	if !token.WaitTimeout(connectRetryInterval) {
		log.WithField("broker", cfg.Broker).Warn("telemetry broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Broker, err)
	}
	return &Publisher{cli: cli, topic: cfg.Topic}, nil
}

// Publish sends one snapshot, QoS 0.
func (p *Publisher) Publish(s diag.Snapshot) error {
	if !p.cli.IsConnectionOpen() {
		return nil // dropped, reconnect is in progress
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("telemetry: encode snapshot: %w", err)
	}
	token := p.cli.Publish(p.topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish: %w", err)
	}
	return nil
}

// Run publishes the latest snapshot at a fixed interval until ctx is
// canceled.
func (p *Publisher) Run(ctx context.Context, interval time.Duration, source func() diag.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithFields(log.Fields{
		"topic":    p.topic,
		"interval": interval,
	}).Info("telemetry loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info("telemetry loop stopped")
			return
		case <-ticker.C:
			if err := p.Publish(source()); err != nil {
				log.WithError(err).Warn("telemetry publish failed")
			}
		}
	}
}

// Close disconnects from the broker, allowing a short drain.
func (p *Publisher) Close() {
	p.cli.Disconnect(250)
}
