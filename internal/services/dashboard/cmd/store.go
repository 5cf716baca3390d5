package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/config"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/store"
	"github.com/LeonardoBeccarini/smartstick_monitor/pkg/mqttbus"
)

// openedStore is a store plus whatever background work and cleanup its
// driver needs.
type openedStore struct {
	store.Store
	run   func(ctx context.Context) error
	close func()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*openedStore, error) {
	switch cfg.Store.Driver {
	case config.DriverRTDB:
		s, err := store.NewRTDBStore(store.RTDBConfig{
			DatabaseURL:     cfg.Store.DatabaseURL,
			AuthToken:       cfg.Store.AuthToken,
			Timeout:         cfg.Store.Timeout,
			BreakerFailures: int(cfg.Store.Breaker.Failures),
			BreakerOpenFor:  cfg.Store.Breaker.OpenFor,
			BreakerInterval: cfg.Store.Breaker.Interval,
		})
		if err != nil {
			return nil, err
		}
		return &openedStore{Store: s}, nil

	case config.DriverFirebase:
		s, err := store.NewFirebaseStore(ctx, cfg.Store.DatabaseURL, cfg.Store.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return &openedStore{Store: s}, nil

	case config.DriverMQTT:
		client, err := mqttbus.Connect(ctx, &mqttbus.Config{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
		}, log)
		if err != nil {
			return nil, err
		}
		s := store.NewMQTTStore(client, cfg.MQTT.TopicPrefix, log)
		return &openedStore{Store: s, run: s.Run, close: func() { mqttbus.Close(client) }}, nil

	case config.DriverMemory:
		return &openedStore{Store: store.NewMemoryStore()}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
