package stick_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/smartstick_monitor/pkg/mqttbus"
)

// CommandPath is the tree, relative to the topic prefix, on which the
// simulator accepts manual emergency triggers.
const CommandPath = "cmd/emergency"

type emergencyCommand struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// StickSimulator publishes a DataGenerator's trees on every tick.
type StickSimulator struct {
	generator *DataGenerator
	publisher mqttbus.IPublisher
	consumer  mqttbus.IConsumer
	log       *slog.Logger
	now       func() time.Time
}

// NewStickSimulator wires the simulator; consumer may be nil when manual
// triggers are not wanted.
func NewStickSimulator(consumer mqttbus.IConsumer, publisher mqttbus.IPublisher, gen *DataGenerator, log *slog.Logger) *StickSimulator {
	if log == nil {
		log = slog.Default()
	}
	return &StickSimulator{
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		log:       log,
		now:       time.Now,
	}
}

// Start publishes every interval until ctx is cancelled.
func (s *StickSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.handleMessage)
		go func() {
			if err := s.consumer.ConsumeMessage(ctx); err != nil {
				s.log.Error("stick-sim: command consumer stopped", "err", err)
			}
		}()
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-t.C:
			if err := s.PublishOnce(); err != nil {
				s.log.Warn("stick-sim: publish error", "err", err)
			}
		}
	}
}

// PublishOnce advances the generator and publishes all trees, status last so
// a reader never sees an emergency flag before its event.
func (s *StickSimulator) PublishOnce() error {
	trees := s.generator.Next(s.now())

	paths := make([]string, 0, len(trees))
	for p := range trees {
		if p != "system/status" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	paths = append(paths, "system/status")

	for _, p := range paths {
		payload, err := json.Marshal(trees[p])
		if err != nil {
			return fmt.Errorf("encode %s: %w", p, err)
		}
		if err := s.publisher.Publish(p, payload); err != nil {
			return err
		}
	}

	e, o, r := s.generator.Counts()
	s.log.Debug("stick-sim: published", "emergencies", e, "obstacles", o, "rf", r)
	return nil
}

func (s *StickSimulator) handleMessage(_ string, msg mqtt.Message) error {
	var cmd emergencyCommand
	if len(msg.Payload()) > 0 {
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			return fmt.Errorf("invalid emergency command: %w", err)
		}
	}
	var at *Point
	if cmd.Latitude != nil && cmd.Longitude != nil {
		at = &Point{Lat: *cmd.Latitude, Lon: *cmd.Longitude}
	}
	s.generator.TriggerEmergency(at)
	s.log.Info("stick-sim: emergency triggered", "at", at)
	return nil
}
