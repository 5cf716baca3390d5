package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/smartstick_monitor/pkg/mqttbus"
)

// MQTTStore mirrors trees that the stick (or a bridge) publishes as retained
// messages below a topic prefix, e.g. `smartstick/system/status`. Get serves
// the last payload seen for a path.
type MQTTStore struct {
	conn     interface{ IsConnectionOpen() bool }
	consumer mqttbus.IConsumer
	prefix   string
	log      *slog.Logger

	mu    sync.RWMutex
	trees map[string][]byte
}

func NewMQTTStore(client mqtt.Client, prefix string, log *slog.Logger) *MQTTStore {
	if log == nil {
		log = slog.Default()
	}
	prefix = strings.Trim(prefix, "/")
	s := &MQTTStore{
		conn:   client,
		prefix: prefix,
		log:    log,
		trees:  make(map[string][]byte),
	}
	s.consumer = mqttbus.NewConsumer(client, mqttbus.Topic(prefix, "#"), 1, s.handle, log)
	return s
}

// Run subscribes and keeps the mirror current until ctx is cancelled.
func (s *MQTTStore) Run(ctx context.Context) error {
	return s.consumer.ConsumeMessage(ctx)
}

func (s *MQTTStore) handle(topic string, message mqtt.Message) error {
	path := normalizePath(strings.TrimPrefix(topic, s.prefix))
	if path == "" {
		return nil
	}
	payload := message.Payload()

	s.mu.Lock()
	defer s.mu.Unlock()
	// an empty retained message clears the topic
	if len(payload) == 0 {
		delete(s.trees, path)
		return nil
	}
	s.trees[path] = append([]byte(nil), payload...)
	return nil
}

func (s *MQTTStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.conn != nil && !s.conn.IsConnectionOpen() {
		return nil, ErrNotConnected
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.trees[normalizePath(path)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

var _ Store = (*MQTTStore)(nil)
