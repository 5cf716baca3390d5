package mqttbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string

	// MaxRetries bounds the initial connection attempts.
	MaxRetries int
}

// Conn is an mqtt.Client that reports automatic reconnects. The session is
// clean, so the broker forgets subscriptions when the link drops; consumers
// register a hook to subscribe again.
type Conn struct {
	mqtt.Client

	mu        sync.Mutex
	hooks     map[int]func()
	nextHook  int
	connected bool
}

func newConn() *Conn {
	return &Conn{hooks: make(map[int]func())}
}

// OnReconnect registers fn to run after every reconnect (not the first
// connect). The returned func removes it.
func (c *Conn) OnReconnect(fn func()) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextHook
	c.nextHook++
	c.hooks[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.hooks, id)
		c.mu.Unlock()
	}
}

func (c *Conn) onConnect() {
	c.mu.Lock()
	if !c.connected {
		c.connected = true
		c.mu.Unlock()
		return
	}
	hooks := make([]func(), 0, len(c.hooks))
	for _, fn := range c.hooks {
		hooks = append(hooks, fn)
	}
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Connect opens an MQTT connection, retrying with exponential backoff, and
// disconnects automatically once ctx is cancelled.
func Connect(ctx context.Context, cfg *Config, log *slog.Logger) (*Conn, error) {
	if log == nil {
		log = slog.Default()
	}
	connAddr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt: connection lost", "broker", connAddr, "err", err)
	})
	conn := newConn()
	opts.SetOnConnectHandler(func(mqtt.Client) {
		conn.onConnect()
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	err := backoff.Retry(func() error {
		conn.Client = mqtt.NewClient(opts)
		if token := conn.Client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn("mqtt: connect failed", "broker", connAddr, "err", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Info("mqtt: connected", "broker", connAddr, "client_id", cfg.ClientID)

	go func() {
		<-ctx.Done()
		Close(conn)
	}()

	return conn, nil
}

// Close disconnects the client if it is still connected.
func Close(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
}
