package mqttbus

import (
	"context"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler receives every message delivered on the consumer's subscription.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes and dispatches messages until the context ends.
type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler Handler
	log     *slog.Logger
}

func NewConsumer(client mqtt.Client, topic string, qos byte, handler Handler, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{client: client, topic: topic, qos: qos, handler: handler, log: log}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// reconnectNotifier is implemented by *Conn.
type reconnectNotifier interface {
	OnReconnect(fn func()) (remove func())
}

// ConsumeMessage subscribes and blocks until ctx is cancelled, then
// unsubscribes. It returns early only if the subscription is refused.
// When the client reports reconnects the subscription is renewed on each.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	if rn, ok := c.client.(reconnectNotifier); ok {
		remove := rn.OnReconnect(func() {
			if err := c.subscribe(); err != nil {
				c.log.Error("mqtt: resubscribe failed", "topic", c.topic, "err", err)
				return
			}
			c.log.Info("mqtt: resubscribed", "topic", c.topic)
		})
		defer remove()
	}

	if err := c.subscribe(); err != nil {
		return err
	}
	c.log.Info("mqtt: subscribed", "topic", c.topic)

	<-ctx.Done()

	if c.client.IsConnected() {
		c.client.Unsubscribe(c.topic).Wait()
	}
	return nil
}

func (c *Consumer) subscribe() error {
	token := c.client.Subscribe(c.topic, c.qos, func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			c.log.Warn("mqtt: no handler set", "topic", c.topic)
			return
		}
		if err := c.handler(message.Topic(), message); err != nil {
			c.log.Error("mqtt: error handling message", "topic", message.Topic(), "err", err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, token.Error())
	}
	return nil
}

var _ IConsumer = (*Consumer)(nil)
