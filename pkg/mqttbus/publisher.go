package mqttbus

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes tree snapshots below a topic prefix.
type IPublisher interface {
	Publish(path string, payload []byte) error
	Close()
}

// Publisher publishes retained messages so a late subscriber immediately gets
// the current value of every tree.
type Publisher struct {
	client mqtt.Client
	prefix string
}

func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: strings.Trim(prefix, "/")}
}

func (p *Publisher) Publish(path string, payload []byte) error {
	topic := Topic(p.prefix, path)
	token := p.client.Publish(topic, 1, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	Close(p.client)
}

// Topic joins prefix and a tree path into an MQTT topic.
func Topic(prefix, path string) string {
	path = strings.Trim(path, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

var _ IPublisher = (*Publisher)(nil)
