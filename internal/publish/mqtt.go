package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/control"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// MQTT publishes fan status as retained JSON messages on <prefix>/<fan>/state
type MQTT struct {
	client mqtt.Client
	prefix string
}

// NewMQTT connects to the broker described by cfg
func NewMQTT(cfg config.MQTTConfig, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	if len(cfg.Username) > 0 && len(cfg.Password) > 0 {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("cannot connect to MQTT broker at %s: %w", cfg.Broker, token.Error())
	}

	return newMQTT(client, cfg.TopicPrefix), nil
}

func newMQTT(client mqtt.Client, prefix string) *MQTT {
	return &MQTT{client: client, prefix: prefix}
}

// Topic returns the state topic of the named fan
func (m *MQTT) Topic(name string) string {
	return fmt.Sprintf("%s/%s/state", m.prefix, name)
}

// Publish implements control.Publisher
func (m *MQTT) Publish(status control.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("could not convert status to JSON: %w", err)
	}

	topic := m.Topic(status.Name)
	token := m.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("timed out publishing to topic " + topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("could not publish to topic %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
