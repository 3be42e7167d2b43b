package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"garage_door/internal/logger"
	"garage_door/internal/models"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultMQTTTopic    = "garage/door"
	mqttConnectAttempts = 5
	mqttConnectMaxWait  = 30 * time.Second
	mqttDisconnectQuiet = 250 // ms
)

// MQTTConfig configures the MQTT sender.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	User     string
	Password string
	Topic    string
}

// MQTT publishes every notification as JSON to <topic>/<kind>, retained
// for the data kind so late subscribers see the current state.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// DialMQTT connects to the broker, retrying with exponential backoff.
func DialMQTT(ctx context.Context, cfg MQTTConfig, log *logger.Logger) (*MQTT, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = mqttConnectMaxWait

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warnw("mqtt_connect_failed", "broker", cfg.Broker, "err", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, mqttConnectAttempts-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	log.Infow("mqtt_connected", "broker", cfg.Broker)
	return newMQTT(client, cfg.Topic), nil
}

func newMQTT(client mqtt.Client, topic string) *MQTT {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTT{client: client, topic: topic}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Send(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrNotification, err)
	}
	token := m.client.Publish(m.topic+"/"+string(n.Kind), 1, n.Kind == models.NotifyData, payload)

	wait := DefaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("%w: mqtt publish timed out", ErrNotification)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: mqtt publish: %v", ErrNotification, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(mqttDisconnectQuiet)
	}
}
