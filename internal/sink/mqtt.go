package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"eta_monitor/internal/config"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/models"
)

// mqttClient is the part of mqtt.Client the sink uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each snapshot as JSON to a single topic.
type MQTT struct {
	client mqttClient
	topic  string
	qos    byte
}

// NewMQTT connects to the broker from cfg.
func NewMQTT(cfg config.MQTTConfig, log *logger.Logger) (*MQTT, error) {
	log = logger.OrNop(log)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "err", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return newMQTT(client, cfg.Topic, cfg.QoS), nil
}

func newMQTT(c mqttClient, topic string, qos byte) *MQTT {
	return &MQTT{client: c, topic: topic, qos: qos}
}

func (m *MQTT) Name() string { return "mqtt" }

// Publish sends the snapshot and waits for the broker ack or ctx.
func (m *MQTT) Publish(ctx context.Context, snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", m.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", m.topic, ctx.Err())
	}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
