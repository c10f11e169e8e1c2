package events

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
)

// MQTTPublisher publishes JSON events to an MQTT broker at QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to broker with a client id derived from service.
func NewMQTTPublisher(broker, service string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(service + "-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "mqtt connect")
	}
	return newMQTTPublisher(client), nil
}

func newMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

// Publish sends e to MQTTTopic(e.Name) and waits for the broker acknowledgement
// or ctx cancellation.
func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	token := p.client.Publish(MQTTTopic(e.Name), mqttQoS, false, body)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects after letting in-flight messages drain.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
