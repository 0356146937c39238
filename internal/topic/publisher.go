package topic

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"obstarget/internal/model"
)

// Publisher sends target records to the scheduler topic
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect opens a publishing connection to the broker
func Connect(brokerURL, clientID, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish sends one record and waits for the broker to accept it
func (p *Publisher) Publish(record model.TargetTopic) error {
	data, err := EncodeTargetTopic(record)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, subscribeQoS, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish target %d: timed out", record.TargetID)
	}
	return token.Error()
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
