package topic

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"obstarget/internal/model"
)

const (
	subscribeQoS   = 1
	connectTimeout = 10 * time.Second
)

// TargetSink receives targets built from topic records
type TargetSink interface {
	AddFromTopic(record model.TargetTopic) *model.Target
}

// Subscriber turns records published on the scheduler topic into targets
type Subscriber struct {
	client mqtt.Client
	topic  string
	sink   TargetSink
}

// NewSubscriber creates a subscriber; it does not connect until Run
func NewSubscriber(brokerURL, clientID, topic string, sink TargetSink) *Subscriber {
	s := &Subscriber{topic: topic, sink: sink}

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(connectTimeout)

	// (re)subscribe every time the connection comes up
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.topic, subscribeQoS, s.onMessage)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			log.Printf("MQTT subscribe to %s failed: %v", s.topic, token.Error())
			return
		}
		log.Printf("Subscribed to MQTT topic %s", s.topic)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Run connects to the broker and consumes records until ctx is cancelled
func (s *Subscriber) Run(ctx context.Context) error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: timed out after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.Println("Connected to MQTT broker")

	<-ctx.Done()

	s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
	s.client.Disconnect(250)
	log.Println("MQTT subscriber stopped")
	return nil
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := s.HandleMessage(msg.Topic(), msg.Payload()); err != nil {
		log.Printf("Dropping MQTT message on %s: %v", msg.Topic(), err)
	}
}

// HandleMessage decodes one payload and hands the target to the sink
func (s *Subscriber) HandleMessage(topic string, payload []byte) error {
	record, err := DecodeTargetTopic(payload)
	if err != nil {
		return err
	}

	t := s.sink.AddFromTopic(record)
	log.Printf("Ingested target %d filter=%s from %s", t.TargetID, t.Filter, topic)
	return nil
}
