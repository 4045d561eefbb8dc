package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"

	"github.com/luki/homedash/internal/logging"
)

// Publisher writes events onto a push transport. The stress command uses
// it to feed a running dashboard.
type Publisher interface {
	Publish(ctx context.Context, kind Kind, v any) error
	Close() error
}

// Encode marshals the payload of an event of the given kind.
func Encode(kind Kind, v any) ([]byte, error) {
	switch kind {
	case KindSensorData, KindNewSuggestions:
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return b, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each kind to its configured topic.
type KafkaPublisher struct {
	w      messageWriter
	topics map[Kind]string
}

// NewKafkaPublisher creates a writer for the configured brokers.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(w, cfg), nil
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		w: w,
		topics: map[Kind]string{
			KindSensorData:     cfg.SensorTopic,
			KindNewSuggestions: cfg.SuggestionTopic,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, kind Kind, v any) error {
	topic := p.topics[kind]
	if topic == "" {
		return fmt.Errorf("no topic configured for %s", kind)
	}
	b, err := Encode(kind, v)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: []byte(kind), Value: b}); err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// MQTTPublisher publishes to <TopicPrefix>/<kind>.
type MQTTPublisher struct {
	topics *MQTTSource
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	cfg.ClientID += "-publisher"
	src, err := NewMQTTSource(cfg, logging.Discard())
	if err != nil {
		return nil, err
	}
	if token := src.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTPublisher{topics: src, client: src.client}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, kind Kind, v any) error {
	b, err := Encode(kind, v)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topics.Topic(kind), 0, false, b)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
