package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the MQTT transport. Events arrive on
// <TopicPrefix>/sensor_data and <TopicPrefix>/new_suggestions.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// MQTTSource subscribes to the event topics on a broker. The
// subscription is renewed on every (re)connect since the client runs
// with a clean session.
type MQTTSource struct {
	cfg    MQTTConfig
	client mqtt.Client
	log    *slog.Logger

	mu       sync.Mutex
	handler  mqtt.MessageHandler // nil until Run
	firstSub chan error
}

// subscriber is the slice of mqtt.Client the on-connect hook needs.
type subscriber interface {
	SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token
}

// NewMQTTSource prepares a client; the connection is opened by Run.
func NewMQTTSource(cfg MQTTConfig, log *slog.Logger) (*MQTTSource, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	s := &MQTTSource{
		cfg:      cfg,
		log:      log.With(slog.String("component", "push-mqtt")),
		firstSub: make(chan error, 1),
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) { s.onConnect(c) }).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn("push_connection_lost", slog.String("broker", cfg.Broker), slog.Any("err", err))
		})
	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Topic returns the full topic for kind.
func (s *MQTTSource) Topic(kind Kind) string {
	prefix := strings.Trim(s.cfg.TopicPrefix, "/")
	if prefix == "" {
		return string(kind)
	}
	return prefix + "/" + string(kind)
}

func (s *MQTTSource) filters() map[string]byte {
	return map[string]byte{
		s.Topic(KindSensorData):     0,
		s.Topic(KindNewSuggestions): 0,
	}
}

func (s *MQTTSource) setHandler(h mqtt.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// onConnect runs on every successful connect, including automatic
// reconnects. The first result is handed to Run.
func (s *MQTTSource) onConnect(c subscriber) {
	err := s.subscribe(c)
	select {
	case s.firstSub <- err:
	default:
	}
}

func (s *MQTTSource) subscribe(c subscriber) error {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	filters := s.filters()
	if token := c.SubscribeMultiple(filters, h); token.Wait() && token.Error() != nil {
		s.log.Warn("push_subscribe_failed", slog.String("broker", s.cfg.Broker), slog.Any("err", token.Error()))
		return fmt.Errorf("mqtt subscribe: %w", token.Error())
	}
	s.log.Info("push_subscribed", slog.String("broker", s.cfg.Broker), slog.Int("topics", len(filters)))
	return nil
}

// Run connects, subscribes and blocks until ctx ends.
func (s *MQTTSource) Run(ctx context.Context, out chan<- Event) error {
	s.setHandler(func(_ mqtt.Client, msg mqtt.Message) {
		kind := Kind(msg.Topic()[strings.LastIndex(msg.Topic(), "/")+1:])
		ev, err := Decode(kind, msg.Payload())
		if err != nil {
			s.log.Warn("push_decode_error", slog.String("topic", msg.Topic()), slog.Any("err", err))
			return
		}
		deliver(ctx, out, ev)
	})
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	select {
	case err := <-s.firstSub:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() error {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	return nil
}
