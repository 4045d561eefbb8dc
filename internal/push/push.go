// Package push turns the server's push channel into typed events. Two
// transports are supported: Kafka topics and MQTT topics, each carrying
// JSON payloads named after the event.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luki/homedash/internal/sensor"
)

// Kind names a push event.
type Kind string

const (
	KindSensorData     Kind = "sensor_data"
	KindNewSuggestions Kind = "new_suggestions"
)

// Event is one decoded push message. Exactly one of Reading or Suggestions
// is meaningful, depending on Kind.
type Event struct {
	ID          string
	Kind        Kind
	Reading     sensor.Reading
	Suggestions []sensor.Suggestion
	Received    time.Time
}

// Source emits events until ctx is cancelled or the transport fails.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
	Close() error
}

// Decode parses a payload of the given kind.
func Decode(kind Kind, payload []byte) (Event, error) {
	ev := Event{ID: uuid.NewString(), Kind: kind, Received: time.Now()}
	switch kind {
	case KindSensorData:
		if err := json.Unmarshal(payload, &ev.Reading); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", kind, err)
		}
	case KindNewSuggestions:
		if err := json.Unmarshal(payload, &ev.Suggestions); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		for i := range ev.Suggestions {
			if ev.Suggestions[i].Timestamp.IsZero() {
				ev.Suggestions[i].Timestamp = ev.Received
			}
		}
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
	return ev, nil
}

// deliver hands ev to out unless ctx ends first.
func deliver(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
