package push

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	Brokers         []string
	GroupID         string
	SharedGroup     bool // join GroupID as-is instead of a per-instance group
	SensorTopic     string
	SuggestionTopic string
	PollTimeout     time.Duration
}

type messageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource reads one topic per event kind.
type KafkaSource struct {
	readers map[Kind]messageFetcher
	poll    time.Duration
	log     *slog.Logger
}

// NewKafkaSource creates a reader per configured topic.
func NewKafkaSource(cfg KafkaConfig, log *slog.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	topics := map[Kind]string{
		KindSensorData:     cfg.SensorTopic,
		KindNewSuggestions: cfg.SuggestionTopic,
	}
	s := &KafkaSource{
		readers: make(map[Kind]messageFetcher, len(topics)),
		poll:    cfg.PollTimeout,
		log:     log.With(slog.String("component", "push-kafka")),
	}
	if s.poll <= 0 {
		s.poll = 5 * time.Second
	}
	group := consumerGroup(cfg)
	s.log.Info("push_consumer_group", slog.String("group", group))
	for kind, topic := range topics {
		if topic == "" {
			continue
		}
		s.readers[kind] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     group,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
		})
	}
	if len(s.readers) == 0 {
		return nil, errors.New("no push topics configured")
	}
	return s, nil
}

// consumerGroup picks the group to join. Each dashboard gets its own
// group by default so every instance sees every event.
func consumerGroup(cfg KafkaConfig) string {
	if cfg.SharedGroup {
		return cfg.GroupID
	}
	return cfg.GroupID + "-" + uuid.NewString()
}

// Run consumes every topic concurrently and blocks until ctx ends.
func (s *KafkaSource) Run(ctx context.Context, out chan<- Event) error {
	var wg sync.WaitGroup
	for kind, r := range s.readers {
		wg.Add(1)
		go func(kind Kind, r messageFetcher) {
			defer wg.Done()
			s.consume(ctx, kind, r, out)
		}(kind, r)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *KafkaSource) consume(ctx context.Context, kind Kind, r messageFetcher, out chan<- Event) {
	s.log.Info("push_consumer_started", slog.String("kind", string(kind)))
	defer s.log.Info("push_consumer_stopped", slog.String("kind", string(kind)))

	for {
		if ctx.Err() != nil {
			return
		}
		fetchCtx, cancel := context.WithTimeout(ctx, s.poll)
		msg, err := r.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			s.log.Error("push_fetch_error", slog.String("kind", string(kind)), slog.Any("err", err))
			continue
		}

		ev, decodeErr := Decode(kind, msg.Value)
		if decodeErr != nil {
			s.log.Warn("push_decode_error", slog.Any("err", decodeErr), slog.Int64("offset", msg.Offset))
		} else if !deliver(ctx, out, ev) {
			return
		}
		if err := r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			s.log.Warn("push_commit_error", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		}
	}
}

// Close shuts every reader down.
func (s *KafkaSource) Close() error {
	var errs []error
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
