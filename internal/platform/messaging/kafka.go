package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/shared/events"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is the one broker producer of a process. Messages are
// keyed by partition key and hashed onto partitions, so every event of an
// aggregate lands on the same partition in publish order.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-writer",
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("broker circuit state changed",
				"event", "kafka_circuit_state_changed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &KafkaPublisher{writer: writer, breaker: breaker, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, partitionKey string, envelope events.Envelope) error {
	value, err := events.Encode(envelope)
	if err != nil {
		return err
	}
	message := kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "eventId", Value: []byte(envelope.EventID)},
			{Key: "eventType", Value: []byte(envelope.EventType)},
		},
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("publish %s to %s: broker circuit open: %w", envelope.EventID, topic, err)
		}
		return fmt.Errorf("publish %s to %s: %w", envelope.EventID, topic, err)
	}

	p.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"partition_key", partitionKey,
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriber runs consumer-group readers. Each reader owns a disjoint
// set of partitions and handles its messages one at a time, committing an
// offset only after the handler finishes.
type KafkaSubscriber struct {
	brokers   []string
	workers   int
	retry     RetryPolicy
	logger    *slog.Logger
	newReader func(kafka.ReaderConfig) messageReader
	wg        sync.WaitGroup
}

func NewKafkaSubscriber(brokers []string, workers int, retry RetryPolicy, logger *slog.Logger) *KafkaSubscriber {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSubscriber{
		brokers: brokers,
		workers: workers,
		retry:   retry,
		logger:  logger,
		newReader: func(cfg kafka.ReaderConfig) messageReader {
			return kafka.NewReader(cfg)
		},
	}
}

func (s *KafkaSubscriber) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler events.DeliveryHandler,
) error {
	if consumerGroup == "" {
		return errors.New("kafka subscriber requires a consumer group")
	}
	for i := 0; i < s.workers; i++ {
		reader := s.newReader(kafka.ReaderConfig{
			Brokers:        s.brokers,
			GroupID:        consumerGroup,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			StartOffset:    kafka.FirstOffset,
			CommitInterval: 0,
		})
		s.wg.Add(1)
		go s.consume(ctx, reader, topic, consumerGroup, handler)
	}

	s.logger.Info("consumer subscribed",
		"event", "kafka_subscribed",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", consumerGroup,
		"workers", s.workers,
	)
	return nil
}

// Wait blocks until every reader has finished its in-flight message and
// closed after ctx cancellation.
func (s *KafkaSubscriber) Wait() {
	s.wg.Wait()
}

func (s *KafkaSubscriber) consume(
	ctx context.Context,
	reader messageReader,
	topic string,
	group string,
	handler events.DeliveryHandler,
) {
	defer s.wg.Done()
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Warn("kafka reader close failed",
				"event", "kafka_reader_close_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
		}
	}()

	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("kafka fetch failed",
				"event", "kafka_fetch_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			timer := time.NewTimer(s.retry.backoff(1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}

		delivery := events.Delivery{
			Topic:     message.Topic,
			Partition: message.Partition,
			Offset:    message.Offset,
			Key:       string(message.Key),
			Value:     message.Value,
		}
		if !deliver(ctx, s.retry, s.logger, group, handler, delivery) {
			return
		}
		if err := reader.CommitMessages(context.WithoutCancel(ctx), message); err != nil {
			s.logger.Error("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"partition", message.Partition,
				"offset", message.Offset,
				"error", err.Error(),
			)
		}
	}
}
