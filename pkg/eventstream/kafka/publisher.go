// Package kafka publishes generation events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "thoughtstream.generations"

var (
	ErrNoBrokers = errors.New("kafka publisher needs at least one broker")
	ErrClosed    = errors.New("kafka publisher is closed")
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration

	// Writer replaces the kafka-go writer built from Brokers.
	Writer MessageWriter

	Logger *slog.Logger
}

// Publisher writes each event as one JSON message keyed by event id.
type Publisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
	closed  atomic.Bool
}

// NewPublisher builds a publisher. Without an injected writer it creates a
// synchronous kafka-go writer that hashes keys across partitions.
func NewPublisher(cfg Config) (*Publisher, error) {
	p := &Publisher{
		writer:  cfg.Writer,
		topic:   cfg.Topic,
		timeout: cfg.WriteTimeout,
		logger:  cfg.Logger,
	}
	if p.topic == "" {
		p.topic = DefaultTopic
	}
	if p.timeout <= 0 {
		p.timeout = 10 * time.Second
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}

	if p.writer == nil {
		if len(cfg.Brokers) == 0 {
			return nil, ErrNoBrokers
		}
		p.writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  p.topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
		}
	}

	return p, nil
}

// Topic returns the topic events are written to.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishGeneration marshals and writes the event.
func (p *Publisher) PublishGeneration(ctx context.Context, event *eventstream.GenerationEvent) error {
	if event == nil {
		return eventstream.ErrNilGenerationEvent
	}
	if p.closed.Load() {
		return ErrClosed
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding generation event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.EventID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing generation event to %s: %w", p.topic, err)
	}

	p.logger.Debug("generation event published", "event_id", event.EventID, "topic", p.topic)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
