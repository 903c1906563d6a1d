package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"authbase/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements EventPublisher on a Kafka topic. Messages are keyed by user id
// so all mail for one account lands on one partition.
type kafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a synchronous writer that waits for all in-sync replicas.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) service.EventPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: kafkaWriteTimeout,
		},
		logger: logger,
	}
}

// PublishEmailEvent writes one message and blocks until the brokers acknowledge it.
func (p *kafkaPublisher) PublishEmailEvent(ctx context.Context, event *service.EmailEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	attributes := eventAttributes(event)
	headers := make([]kafka.Header, 0, len(attributes))
	for k, v := range attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.UserID),
		Value:   value,
		Headers: headers,
		Time:    time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to write kafka message")
	}

	p.logger.InfoContext(ctx, "[Kafka] Event published",
		slog.String("event_id", event.EventID),
		slog.String("type", string(event.Type)),
	)

	return nil
}

// Close flushes pending writes and closes broker connections.
func (p *kafkaPublisher) Close() error {
	return errors.WithStack(p.writer.Close())
}
