package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"authbase/internal/domain/service"

	"github.com/pkg/errors"
	gcpubsub "gocloud.dev/pubsub"
	"gocloud.dev/pubsub/mempubsub"
)

const memoryAckDeadline = time.Minute

// MemoryPublisher sends events to an in-process topic. A background receiver hands each
// event to the sink, which by default writes it to the log as a development outbox.
type MemoryPublisher struct {
	topic  *gcpubsub.Topic
	sub    *gcpubsub.Subscription
	logger *slog.Logger
	sink   func(ctx context.Context, event *service.EmailEvent)

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewMemoryPublisher creates a publisher whose events are logged at info level.
func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	return NewMemoryPublisherWithSink(logger, func(ctx context.Context, event *service.EmailEvent) {
		logger.InfoContext(ctx, "[MemoryPubSub] Email queued",
			slog.String("event_id", event.EventID),
			slog.String("to", event.To),
			slog.String("subject", event.Subject),
			slog.String("link", event.Link),
		)
	})
}

// NewMemoryPublisherWithSink creates a publisher that delivers each received event to sink.
func NewMemoryPublisherWithSink(logger *slog.Logger, sink func(ctx context.Context, event *service.EmailEvent)) *MemoryPublisher {
	topic := mempubsub.NewTopic()
	ctx, cancel := context.WithCancel(context.Background())

	p := &MemoryPublisher{
		topic:  topic,
		sub:    mempubsub.NewSubscription(topic, memoryAckDeadline),
		logger: logger,
		sink:   sink,
		cancel: cancel,
	}

	p.wg.Add(1)
	go p.receive(ctx)

	return p
}

func (p *MemoryPublisher) receive(ctx context.Context) {
	defer p.wg.Done()

	for {
		msg, err := p.sub.Receive(ctx)
		if err != nil {
			// Receive fails permanently once ctx is cancelled or the subscription shuts down.
			return
		}

		var event service.EmailEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			p.logger.Warn("[MemoryPubSub] Dropping undecodable message", slog.Any("error", err))
		} else {
			p.sink(ctx, &event)
		}
		msg.Ack()
	}
}

// PublishEmailEvent sends the event to the in-process topic.
func (p *MemoryPublisher) PublishEmailEvent(ctx context.Context, event *service.EmailEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(p.topic.Send(ctx, &gcpubsub.Message{
		Body:     body,
		Metadata: eventAttributes(event),
	}))
}

// Close stops the receiver and shuts down the topic and subscription.
func (p *MemoryPublisher) Close() error {
	var err error
	p.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = p.topic.Shutdown(ctx)
		p.cancel()
		p.wg.Wait()
		if subErr := p.sub.Shutdown(ctx); err == nil {
			err = subErr
		}
	})

	return errors.WithStack(err)
}
