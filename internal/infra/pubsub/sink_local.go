package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/tracing"
)

// DeliveryTopics are the subjects channel workers consume.
var DeliveryTopics = []string{
	TopicDeliveryPush,
	TopicDeliveryEmail,
	TopicDeliverySMS,
}

// LogSink stands in for the push, email and SMS workers when the service runs
// without a broker. It logs and acks every delivery command; nothing reaches
// the user.
type LogSink struct {
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewLogSink(subscriber message.Subscriber, logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogSink{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Start subscribes to every delivery topic. Consumption ends when ctx is done
// or the subscriber is closed.
func (s *LogSink) Start(ctx context.Context) error {
	for _, topic := range DeliveryTopics {
		messages, err := s.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		go s.consume(ctx, topic, messages)
	}

	s.logger.WarnContext(ctx, "delivery commands are logged locally and not sent",
		slog.Any("topics", DeliveryTopics),
	)

	return nil
}

func (s *LogSink) consume(ctx context.Context, topic string, messages <-chan *message.Message) {
	for msg := range messages {
		msgCtx := tracing.ExtractFromMap(ctx, msg.Metadata)

		s.logger.InfoContext(msgCtx, "delivery command dropped by local sink",
			slog.String("topic", topic),
			slog.String("dedup_key", msg.UUID),
			slog.String("channel", msg.Metadata.Get("channel")),
			slog.Int("payload_bytes", len(msg.Payload)),
		)

		msg.Ack()
	}
}
