package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/tracing"
)

const (
	TopicDeliveryPush      = "reminder.delivery.push"
	TopicDeliveryEmail     = "reminder.delivery.email"
	TopicDeliverySMS       = "reminder.delivery.sms"
	TopicReminderCancelled = "reminder.cancelled"
	TopicReminderSent      = "reminder.sent"
)

// Topics lists every subject this service publishes to.
var Topics = []string{
	TopicDeliveryPush,
	TopicDeliveryEmail,
	TopicDeliverySMS,
	TopicReminderCancelled,
	TopicReminderSent,
}

// publishJSON encodes payload and publishes it under the given message UUID.
// The trace context of ctx travels in the message metadata.
func publishJSON(ctx context.Context, p message.Publisher, topic, uuid string, payload any, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid, body)
	msg.SetContext(ctx)

	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}

	tracing.InjectToMap(ctx, msg.Metadata)

	if err := p.Publish(topic, msg); err != nil {
		slog.Error("failed to publish message",
			slog.String("topic", topic),
			slog.String("message_id", uuid),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	slog.Debug("published message",
		slog.String("topic", topic),
		slog.String("message_id", uuid),
	)

	return nil
}
