package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName = "REMINDER_DELIVERY"

	// duplicateWindow must outlive the stale-claim recovery delay so a
	// re-dispatched reminder is still recognised by its dedup key.
	duplicateWindow = 2 * time.Hour
)

type NATSPublisherConfig struct {
	URL string
}

// newNATSPublisher leaves stream management to NewNATSPublisherWithStream so
// the duplicate window is never replaced by watermill's defaults.
func newNATSPublisher(cfg NATSPublisherConfig) (message.Publisher, error) {
	logger := watermill.NewSlogLogger(slog.Default())

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			NatsOptions: []nc.Option{nc.Timeout(10 * time.Second)},
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
				TrackMsgId:    true,
			},
			Marshaler: &nats.NATSMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	return publisher, nil
}

// NewNATSPublisherWithStream configures the REMINDER_DELIVERY stream with a
// duplicate window before returning the publisher.
func NewNATSPublisherWithStream(ctx context.Context, cfg NATSPublisherConfig) (message.Publisher, error) {
	conn, err := nc.Connect(cfg.URL, nc.Timeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Reminder delivery commands and lifecycle events",
		Subjects:    Topics,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxBytes:    100 * 1024 * 1024, // 100MB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  duplicateWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	slog.Info("NATS JetStream stream configured",
		slog.String("stream", StreamName),
		slog.Any("subjects", Topics),
	)

	return newNATSPublisher(cfg)
}
