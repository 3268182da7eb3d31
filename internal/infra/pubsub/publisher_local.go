package pubsub

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewLocalPubSub returns an in-process pub/sub used when no broker is
// configured. Messages published without a subscriber are dropped.
func NewLocalPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(slog.Default()),
	)
}
