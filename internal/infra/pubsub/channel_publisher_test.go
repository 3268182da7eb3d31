package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/pubsub"
)

func subscribe(t *testing.T, topic string) (*pubsubFixture, <-chan *message.Message) {
	t.Helper()

	f := &pubsubFixture{local: pubsub.NewLocalPubSub()}
	t.Cleanup(func() { _ = f.local.Close() })

	messages, err := f.local.Subscribe(context.Background(), topic)
	require.NoError(t, err)

	return f, messages
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-messages:
		msg.Ack()

		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")

		return nil
	}
}

func TestChannelPublisherSendPush(t *testing.T) {
	f, messages := subscribe(t, pubsub.TopicDeliveryPush)
	sender := pubsub.NewChannelPublisher(f.local)

	err := sender.SendPush(context.Background(), app.PushMessage{
		UserID:   "user-1",
		Title:    "Dentist",
		Body:     "Leave by 14:40.",
		LinkURL:  "https://app.example.com/reminders/r-1",
		DedupKey: "r-1:2031-04-01T14:30:00Z",
	})
	require.NoError(t, err)

	msg := receive(t, messages)
	assert.Equal(t, "r-1:2031-04-01T14:30:00Z", msg.UUID)
	assert.Equal(t, "push", msg.Metadata.Get("channel"))

	var cmd pubsub.PushCommand
	require.NoError(t, json.Unmarshal(msg.Payload, &cmd))
	assert.Equal(t, pubsub.PushCommand{
		UserID:   "user-1",
		Title:    "Dentist",
		Body:     "Leave by 14:40.",
		LinkURL:  "https://app.example.com/reminders/r-1",
		DedupKey: "r-1:2031-04-01T14:30:00Z",
	}, cmd)
}

func TestChannelPublisherSendEmail(t *testing.T) {
	f, messages := subscribe(t, pubsub.TopicDeliveryEmail)
	sender := pubsub.NewChannelPublisher(f.local)

	err := sender.SendEmail(context.Background(), app.EmailMessage{
		To:       "owner@example.com",
		Subject:  "Dentist",
		HTMLBody: "<p>Dentist</p>",
		TextBody: "Dentist",
		DedupKey: "r-2:2031-04-01T14:30:00Z",
	})
	require.NoError(t, err)

	msg := receive(t, messages)
	assert.Equal(t, "r-2:2031-04-01T14:30:00Z", msg.UUID)

	var cmd pubsub.EmailCommand
	require.NoError(t, json.Unmarshal(msg.Payload, &cmd))
	assert.Equal(t, "owner@example.com", cmd.To)
	assert.Equal(t, "<p>Dentist</p>", cmd.HTMLBody)
	assert.Equal(t, "Dentist", cmd.TextBody)
}

func TestChannelPublisherSendSMS(t *testing.T) {
	f, messages := subscribe(t, pubsub.TopicDeliverySMS)
	sender := pubsub.NewChannelPublisher(f.local)

	err := sender.SendSMS(context.Background(), app.SMSMessage{
		To:       "+15550100",
		Text:     "Dentist at 15:00",
		DedupKey: "r-3:2031-04-01T14:30:00Z",
	})
	require.NoError(t, err)

	msg := receive(t, messages)

	var cmd pubsub.SMSCommand
	require.NoError(t, json.Unmarshal(msg.Payload, &cmd))
	assert.Equal(t, "+15550100", cmd.To)
	assert.Equal(t, "Dentist at 15:00", cmd.Text)
	assert.Equal(t, "r-3:2031-04-01T14:30:00Z", cmd.DedupKey)
}

func TestChannelPublisherCancelledContext(t *testing.T) {
	f := &pubsubFixture{local: pubsub.NewLocalPubSub()}
	t.Cleanup(func() { _ = f.local.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pubsub.NewChannelPublisher(f.local).SendPush(ctx, app.PushMessage{DedupKey: "k"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannelPublisherClosedPublisher(t *testing.T) {
	local := pubsub.NewLocalPubSub()
	require.NoError(t, local.Close())

	err := pubsub.NewChannelPublisher(local).SendSMS(context.Background(), app.SMSMessage{DedupKey: "k"})

	assert.Error(t, err)
}
