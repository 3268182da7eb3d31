package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
)

type PushCommand struct {
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	LinkURL  string `json:"link_url,omitempty"`
	DedupKey string `json:"dedup_key"`
}

type EmailCommand struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
	DedupKey string `json:"dedup_key"`
}

type SMSCommand struct {
	To       string `json:"to"`
	Text     string `json:"text"`
	DedupKey string `json:"dedup_key"`
}

// ChannelPublisher hands delivery commands to the push, email and SMS
// gateways. The dedup key doubles as the message UUID so a redelivered
// reminder is dropped by the broker's duplicate window.
type ChannelPublisher struct {
	publisher message.Publisher
}

var (
	_ app.PushSender  = (*ChannelPublisher)(nil)
	_ app.EmailSender = (*ChannelPublisher)(nil)
	_ app.SMSSender   = (*ChannelPublisher)(nil)
)

func NewChannelPublisher(publisher message.Publisher) *ChannelPublisher {
	return &ChannelPublisher{publisher: publisher}
}

func (p *ChannelPublisher) SendPush(ctx context.Context, msg app.PushMessage) error {
	return publishJSON(ctx, p.publisher, TopicDeliveryPush, msg.DedupKey, PushCommand{
		UserID:   msg.UserID,
		Title:    msg.Title,
		Body:     msg.Body,
		LinkURL:  msg.LinkURL,
		DedupKey: msg.DedupKey,
	}, map[string]string{
		"channel": "push",
		"user_id": msg.UserID,
	})
}

func (p *ChannelPublisher) SendEmail(ctx context.Context, msg app.EmailMessage) error {
	return publishJSON(ctx, p.publisher, TopicDeliveryEmail, msg.DedupKey, EmailCommand{
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
		DedupKey: msg.DedupKey,
	}, map[string]string{
		"channel": "email",
	})
}

func (p *ChannelPublisher) SendSMS(ctx context.Context, msg app.SMSMessage) error {
	return publishJSON(ctx, p.publisher, TopicDeliverySMS, msg.DedupKey, SMSCommand{
		To:       msg.To,
		Text:     msg.Text,
		DedupKey: msg.DedupKey,
	}, map[string]string{
		"channel": "sms",
	})
}
