package domain

import "fmt"

type Channel string

const (
	ChannelPush  Channel = "PUSH"
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

func NewChannel(c string) (Channel, error) {
	switch c {
	case string(ChannelPush), string(ChannelEmail), string(ChannelSMS):
		return Channel(c), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidChannel, c)
	}
}
