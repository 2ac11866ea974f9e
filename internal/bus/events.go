package bus

import "time"

// InboundMessage is a user message arriving from any channel.
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is a reply or notification headed back to a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	ReplyTo string
}
