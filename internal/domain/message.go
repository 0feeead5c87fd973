package domain

// InboundMessage is a single chat message delivered to the webhook.
// Timestamp is milliseconds since epoch as supplied by the caller.
type InboundMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// ChannelMetadata describes where a conversation takes place.
type ChannelMetadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Conversation is one webhook delivery: the new message plus the
// history the caller already holds.
type Conversation struct {
	SessionID string
	Message   InboundMessage
	History   []InboundMessage
	Metadata  ChannelMetadata
}
