// Package agent talks to the external reply-generation model.
package agent

import (
	"errors"

	"github.com/ashureev/scamsafe/internal/domain"
)

// ErrEmptyReply is returned when the model produced no usable text.
var ErrEmptyReply = errors.New("agent returned an empty reply")

// Request is the conversation context handed to a Generator.
type Request struct {
	SessionID string
	Turn      int
	Message   string
	History   []domain.InboundMessage
	Metadata  domain.ChannelMetadata
	Detection domain.DetectionResult
	Intel     domain.IntelligenceRecord
}

// Response is a generated reply. Confidence is set only when the model
// reported one.
type Response struct {
	Text       string
	Confidence *float64
	Raw        string
}
