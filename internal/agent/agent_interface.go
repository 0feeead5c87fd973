package agent

import (
	"context"
)

// Generator produces a persona reply for a scammer message.
// It is implemented by the OpenAI-compatible client and by Stub.
type Generator interface {
	// GenerateReply returns the next reply for the conversation in req.
	GenerateReply(ctx context.Context, req Request) (Response, error)
}

// Ensure the implementations satisfy Generator.
var (
	_ Generator = (*OpenAIClient)(nil)
	_ Generator = (*Stub)(nil)
	_ Generator = (*Service)(nil)
)
