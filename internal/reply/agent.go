package reply

import (
	"context"
	"log/slog"

	"github.com/ashureev/scamsafe/internal/agent"
)

// Agent asks an external generator for the reply once the conversation is
// judged worth engaging. Otherwise, and whenever the generator fails, the
// fallback strategy answers.
type Agent struct {
	generator agent.Generator
	fallback  Strategy
}

// NewAgent creates an agent-backed strategy.
func NewAgent(generator agent.Generator, fallback Strategy) *Agent {
	if fallback == nil {
		fallback = NewScript(nil, "")
	}
	return &Agent{generator: generator, fallback: fallback}
}

// Name implements Strategy.
func (a *Agent) Name() string { return NameAgent }

// Reply implements Strategy.
func (a *Agent) Reply(ctx context.Context, c Context) (Result, error) {
	if !c.Detection.Engage {
		return a.fallback.Reply(ctx, c)
	}

	resp, err := a.generator.GenerateReply(ctx, agent.Request{
		SessionID: c.SessionID,
		Turn:      c.Turn,
		Message:   c.Message,
		History:   c.History,
		Metadata:  c.Metadata,
		Detection: c.Detection,
		Intel:     c.Intel,
	})
	if err != nil || resp.Text == "" {
		slog.Warn("Agent reply unavailable, using fallback",
			"session_id", c.SessionID, "fallback", a.fallback.Name(), "error", err)
		return a.fallback.Reply(ctx, c)
	}
	return Result{Text: resp.Text, Strategy: NameAgent, Confidence: resp.Confidence}, nil
}
