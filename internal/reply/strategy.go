// Package reply chooses the honeypot persona's next message.
package reply

import (
	"context"
	"fmt"

	"github.com/ashureev/scamsafe/internal/agent"
	"github.com/ashureev/scamsafe/internal/domain"
)

// Strategy names accepted by New.
const (
	NameRotation = "rotation"
	NameScript   = "script"
	NameKeyword  = "keyword"
	NameAgent    = "agent"
)

// Context is what a strategy knows about the conversation when replying.
type Context struct {
	SessionID string
	Turn      int
	Message   string
	History   []domain.InboundMessage
	Metadata  domain.ChannelMetadata
	Detection domain.DetectionResult
	Intel     domain.IntelligenceRecord
}

// Result is a chosen reply. Confidence is set only by strategies that
// estimate scam likelihood themselves.
type Result struct {
	Text       string
	Strategy   string
	Confidence *float64
}

// Strategy picks a reply for a turn.
type Strategy interface {
	Name() string
	Reply(ctx context.Context, c Context) (Result, error)
}

var (
	_ Strategy = (*Rotation)(nil)
	_ Strategy = (*Script)(nil)
	_ Strategy = (*KeywordRouter)(nil)
	_ Strategy = (*Agent)(nil)
)

// New builds the named strategy. The agent strategy requires a generator
// and falls back to the scripted persona.
func New(name string, generator agent.Generator) (Strategy, error) {
	switch name {
	case "", NameRotation:
		return NewRotation(nil), nil
	case NameScript:
		return NewScript(nil, ""), nil
	case NameKeyword:
		return NewKeywordRouter(nil, nil), nil
	case NameAgent:
		if generator == nil {
			return nil, fmt.Errorf("reply strategy %q requires an agent generator", name)
		}
		return NewAgent(generator, NewScript(nil, "")), nil
	default:
		return nil, fmt.Errorf("unknown reply strategy %q", name)
	}
}
