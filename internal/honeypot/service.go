// Package honeypot runs one webhook turn: score, extract, reply and,
// when due, report the session to the evaluation backend.
package honeypot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/scamsafe/internal/callback"
	"github.com/ashureev/scamsafe/internal/detect"
	"github.com/ashureev/scamsafe/internal/domain"
	"github.com/ashureev/scamsafe/internal/events"
	"github.com/ashureev/scamsafe/internal/intel"
	"github.com/ashureev/scamsafe/internal/reply"
	"github.com/ashureev/scamsafe/internal/session"
	"github.com/ashureev/scamsafe/internal/store"
)

// AuditWriter is the part of the audit store the service writes to.
type AuditWriter interface {
	AppendTurn(ctx context.Context, turn *domain.Turn) error
	RecordCallback(ctx context.Context, rec *domain.CallbackRecord) error
}

var _ AuditWriter = (store.Repository)(nil)

// auditTimeout bounds the callback audit write and event publish that
// follow a delivery attempt.
const auditTimeout = 5 * time.Second

// Deps wires the service. Audit and Events are optional.
type Deps struct {
	Scorer    *detect.Scorer
	Extractor *intel.Extractor
	Sessions  *session.Store
	Policy    session.Policy
	Strategy  reply.Strategy
	Notifier  callback.Notifier
	Audit     AuditWriter
	Events    events.Publisher

	// CallbackTimeout bounds a detached callback delivery.
	CallbackTimeout time.Duration
}

// Outcome is the result of handling one message.
type Outcome struct {
	Reply     string
	Strategy  string
	Session   domain.Session
	Detection domain.DetectionResult
	Triggered []domain.Trigger
}

// Service handles webhook conversations.
type Service struct {
	deps Deps
	wg   sync.WaitGroup
}

// NewService validates deps and creates a service.
func NewService(deps Deps) (*Service, error) {
	if deps.Sessions == nil || deps.Strategy == nil || deps.Notifier == nil {
		return nil, errors.New("honeypot service requires sessions, strategy and notifier")
	}
	if deps.Scorer == nil {
		deps.Scorer = detect.NewScorer(0)
	}
	if deps.Extractor == nil {
		deps.Extractor = intel.NewExtractor(nil)
	}
	if deps.Policy == (session.Policy{}) {
		deps.Policy = session.DefaultPolicy()
	}
	if deps.CallbackTimeout <= 0 {
		deps.CallbackTimeout = callback.DefaultTimeout
	}
	return &Service{deps: deps}, nil
}

// HandleMessage processes an inbound message and returns the reply.
func (s *Service) HandleMessage(ctx context.Context, conv domain.Conversation) (Outcome, error) {
	text := conv.Message.Text
	detection := s.deps.Scorer.Score(text)
	found := s.deps.Extractor.Scan(text)

	snap, err := s.deps.Sessions.Update(ctx, conv.SessionID, func(sess *domain.Session) error {
		session.Advance(sess, time.Now())
		sess.Intel.Merge(found)
		session.ApplyDetection(sess, detection)
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("update session: %w", err)
	}

	// The reply may call out to a remote model, so it runs without the
	// session lock.
	res, err := s.deps.Strategy.Reply(ctx, reply.Context{
		SessionID: conv.SessionID,
		Turn:      snap.Turns,
		Message:   text,
		History:   conv.History,
		Metadata:  conv.Metadata,
		Detection: detection,
		Intel:     snap.Intel,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("select reply: %w", err)
	}

	var due []domain.Trigger
	snap, err = s.deps.Sessions.Update(ctx, conv.SessionID, func(sess *domain.Session) error {
		if res.Confidence != nil {
			session.ApplyAgentConfidence(sess, *res.Confidence)
		}
		due = s.deps.Policy.Due(sess)
		session.MarkFired(sess, due, time.Now())
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate triggers: %w", err)
	}

	slog.Info("Webhook turn processed",
		"session_id", conv.SessionID,
		"turn", snap.Turns,
		"is_scam", detection.IsScam,
		"confidence", detection.Confidence,
		"scam_detected", snap.ScamDetected,
		"intel", snap.Intel.Len(),
		"strategy", res.Strategy)

	if len(due) > 0 {
		s.dispatch(snap, due)
	}

	// Audit and events outlive a caller that hangs up early.
	bg := context.WithoutCancel(ctx)
	s.audit(bg, conv, snap.Turns, detection, res)
	s.publish(bg, events.New(events.TypeTurnProcessed, conv.SessionID, snap.Turns, map[string]any{
		"isScam":       detection.IsScam,
		"confidence":   detection.Confidence,
		"scamDetected": snap.ScamDetected,
		"state":        snap.State,
		"intel":        snap.Intel,
		"strategy":     res.Strategy,
	}))

	return Outcome{
		Reply:     res.Text,
		Strategy:  res.Strategy,
		Session:   snap,
		Detection: detection,
		Triggered: due,
	}, nil
}

// Session returns a snapshot of a live session.
func (s *Service) Session(id string) (domain.Session, bool) {
	return s.deps.Sessions.Get(id)
}

// Wait blocks until in-flight callback deliveries finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// dispatch sends the final-result report without blocking the webhook.
// Failures are logged and audited only.
func (s *Service) dispatch(snap domain.Session, triggers []domain.Trigger) {
	payload := domain.NewCallbackPayload(snap)
	slog.Info("Triggering final callback",
		"session_id", snap.ID, "turn", snap.Turns, "triggers", triggers)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		rec := &domain.CallbackRecord{
			SessionID: snap.ID,
			Triggers:  triggers,
			SentAt:    time.Now(),
		}
		if data, err := json.Marshal(payload); err == nil {
			rec.Payload = string(data)
		}

		notifyCtx, cancelNotify := context.WithTimeout(context.Background(), s.deps.CallbackTimeout)
		delivery, err := s.deps.Notifier.Notify(notifyCtx, payload)
		cancelNotify()
		rec.StatusCode = delivery.StatusCode
		if err != nil {
			rec.Error = err.Error()
			slog.Error("Final callback failed", "session_id", snap.ID, "error", err)
		} else {
			slog.Info("Final callback delivered", "session_id", snap.ID, "status", delivery.StatusCode)
		}

		// A timed-out delivery must still reach the audit store.
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if s.deps.Audit != nil {
			if err := s.deps.Audit.RecordCallback(ctx, rec); err != nil {
				slog.Warn("Failed to record callback", "session_id", snap.ID, "error", err)
			}
		}
		s.publish(ctx, events.New(events.TypeCallbackDispatched, snap.ID, snap.Turns, map[string]any{
			"triggers":   triggers,
			"statusCode": rec.StatusCode,
			"error":      rec.Error,
		}))
	}()
}

func (s *Service) audit(ctx context.Context, conv domain.Conversation, turn int, detection domain.DetectionResult, res reply.Result) {
	if s.deps.Audit == nil {
		return
	}

	inbound := &domain.Turn{
		SessionID: conv.SessionID,
		Turn:      turn,
		Role:      domain.RoleScammer,
		Content:   conv.Message.Text,
		Metadata: map[string]any{
			"sender":     conv.Message.Sender,
			"timestamp":  conv.Message.Timestamp,
			"channel":    conv.Metadata.Channel,
			"language":   conv.Metadata.Language,
			"locale":     conv.Metadata.Locale,
			"is_scam":    detection.IsScam,
			"confidence": detection.Confidence,
			"matched":    detection.MatchedCategories,
		},
	}
	outbound := &domain.Turn{
		SessionID: conv.SessionID,
		Turn:      turn,
		Role:      domain.RoleHoneypot,
		Content:   res.Text,
		Metadata:  map[string]any{"strategy": res.Strategy},
	}
	for _, t := range []*domain.Turn{inbound, outbound} {
		if err := s.deps.Audit.AppendTurn(ctx, t); err != nil {
			slog.Warn("Failed to append audit turn", "session_id", conv.SessionID, "role", t.Role, "error", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, e); err != nil {
		slog.Debug("Event publish failed", "type", e.Type, "error", err)
	}
}
