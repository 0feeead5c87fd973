// Package session tracks honeypot conversations and decides when a
// final-result callback is due.
package session

import (
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
)

// Policy holds the callback trigger thresholds.
type Policy struct {
	TurnThreshold int
	MinUPIIDs     int
	MinLinks      int
}

// DefaultPolicy returns the standard thresholds: 18 turns, or two UPI IDs
// together with at least one phishing link.
func DefaultPolicy() Policy {
	return Policy{TurnThreshold: 18, MinUPIIDs: 2, MinLinks: 1}
}

// Advance records an inbound message: NEW sessions become ACTIVE and the
// turn counter grows by one.
func Advance(s *domain.Session, now time.Time) {
	if s.State == domain.StateNew || s.State == "" {
		s.State = domain.StateActive
	}
	s.Turns++
	s.LastSeenAt = now
}

// ApplyDetection folds a message verdict into the session. The scam flag
// is sticky once set.
func ApplyDetection(s *domain.Session, res domain.DetectionResult) {
	if res.IsScam {
		s.ScamDetected = true
		if res.Confidence > s.Confidence {
			s.Confidence = res.Confidence
		}
	}
}

// ApplyAgentConfidence records a confidence reported by the reply agent.
// Anything above 0.85 marks the session as a scam.
func ApplyAgentConfidence(s *domain.Session, confidence float64) {
	s.Confidence = confidence
	if confidence > 0.85 {
		s.ScamDetected = true
	}
}

// Eligible returns the triggers whose conditions currently hold,
// regardless of whether they already fired.
func (p Policy) Eligible(s *domain.Session) []domain.Trigger {
	var out []domain.Trigger
	if s.Turns >= p.TurnThreshold {
		out = append(out, domain.TriggerTurnLimit)
	}
	if len(s.Intel.UPIIDs) >= p.MinUPIIDs && len(s.Intel.PhishingLinks) >= p.MinLinks {
		out = append(out, domain.TriggerIntelHarvest)
	}
	return out
}

// Due returns the eligible triggers that have not fired yet. Nothing is
// due until the session is flagged as a scam.
func (p Policy) Due(s *domain.Session) []domain.Trigger {
	if !s.ScamDetected {
		return nil
	}
	var out []domain.Trigger
	for _, t := range p.Eligible(s) {
		if !s.HasFired(t) {
			out = append(out, t)
		}
	}
	return out
}

// MarkFired records that a callback was dispatched for the triggers.
func MarkFired(s *domain.Session, triggers []domain.Trigger, now time.Time) {
	if len(triggers) == 0 {
		return
	}
	if s.Fired == nil {
		s.Fired = make(map[domain.Trigger]time.Time)
	}
	for _, t := range triggers {
		s.Fired[t] = now
	}
	s.State = domain.StateCallbackSent
}
