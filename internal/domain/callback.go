package domain

import "fmt"

// CallbackPayload is the final-result report sent to the evaluation backend.
type CallbackPayload struct {
	SessionID              string             `json:"sessionId"`
	ScamDetected           bool               `json:"scamDetected"`
	TotalMessagesExchanged int                `json:"totalMessagesExchanged"`
	ExtractedIntelligence  IntelligenceRecord `json:"extractedIntelligence"`
	AgentNotes             string             `json:"agentNotes"`
}

// NewCallbackPayload builds the report for a session snapshot.
func NewCallbackPayload(s Session) CallbackPayload {
	return CallbackPayload{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: s.Turns,
		ExtractedIntelligence:  s.Intel.Clone(),
		AgentNotes:             AgentNotes(s),
	}
}

// AgentNotes summarises a session for the callback report.
func AgentNotes(s Session) string {
	return fmt.Sprintf("Confidence: %.2f. Engaged for %d turns. Intel: %d UPI IDs, %d bank accounts, %d phishing links extracted.",
		s.Confidence, s.Turns, len(s.Intel.UPIIDs), len(s.Intel.BankAccounts), len(s.Intel.PhishingLinks))
}
