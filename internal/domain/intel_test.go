package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIntelligenceRecordAddIsAppendIfAbsent(t *testing.T) {
	rec := NewIntelligenceRecord()

	if !rec.Add(CategoryUPIIDs, "fraud@paytm") {
		t.Fatal("expected first add to change the record")
	}
	if rec.Add(CategoryUPIIDs, "fraud@paytm") {
		t.Error("expected duplicate add to be ignored")
	}
	rec.Add(CategoryUPIIDs, "backup@oksbi")

	got := rec.Values(CategoryUPIIDs)
	if len(got) != 2 || got[0] != "fraud@paytm" || got[1] != "backup@oksbi" {
		t.Errorf("expected stable insertion order, got %v", got)
	}
	if rec.Add(Category("unknown"), "x") {
		t.Error("expected unknown category to be rejected")
	}
}

func TestIntelligenceRecordMergeAndClone(t *testing.T) {
	a := NewIntelligenceRecord()
	a.Add(CategoryBankAccounts, "1234567890")
	b := NewIntelligenceRecord()
	b.Add(CategoryBankAccounts, "1234567890")
	b.Add(CategoryPhishingLinks, "bit.ly/x")

	if added := a.Merge(b); added != 1 {
		t.Fatalf("expected 1 new value, got %d", added)
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 values, got %d", a.Len())
	}

	c := a.Clone()
	c.Add(CategoryPhoneNumbers, "9876543210")
	if len(a.PhoneNumbers) != 0 {
		t.Error("expected clone to be independent of the original")
	}
}

func TestIntelligenceRecordMarshalsEmptyArrays(t *testing.T) {
	data, err := json.Marshal(NewIntelligenceRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("expected empty arrays, got %s", data)
	}
}

func TestAgentNotes(t *testing.T) {
	s := NewSession("s1", time.Unix(0, 0))
	s.Turns = 18
	s.Confidence = 0.925
	s.Intel.Add(CategoryUPIIDs, "a@paytm")
	s.Intel.Add(CategoryUPIIDs, "b@oksbi")
	s.Intel.Add(CategoryPhishingLinks, "bit.ly/x")

	want := "Confidence: 0.93. Engaged for 18 turns. Intel: 2 UPI IDs, 0 bank accounts, 1 phishing links extracted."
	if got := AgentNotes(*s); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSessionSnapshotIsDeep(t *testing.T) {
	s := NewSession("s1", time.Unix(0, 0))
	s.Fired[TriggerTurnLimit] = time.Unix(1, 0)
	snap := s.Snapshot()

	s.Intel.Add(CategoryUPIIDs, "a@paytm")
	s.Fired[TriggerIntelHarvest] = time.Unix(2, 0)

	if len(snap.Intel.UPIIDs) != 0 || len(snap.Fired) != 1 {
		t.Errorf("expected snapshot to be unaffected, got %+v", snap)
	}
}
