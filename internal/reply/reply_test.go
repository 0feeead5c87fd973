package reply

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/scamsafe/internal/agent"
	"github.com/ashureev/scamsafe/internal/domain"
)

func TestRotationIndexesByTurn(t *testing.T) {
	t.Parallel()
	r := NewRotation(nil)
	ctx := context.Background()

	first, _ := r.Reply(ctx, Context{Turn: 1})
	if first.Text != DefaultRotation[1] {
		t.Errorf("expected turn 1 to use index 1, got %q", first.Text)
	}
	wrapped, _ := r.Reply(ctx, Context{Turn: 5})
	if wrapped.Text != DefaultRotation[0] {
		t.Errorf("expected turn 5 to wrap to index 0, got %q", wrapped.Text)
	}
}

func TestScriptRunsOut(t *testing.T) {
	t.Parallel()
	s := NewScript([]string{"one", "two"}, "")
	ctx := context.Background()

	for turn, want := range map[int]string{1: "one", 2: "two", 3: DefaultScriptExhausted, 40: DefaultScriptExhausted} {
		got, err := s.Reply(ctx, Context{Turn: turn})
		if err != nil {
			t.Fatalf("reply: %v", err)
		}
		if got.Text != want {
			t.Errorf("turn %d: expected %q, got %q", turn, want, got.Text)
		}
	}
}

func TestKeywordRouterPriority(t *testing.T) {
	t.Parallel()
	k := NewKeywordRouter(nil, nil)
	ctx := context.Background()

	tests := []struct {
		msg  string
		want string
	}{
		{"Share OTP and account number", DefaultRoutes[0].Reply},
		{"Send the OTP via UPI link", DefaultRoutes[1].Reply},
		{"Pay on UPI", DefaultRoutes[2].Reply},
		{"Open this LINK", DefaultRoutes[3].Reply},
		{"You are BLOCKED", DefaultRoutes[4].Reply},
	}
	for _, tt := range tests {
		got, _ := k.Reply(ctx, Context{Message: tt.msg, Turn: 1})
		if got.Text != tt.want || got.Strategy != NameKeyword {
			t.Errorf("%q: expected %q, got %q (%s)", tt.msg, tt.want, got.Text, got.Strategy)
		}
	}

	fallback, _ := k.Reply(ctx, Context{Message: "hello", Turn: 2})
	if fallback.Text != DefaultRotation[2] || fallback.Strategy != NameRotation {
		t.Errorf("expected rotation fallback, got %+v", fallback)
	}
}

func TestAgentUsesGeneratorWhenEngaged(t *testing.T) {
	t.Parallel()
	conf := 0.93
	stub := &agent.Stub{Reply: "Sir which UPI?", Confidence: &conf}
	a := NewAgent(stub, nil)

	got, err := a.Reply(context.Background(), Context{
		SessionID: "s1",
		Turn:      3,
		Message:   "pay now",
		Detection: domain.DetectionResult{IsScam: true, Engage: true},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got.Text != "Sir which UPI?" || got.Strategy != NameAgent {
		t.Errorf("expected agent reply, got %+v", got)
	}
	if got.Confidence == nil || *got.Confidence != 0.93 {
		t.Errorf("expected confidence to propagate, got %v", got.Confidence)
	}
	if reqs := stub.Requests(); len(reqs) != 1 || reqs[0].Turn != 3 {
		t.Errorf("unexpected generator requests %+v", reqs)
	}
}

func TestAgentFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	idle := &agent.Stub{Reply: "unused"}
	got, _ := NewAgent(idle, nil).Reply(ctx, Context{Turn: 1})
	if got.Strategy != NameScript || len(idle.Requests()) != 0 {
		t.Errorf("expected script fallback without engagement, got %+v", got)
	}

	failing := &agent.Stub{Err: errors.New("timeout")}
	got, _ = NewAgent(failing, nil).Reply(ctx, Context{Turn: 2, Detection: domain.DetectionResult{Engage: true}})
	if got.Text != DefaultScript[1] {
		t.Errorf("expected script fallback on error, got %q", got.Text)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", NameRotation, NameScript, NameKeyword} {
		if _, err := New(name, nil); err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}
	}
	if _, err := New(NameAgent, nil); err == nil {
		t.Error("expected agent strategy without generator to fail")
	}
	s, err := New(NameAgent, &agent.Stub{Reply: "x"})
	if err != nil || s.Name() != NameAgent {
		t.Errorf("expected agent strategy, got %v %v", s, err)
	}
	if _, err := New("llm", nil); err == nil {
		t.Error("expected unknown strategy to fail")
	}
}
