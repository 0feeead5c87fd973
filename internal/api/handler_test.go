//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
	"github.com/ashureev/scamsafe/internal/honeypot"
	"github.com/ashureev/scamsafe/internal/middleware"
	"github.com/ashureev/scamsafe/internal/voice"
	"github.com/go-chi/chi/v5"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		code   int
		status string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"degraded", errors.New("disk I/O error"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(fakePinger{err: tt.err}, "scamsafe-honeypot")
			h.now = func() time.Time { return time.UnixMilli(1770005528731) }
			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			var body struct {
				Status    string            `json:"status"`
				Service   string            `json:"service"`
				Timestamp float64           `json:"timestamp"`
				Checks    map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.status || body.Service != "scamsafe-honeypot" {
				t.Errorf("unexpected body %+v", body)
			}
			if body.Timestamp != 1770005528.731 {
				t.Errorf("expected epoch seconds, got %v", body.Timestamp)
			}
			if body.Checks["api"] != "ok" {
				t.Errorf("expected api check ok, got %v", body.Checks)
			}
		})
	}
}

type fakeMessages struct {
	mu    sync.Mutex
	convs []domain.Conversation
	err   error
}

func (f *fakeMessages) HandleMessage(_ context.Context, conv domain.Conversation) (honeypot.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs = append(f.convs, conv)
	if f.err != nil {
		return honeypot.Outcome{}, f.err
	}
	return honeypot.Outcome{Reply: "Aiyyo sir, which account?"}, nil
}

func newWebhookRouter(svc MessageHandler) http.Handler {
	r := chi.NewRouter()
	NewWebhookHandler(svc).RegisterRoutes(r, middleware.RequireAPIKey(middleware.APIKeyOptions{
		Key:            "secret",
		InvalidMessage: "Invalid key",
	}))
	return r
}

func post(t *testing.T, h http.Handler, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.APIKeyHeader, key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const validWebhook = `{
	"sessionId": "wertyu-dfghj-ertyui",
	"message": {"sender": "scammer", "text": "Your bank account will be blocked today.", "timestamp": 1770005528731},
	"conversationHistory": [{"sender": "user", "text": "hello", "timestamp": 1770005528000}],
	"metadata": {"channel": "SMS", "language": "English", "locale": "IN"}
}`

func TestWebhookSuccess(t *testing.T) {
	t.Parallel()
	svc := &fakeMessages{}
	w := post(t, newWebhookRouter(svc), "/webhook", "secret", validWebhook)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body webhookResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || body.Reply != "Aiyyo sir, which account?" {
		t.Errorf("unexpected response %+v", body)
	}

	conv := svc.convs[0]
	if conv.SessionID != "wertyu-dfghj-ertyui" || conv.Message.Timestamp != 1770005528731 {
		t.Errorf("unexpected conversation %+v", conv)
	}
	if len(conv.History) != 1 || conv.Metadata.Channel != "SMS" {
		t.Errorf("expected history and metadata forwarded, got %+v", conv)
	}
}

func TestWebhookAuth(t *testing.T) {
	t.Parallel()
	h := newWebhookRouter(&fakeMessages{})

	for _, key := range []string{"", "wrong"} {
		w := post(t, h, "/webhook", key, validWebhook)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("key %q: expected 401, got %d", key, w.Code)
		}
	}
}

func TestWebhookValidation(t *testing.T) {
	t.Parallel()
	svc := &fakeMessages{}
	h := newWebhookRouter(svc)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed json", `{"sessionId":`, "body: json"},
		{"missing session", `{"message":{"sender":"s","text":"t","timestamp":1}}`, "sessionId: required"},
		{"missing message", `{"sessionId":"x"}`, "message: required"},
		{"missing text", `{"sessionId":"x","message":{"sender":"s","timestamp":1}}`, "message.text: required"},
		{"missing timestamp", `{"sessionId":"x","message":{"sender":"s","text":"t"}}`, "message.timestamp: required"},
		{"bad history entry", `{"sessionId":"x","message":{"sender":"s","text":"t","timestamp":1},"conversationHistory":[{"sender":"s"}]}`, "conversationHistory[0].text: required"},
		{"wrong type", `{"sessionId":"x","message":{"sender":"s","text":"t","timestamp":"soon"}}`, "message.timestamp: type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, "/webhook", "secret", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			var body struct {
				Fields []string `json:"fields"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			found := false
			for _, f := range body.Fields {
				if f == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field %q, got %v", tt.field, body.Fields)
			}
		})
	}
	if len(svc.convs) != 0 {
		t.Errorf("expected no messages processed, got %d", len(svc.convs))
	}
}

func TestWebhookEmptyTextAccepted(t *testing.T) {
	t.Parallel()
	svc := &fakeMessages{}
	w := post(t, newWebhookRouter(svc), "/webhook", "secret",
		`{"sessionId":"x","message":{"sender":"scammer","text":"","timestamp":0}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty text, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWebhookServiceError(t *testing.T) {
	t.Parallel()
	w := post(t, newWebhookRouter(&fakeMessages{err: errors.New("boom")}), "/webhook", "secret", validWebhook)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func newVoiceRouter(maxAudio int) http.Handler {
	d := voice.NewDetector(voice.Options{
		Rand:     rand.New(rand.NewPCG(1, 2)),
		MaxBytes: maxAudio,
	})
	r := chi.NewRouter()
	NewVoiceHandler(d, maxAudio).RegisterRoutes(r, middleware.RequireAPIKey(middleware.APIKeyOptions{
		Key:           "your-secret-123",
		MissingStatus: http.StatusUnprocessableEntity,
	}))
	return r
}

func voiceBody(lang, format, audio string) string {
	b, _ := json.Marshal(map[string]string{"language": lang, "audioFormat": format, "audioBase64": audio})
	return string(b)
}

var mockAudio = base64.StdEncoding.EncodeToString([]byte("fake_audio_content"))

func TestDetectVoiceSuccess(t *testing.T) {
	t.Parallel()
	h := newVoiceRouter(0)

	for _, lang := range []string{"en", "ta", "hi", "te"} {
		w := post(t, h, "/detect-voice", "your-secret-123", voiceBody(lang, "wav", mockAudio))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", lang, w.Code, w.Body.String())
		}
		var body voiceResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "success" || body.Language != lang || body.AudioFormat != "wav" {
			t.Errorf("unexpected response %+v", body)
		}
		if body.Prediction != voice.PredictionAI && body.Prediction != voice.PredictionHuman {
			t.Errorf("unexpected prediction %q", body.Prediction)
		}
		if body.Confidence < 0 || body.Confidence > 1 {
			t.Errorf("confidence out of range: %v", body.Confidence)
		}
		if !strings.HasSuffix(body.ProcessingTime, "s") || body.Metadata.SampleRate != 44100 {
			t.Errorf("unexpected timing/metadata %+v", body)
		}
	}
}

func TestDetectVoiceErrors(t *testing.T) {
	t.Parallel()
	h := newVoiceRouter(32)
	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("a"), 33))

	tests := []struct {
		name    string
		key     string
		body    string
		code    int
		message string
	}{
		{"wrong key", "nope", voiceBody("en", "mp3", mockAudio), http.StatusUnauthorized, "Invalid API Key"},
		{"missing key", "", voiceBody("en", "mp3", mockAudio), http.StatusUnprocessableEntity, ""},
		{"missing audio", "your-secret-123", `{"language":"en","audioFormat":"mp3"}`, http.StatusUnprocessableEntity, ""},
		{"bad format", "your-secret-123", voiceBody("en", "flac", mockAudio), http.StatusUnprocessableEntity, ""},
		{"empty audio", "your-secret-123", voiceBody("en", "mp3", ""), http.StatusBadRequest, "Empty audio data"},
		{"invalid base64", "your-secret-123", voiceBody("en", "mp3", "!!!not-base64!!!"), http.StatusBadRequest, "Invalid Base64 string"},
		{"too large", "your-secret-123", voiceBody("en", "mp3", big), http.StatusBadRequest, "Audio file too large (>10MB)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, "/detect-voice", tt.key, tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if tt.message == "" {
				return
			}
			var body map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tt.message {
				t.Errorf("expected %q, got %v", tt.message, body["error"])
			}
		})
	}
}

type fakeSessions map[string]domain.Session

func (f fakeSessions) Session(id string) (domain.Session, bool) {
	s, ok := f[id]
	return s, ok
}

type fakeAudit struct {
	turns []*domain.Turn
	err   error
}

func (f *fakeAudit) ListTurns(_ context.Context, sessionID string) ([]*domain.Turn, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Turn
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAudit) ListCallbacks(context.Context, string) ([]*domain.CallbackRecord, error) {
	return nil, f.err
}

func TestSessionRoutes(t *testing.T) {
	t.Parallel()
	sess := domain.NewSession("s1", time.Now())
	sess.Turns = 3
	sess.ScamDetected = true
	audit := &fakeAudit{turns: []*domain.Turn{
		{SessionID: "s1", Turn: 1, Role: domain.RoleScammer, Content: "pay now"},
		{SessionID: "s1", Turn: 1, Role: domain.RoleHoneypot, Content: "Which account?"},
	}}

	r := chi.NewRouter()
	NewSessionHandler(fakeSessions{"s1": sess.Snapshot()}, audit).RegisterRoutes(r)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/sessions/s1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap domain.Session
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Turns != 3 || !snap.ScamDetected {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	if w := get("/api/sessions/missing"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = get("/api/sessions/s1/turns")
	var turns struct {
		Turns []domain.Turn `json:"turns"`
	}
	if err := json.NewDecoder(w.Body).Decode(&turns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(turns.Turns) != 2 || turns.Turns[1].Role != domain.RoleHoneypot {
		t.Errorf("unexpected turns %+v", turns.Turns)
	}

	w = get("/api/sessions/s1/callbacks")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"callbacks":[]`) {
		t.Errorf("expected empty callbacks list, got %d %s", w.Code, w.Body.String())
	}

	audit.err = errors.New("database is locked")
	if w := get("/api/sessions/s1/turns"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
