package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIKeyHeader carries the shared secret on every protected route.
const APIKeyHeader = "x-api-key"

// APIKeyOptions configures RequireAPIKey.
type APIKeyOptions struct {
	// Key is the expected secret.
	Key string
	// MissingStatus is returned when the header is absent. Zero means 401.
	MissingStatus int
	// MissingMessage is the error body for an absent header.
	MissingMessage string
	// InvalidMessage is the error body for a wrong key.
	InvalidMessage string
}

// RequireAPIKey rejects requests whose x-api-key header does not match.
func RequireAPIKey(opts APIKeyOptions) func(http.Handler) http.Handler {
	if opts.MissingStatus == 0 {
		opts.MissingStatus = http.StatusUnauthorized
	}
	if opts.InvalidMessage == "" {
		opts.InvalidMessage = "Invalid API Key"
	}
	if opts.MissingMessage == "" {
		opts.MissingMessage = opts.InvalidMessage
	}
	expected := []byte(opts.Key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values := r.Header.Values(APIKeyHeader)
			if len(values) == 0 {
				writeError(w, opts.MissingStatus, opts.MissingMessage)
				return
			}
			if subtle.ConstantTimeCompare([]byte(values[0]), expected) != 1 {
				slog.Warn("Invalid API key attempt", "path", r.URL.Path, "ip", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, opts.InvalidMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
