// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	ServiceName    string
	LogLevel       slog.Level
	APIKey         string
	VoiceAPIKey    string
	DBPath         string
	AllowedOrigins []string
	MaxAudioBytes  int
	AuditRetention time.Duration

	Detection DetectionConfig
	Session   SessionConfig
	Callback  CallbackConfig
	Agent     AgentConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
}

// DetectionConfig controls scoring and reply selection.
type DetectionConfig struct {
	ReplyStrategy   string
	EngageThreshold float64
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// CallbackConfig controls the final-result report.
type CallbackConfig struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	TurnThreshold int
	MinUPIIDs     int
	MinLinks      int
}

// AgentConfig configures the OpenAI-compatible reply model.
type AgentConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// EventsConfig controls optional Redis fan-out of live events.
type EventsConfig struct {
	RedisURL     string
	RedisChannel string
}

// RateLimitConfig bounds webhook requests per client IP.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiKey := getEnv("API_KEY", "")

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		ServiceName:    getEnv("SERVICE_NAME", "scamsafe-honeypot"),
		LogLevel:       getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		APIKey:         apiKey,
		VoiceAPIKey:    getEnv("VOICE_API_KEY", apiKey),
		DBPath:         getEnv("DB_PATH", "./data/scamsafe.db"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		MaxAudioBytes:  getEnvInt("MAX_AUDIO_BYTES", 10*1024*1024),
		AuditRetention: getEnvDuration("AUDIT_RETENTION", 7*24*time.Hour),
		Detection: DetectionConfig{
			ReplyStrategy:   getEnv("REPLY_STRATEGY", "rotation"),
			EngageThreshold: getEnvFloat("ENGAGE_THRESHOLD", 0.85),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 60*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			MaxSessions:   getEnvInt("SESSION_MAX", 10000),
		},
		Callback: CallbackConfig{
			URL:           getEnv("CALLBACK_URL", ""),
			APIKey:        getEnv("CALLBACK_API_KEY", ""),
			Timeout:       getEnvDuration("CALLBACK_TIMEOUT", 5*time.Second),
			TurnThreshold: getEnvInt("CALLBACK_TURN_THRESHOLD", 18),
			MinUPIIDs:     getEnvInt("CALLBACK_MIN_UPI", 2),
			MinLinks:      getEnvInt("CALLBACK_MIN_LINKS", 1),
		},
		Agent: AgentConfig{
			APIKey:      getEnv("AGENT_API_KEY", ""),
			BaseURL:     getEnv("AGENT_BASE_URL", ""),
			Model:       getEnv("AGENT_MODEL", ""),
			MaxTokens:   getEnvInt("AGENT_MAX_TOKENS", 256),
			Temperature: getEnvFloat("AGENT_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("AGENT_TIMEOUT", 20*time.Second),
		},
		Events: EventsConfig{
			RedisURL:     getEnv("REDIS_URL", ""),
			RedisChannel: getEnv("REDIS_CHANNEL", "scamsafe:events"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be > 0")
	}
	switch c.Detection.ReplyStrategy {
	case "rotation", "script", "keyword":
	case "agent":
		if c.Agent.APIKey == "" {
			return fmt.Errorf("AGENT_API_KEY is required when REPLY_STRATEGY=agent")
		}
	default:
		return fmt.Errorf("unknown REPLY_STRATEGY %q", c.Detection.ReplyStrategy)
	}
	if c.Detection.EngageThreshold < 0 || c.Detection.EngageThreshold > 1 {
		return fmt.Errorf("ENGAGE_THRESHOLD must be within [0, 1]")
	}
	if c.Session.IdleTTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL and SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.Callback.TurnThreshold <= 0 {
		return fmt.Errorf("CALLBACK_TURN_THRESHOLD must be > 0")
	}
	if c.Callback.MinUPIIDs < 1 || c.Callback.MinLinks < 1 {
		return fmt.Errorf("CALLBACK_MIN_UPI and CALLBACK_MIN_LINKS must be >= 1")
	}
	if c.Callback.Timeout <= 0 {
		return fmt.Errorf("CALLBACK_TIMEOUT must be > 0")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("90s") or whole seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
