// ScamSafe - scam honeypot and voice detection server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/scamsafe/internal/agent"
	"github.com/ashureev/scamsafe/internal/api"
	"github.com/ashureev/scamsafe/internal/callback"
	"github.com/ashureev/scamsafe/internal/config"
	"github.com/ashureev/scamsafe/internal/detect"
	"github.com/ashureev/scamsafe/internal/events"
	"github.com/ashureev/scamsafe/internal/honeypot"
	"github.com/ashureev/scamsafe/internal/intel"
	"github.com/ashureev/scamsafe/internal/middleware"
	"github.com/ashureev/scamsafe/internal/reply"
	"github.com/ashureev/scamsafe/internal/session"
	"github.com/ashureev/scamsafe/internal/store"
	"github.com/ashureev/scamsafe/internal/voice"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "service", cfg.ServiceName, "strategy", cfg.Detection.ReplyStrategy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	store.StartRetentionWorker(ctx, repo, cfg.AuditRetention)

	sessions := session.NewStore(session.Options{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	session.StartSweeper(ctx, sessions, cfg.Session.SweepInterval)
	slog.Info("Session sweeper started", "idle_ttl", cfg.Session.IdleTTL, "interval", cfg.Session.SweepInterval)

	var (
		generator agent.Generator
		agentSvc  *agent.Service
	)
	if cfg.Detection.ReplyStrategy == reply.NameAgent {
		client, err := agent.NewOpenAIClient(agent.OpenAIConfig{
			APIKey:      cfg.Agent.APIKey,
			BaseURL:     cfg.Agent.BaseURL,
			Model:       cfg.Agent.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: cfg.Agent.Temperature,
			Timeout:     cfg.Agent.Timeout,
		})
		if err != nil {
			slog.Error("Failed to initialize agent client", "error", err)
			os.Exit(1)
		}
		agentSvc = agent.NewService(client, cfg.Agent.Timeout)
		generator = agentSvc
		slog.Info("Agent reply generation enabled", "base_url", cfg.Agent.BaseURL, "model", cfg.Agent.Model)
	}

	strategy, err := reply.New(cfg.Detection.ReplyStrategy, generator)
	if err != nil {
		slog.Error("Failed to build reply strategy", "error", err)
		os.Exit(1)
	}

	notifier := callback.NewClient(cfg.Callback.URL, cfg.Callback.APIKey, cfg.Callback.Timeout)
	if !notifier.Enabled() {
		slog.Warn("CALLBACK_URL not set, final results will only be logged")
	}

	hub := events.NewHub(64)
	sinks := []events.Publisher{hub}
	if cfg.Events.RedisURL != "" {
		rdb, err := events.NewRedisClient(cfg.Events.RedisURL)
		if err != nil {
			slog.Error("Failed to configure Redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := rdb.Close(); closeErr != nil {
				slog.Error("Failed to close Redis client", "error", closeErr)
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable at startup", "error", err)
		}
		sinks = append(sinks, events.NewRedisPublisher(rdb, cfg.Events.RedisChannel))
		slog.Info("Redis event fan-out enabled", "channel", cfg.Events.RedisChannel)
	}

	svc, err := honeypot.NewService(honeypot.Deps{
		Scorer:    detect.NewScorer(cfg.Detection.EngageThreshold),
		Extractor: intel.NewExtractor(nil),
		Sessions:  sessions,
		Policy: session.Policy{
			TurnThreshold: cfg.Callback.TurnThreshold,
			MinUPIIDs:     cfg.Callback.MinUPIIDs,
			MinLinks:      cfg.Callback.MinLinks,
		},
		Strategy:        strategy,
		Notifier:        notifier,
		Audit:           repo,
		Events:          events.NewBus(sinks...),
		CallbackTimeout: cfg.Callback.Timeout,
	})
	if err != nil {
		slog.Error("Failed to initialize honeypot service", "error", err)
		os.Exit(1)
	}

	detector := voice.NewDetector(voice.Options{MaxBytes: cfg.MaxAudioBytes})

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo, cfg.ServiceName)
	webhookHandler := api.NewWebhookHandler(svc)
	voiceHandler := api.NewVoiceHandler(detector, cfg.MaxAudioBytes)
	sessionHandler := api.NewSessionHandler(svc, repo)
	streamHandler := events.NewStreamHandler(hub, cfg.AllowedOrigins)

	requireKey := middleware.RequireAPIKey(middleware.APIKeyOptions{
		Key:            cfg.APIKey,
		InvalidMessage: "Invalid key",
	})
	// An absent header is a request schema error on this route.
	requireVoiceKey := middleware.RequireAPIKey(middleware.APIKeyOptions{
		Key:           cfg.VoiceAPIKey,
		MissingStatus: http.StatusUnprocessableEntity,
	})
	webhookMW := []func(http.Handler) http.Handler{requireKey}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		webhookMW = append(webhookMW, limiter.Middleware)
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)

	webhookHandler.RegisterRoutes(r, webhookMW...)
	voiceHandler.RegisterRoutes(r, requireVoiceKey)
	sessionHandler.RegisterRoutes(r, requireKey)
	r.With(requireKey).Get("/ws/events", streamHandler.ServeHTTP)

	// The event feed is long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Let in-flight callbacks finish before the audit store closes.
	svc.Wait()
	if agentSvc != nil {
		st := agentSvc.GetStats()
		slog.Info("Agent usage", "calls", st.Calls, "failures", st.Failures)
	}

	slog.Info("Server stopped successfully")
}
