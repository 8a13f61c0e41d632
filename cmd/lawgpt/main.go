// Command lawgpt runs the LawGPT core service: the HTTP + WebSocket API
// in front of the multi-agent legal assistance pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/elastic"
	lghttp "github.com/lawgpt-ru/lawgpt-core/internal/adapter/http"
	lgnats "github.com/lawgpt-ru/lawgpt-core/internal/adapter/nats"
	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/openrouter"
	lgotel "github.com/lawgpt-ru/lawgpt-core/internal/adapter/otel"
	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/postgres"
	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/ristretto"
	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/ws"
	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/logger"
	"github.com/lawgpt-ru/lawgpt-core/internal/middleware"
	"github.com/lawgpt-ru/lawgpt-core/internal/resilience"
	"github.com/lawgpt-ru/lawgpt-core/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"model", cfg.OpenRouter.Model,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := lgotel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	var metrics *lgotel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = lgotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS (voice worker protocol)
	queue, err := lgnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Snippet cache
	snippetCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// Search index
	searcher, err := elastic.New(cfg.Elastic, snippetCache, cfg.Cache.SnippetTTL)
	if err != nil {
		return fmt.Errorf("elasticsearch: %w", err)
	}

	// Completion API, behind a circuit breaker
	completer := openrouter.NewClient(cfg.OpenRouter)
	completer.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Cooldown))

	// --- Services ---
	store := postgres.NewStore(pool)

	webSearch := service.NewWebSearchService(cfg.WebSearch, log)
	registry := service.NewRegistry(
		service.NewLegalNormsAgent(searcher, completer, log),
		service.NewJudicialPracticeAgent(searcher, completer, log),
		service.NewAnalyticsAgent(searcher, completer, webSearch, log),
		service.NewDocumentPrepAgent(searcher, completer, log),
		service.NewDocumentAnalysisAgent(searcher, completer, log),
	)
	coordinator := service.NewCoordinatorService(registry, searcher, completer, &cfg.Coordinator, metrics, log)
	chat := service.NewChatService(store, coordinator, metrics, log)

	voice := service.NewVoiceService(queue, log)
	cancelVoice, err := voice.Start(ctx)
	if err != nil {
		return fmt.Errorf("voice subscriber: %w", err)
	}
	defer cancelVoice()

	// --- HTTP ---
	checks := map[string]lghttp.HealthCheck{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"nats": func(context.Context) error {
			if !queue.IsConnected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		},
		"elasticsearch": searcher.Ping,
		"llm":           completer.Healthy,
	}
	handlers := lghttp.NewHandlers(store, voice, checks, log)
	chatWS := ws.NewHandler(chat, log)

	r := chi.NewRouter()

	r.Use(lghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(lghttp.SecurityHeaders)
	r.Use(lghttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(lgotel.HTTPMiddleware(cfg.Logging.Service))
	}

	// The chat socket stays open for the whole query lifecycle, so it
	// is mounted outside the request timeout applied to REST routes.
	r.Get("/ws/chat", chatWS.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		lghttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
