// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/config"
	"github.com/capitalize-ai/briefing-platform/internal/handler"
	"github.com/capitalize-ai/briefing-platform/internal/llm"
	"github.com/capitalize-ai/briefing-platform/internal/middleware"
	natsclient "github.com/capitalize-ai/briefing-platform/internal/nats"
	"github.com/capitalize-ai/briefing-platform/internal/persona"
	"github.com/capitalize-ai/briefing-platform/internal/service"
	"github.com/capitalize-ai/briefing-platform/internal/store/memory"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
	"github.com/capitalize-ai/briefing-platform/pkg/tracing"
)

// stores groups the store implementations selected by STORE_BACKEND.
type stores struct {
	turns     service.ConversationStore
	briefings service.BriefingRepository
	events    service.EventPublisher
	nats      *natsclient.Client
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.Environment == "development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "briefing-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Load personas
	personas, err := persona.Load(cfg.PersonasFile)
	if err != nil {
		log.Fatal("failed to load personas", zap.Error(err))
	}
	log.Info("personas loaded",
		zap.String("file", personas.Path()),
		zap.Strings("personas", personas.Names()),
	)
	if incomplete := personas.Incomplete(); len(incomplete) > 0 {
		log.Warn("personas without script context", zap.Strings("personas", incomplete))
	}

	policy, err := service.ParseFinishedPolicy(cfg.DialogFinishedPolicy)
	if err != nil {
		log.Fatal("invalid dialog finished policy", zap.Error(err))
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	if st.nats != nil {
		defer st.nats.Close()
	}

	// Initialize services
	gateway := llm.NewHTTPGateway(cfg.AIRequestTimeout, log)
	locks := service.NewKeyedLocker()

	briefingSvc := service.NewBriefingService(st.briefings, st.turns, log)
	dialogSvc, err := service.NewDialogService(personas, st.turns, gateway, locks, st.events, service.DialogConfig{
		HistoryLimit:      cfg.DialogHistoryLimit,
		FinishedPolicy:    policy,
		FinishedCacheSize: cfg.FinishedCacheSize,
	}, log)
	if err != nil {
		log.Fatal("failed to create dialog service", zap.Error(err))
	}
	compilerSvc := service.NewCompilerService(personas, st.turns, st.briefings, gateway, locks, st.events, log)

	// Initialize handlers
	checks := map[string]handler.ReadinessCheck{
		"compiler_persona": func(ctx context.Context) error {
			_, err := personas.GetPersona(ctx, cfg.CompilerPersona)
			return err
		},
	}
	if st.nats != nil {
		checks["nats"] = st.nats.Ping
	}
	healthHandler := handler.NewHealthHandler(checks)
	briefingHandler := handler.NewBriefingHandler(briefingSvc, compilerSvc, cfg.CompilerPersona, log)
	dialogHandler := handler.NewDialogHandler(dialogSvc, briefingSvc, log)
	personaHandler := handler.NewPersonaHandler(personas)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/personas/{name}", personaHandler.Get)

		r.Route("/briefings", func(r chi.Router) {
			r.Post("/", briefingHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", briefingHandler.Get)
				r.Get("/turns", briefingHandler.Turns)
				r.Post("/dialog", dialogHandler.Continue)
				r.With(middleware.RequireScope(cfg.CompileScope)).Post("/compile", briefingHandler.Compile)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Warn("using in-memory stores; data is lost on restart")
		return &stores{
			turns:     memory.NewConversationStore(),
			briefings: memory.NewBriefingStore(),
			events:    memory.NewEventLog(1000),
		}, nil
	}

	// Connect to NATS
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	nc, err := natsclient.Connect(connectCtx, natsclient.Config{
		URL:          cfg.NATSURL,
		Name:         "briefing-platform",
		CAFile:       cfg.NATSCAFile,
		CertFile:     cfg.NATSCertFile,
		KeyFile:      cfg.NATSKeyFile,
		Token:        cfg.NATSToken,
		DrainTimeout: 10 * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}

	// Ensure JetStream stream exists
	turns := natsclient.NewConversationStore(nc)
	if err := turns.EnsureStream(connectCtx); err != nil {
		nc.Close()
		return nil, err
	}

	briefings, err := natsclient.NewBriefingStore(connectCtx, nc)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &stores{
		turns:     turns,
		briefings: briefings,
		events:    turns,
		nats:      nc,
	}, nil
}
