package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/ainative/edge-backend/internal/agents"
	"github.com/ainative/edge-backend/internal/config"
	"github.com/ainative/edge-backend/internal/frontendlog"
	"github.com/ainative/edge-backend/internal/server"
	"github.com/ainative/edge-backend/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	stdoutHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})
	logger := slog.New(stdoutHandler)
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName:      cfg.Service.Name,
		ServiceNamespace: cfg.Service.Namespace,
		ServiceVersion:   cfg.Service.Version,
		TracesEndpoint:   cfg.Telemetry.TracesEndpoint,
		MetricsEndpoint:  cfg.Telemetry.MetricsEndpoint,
		LogsEndpoint:     cfg.Telemetry.LogsEndpoint,
		StdoutTraces:     cfg.Telemetry.StdoutTraces,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// Once the OTLP log pipeline is up, application logs go to stdout and the
	// collector alike.
	if cfg.Telemetry.LogsEndpoint != "" {
		logger = slog.New(telemetry.Fanout(
			stdoutHandler,
			otelslog.NewHandler(cfg.Service.Name),
		))
		slog.SetDefault(logger)
	}

	srv := server.New(cfg.Server.Port, cfg.Service.Name, logger)

	srv.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"message": "Welcome to the Edge AI Orchestrator API!"})
	})
	srv.Router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	srv.Router.Route("/api/v1", func(r chi.Router) {
		frontendlog.Register(r, logger)
		agents.Register(r, agents.NewMemoryService(), logger)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
