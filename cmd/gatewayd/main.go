package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ocx/compliance-gateway/internal/agentstate"
	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/classifier"
	"github.com/ocx/compliance-gateway/internal/clock"
	"github.com/ocx/compliance-gateway/internal/config"
	"github.com/ocx/compliance-gateway/internal/httpapi"
	"github.com/ocx/compliance-gateway/internal/metrics"
)

func main() {
	if os.Getenv("OCX_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file loaded", "error", err)
		}
	}
	cfg := config.Get()

	var cl classifier.Classifier
	switch cfg.Classifier.Kind {
	case "entropy":
		cl = classifier.NewEntropy(cfg.Classifier.EntropyThreshold)
		slog.Info("classifier initialized", "kind", "entropy", "threshold", cfg.Classifier.EntropyThreshold)
	default:
		cl = classifier.NewHeuristic()
		slog.Info("classifier initialized", "kind", "heuristic")
	}

	var sink audit.Sink
	switch cfg.Audit.Backend {
	case "postgres":
		pgSink, err := audit.NewPostgresSink(cfg.Audit.DSN)
		if err != nil {
			slog.Warn("postgres audit sink unavailable, falling back to memory sink", "error", err)
			sink = audit.NewMemorySink()
		} else {
			defer pgSink.Close()
			sink = pgSink
			slog.Info("audit sink initialized", "backend", "postgres")
		}
	default:
		sink = audit.NewMemorySink()
		slog.Info("audit sink initialized", "backend", "memory")
	}

	m := metrics.New()
	clk := clock.Real{}
	gateway := agentstate.NewGateway(cl, sink, m, cfg, clk)

	if cfg.Redis.Enabled {
		shadow, err := agentstate.NewRedisShadow(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis shadow mirror unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer shadow.Close()
			gateway.Shadow = shadow
			slog.Info("redis shadow mirror initialized", "addr", cfg.Redis.Addr)
		}
	}

	server := httpapi.NewServer(gateway)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	gaugeDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gateway.SweepComplianceGauge()
			case <-gaugeDone:
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, shutting down gracefully")
		close(gaugeDone)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("compliance gateway starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("compliance gateway stopped")
}
