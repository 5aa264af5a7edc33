package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/school-dashboard/internal/api"
	"github.com/onnwee/school-dashboard/internal/config"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/db"
	"github.com/onnwee/school-dashboard/internal/errorreporting"
	"github.com/onnwee/school-dashboard/internal/logger"
	"github.com/onnwee/school-dashboard/internal/metrics"
	"github.com/onnwee/school-dashboard/internal/respcache"
	"github.com/onnwee/school-dashboard/internal/school"
	"github.com/onnwee/school-dashboard/internal/secrets"
	"github.com/onnwee/school-dashboard/internal/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production; env comes from the process environment.
		logger.Info("no .env file found, using system environment")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.Get()

	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		log.Warn("sentry init failed, continuing without error reporting", "error", err)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init("school-dashboard")
	if err != nil {
		log.Warn("tracing init failed, continuing without traces", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	if err := secrets.RequireEnv("DATABASE_URL"); err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	dbURL := os.Getenv("DATABASE_URL")
	log.Info("connecting to database", "url", secrets.MaskURL(dbURL))
	if cfg.AdminAPIToken != "" {
		log.Info("admin endpoints enabled", "token", secrets.Mask(cfg.AdminAPIToken))
	}
	queries, err := db.Init(dbURL, cfg.DBStatementTimeout)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer queries.Close()

	manager := dashboard.NewManager(dashboard.Options{
		PoolSize:        cfg.MaxConcurrentFetches,
		DefaultTTL:      cfg.DefaultTTL,
		AutoRefreshTick: cfg.AutoRefreshTick,
		SweepInterval:   cfg.SweepInterval,
		ShutdownGrace:   cfg.ShutdownGrace,
		EventBufferSize: cfg.EventBufferSize,
	})
	school.NewService(queries).RegisterAll(manager)
	manager.Prewarm()

	// Fast-moving counters refresh on their own; everything else rides on TTL.
	manager.SetAutoRefresh(school.KeyBorrowedToday, 60*time.Second)
	manager.SetAutoRefresh(school.KeyActiveUsers, 300*time.Second)

	collector := metrics.NewCollector(manager.GaugeSnapshot, cfg.MetricsInterval)
	go collector.Start(context.Background())
	defer collector.Stop()

	snapshots, err := respcache.NewLRU(cfg.RespCacheMaxMB, cfg.RespCacheMaxEntries, cfg.RespCacheTTL)
	if err != nil {
		log.Error("response cache init failed", "error", err)
		os.Exit(1)
	}
	defer snapshots.Close()

	router := api.NewRouter(api.Deps{
		Manager:   manager,
		Queries:   queries,
		RespCache: snapshots,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	manager.Shutdown()
	log.Info("shutdown complete")
}
