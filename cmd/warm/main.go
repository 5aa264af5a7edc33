package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/school-dashboard/internal/config"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/db"
	"github.com/onnwee/school-dashboard/internal/logger"
	"github.com/onnwee/school-dashboard/internal/school"
	"github.com/onnwee/school-dashboard/internal/secrets"
)

// warm runs every dashboard provider once and reports the results. Useful
// after a deploy or a database restore to verify all aggregates before the
// server takes traffic.
func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "how long to wait for all fetches")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.Get()

	if err := secrets.RequireEnv("DATABASE_URL"); err != nil {
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	queries, err := db.Init(os.Getenv("DATABASE_URL"), cfg.DBStatementTimeout)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer queries.Close()

	manager := dashboard.NewManager(dashboard.Options{
		PoolSize:      cfg.MaxConcurrentFetches,
		DefaultTTL:    cfg.DefaultTTL,
		SweepInterval: -1,
		ShutdownGrace: cfg.ShutdownGrace,
	})
	defer manager.Shutdown()
	school.NewService(queries).RegisterAll(manager)

	manager.Prewarm()

	deadline := time.Now().Add(*timeout)
	failed := 0
	for _, key := range manager.Keys() {
		for {
			entry, ok := manager.Peek(key)
			if ok && entry.State == dashboard.StateReady {
				fmt.Printf("ok    %-28s %v\n", key, entry.Value)
				break
			}
			if ok && entry.State == dashboard.StateError {
				fmt.Printf("error %-28s %s\n", key, entry.ErrorMessage)
				failed++
				break
			}
			if time.Now().After(deadline) {
				fmt.Printf("stuck %-28s no result before timeout\n", key)
				failed++
				break
			}
			time.Sleep(50 * time.Millisecond)
		}
	}

	stats := manager.Stats()
	log.Info("warm run complete",
		"fetches", stats.FetchCount,
		"errors", stats.ErrorCount,
		"avg_fetch_ms", stats.AvgFetchTimeMs,
	)
	if failed > 0 {
		os.Exit(1)
	}
}
