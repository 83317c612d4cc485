package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/commerce-ingest/internal/app"
	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/ignite/commerce-ingest/internal/service/pull"
	"github.com/ignite/commerce-ingest/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	sched := worker.NewScheduler(a.DB, a.Redis, cfg.Worker.Tick(), cfg.Worker.LockTTL())

	if cfg.Worker.AmazonEnabled {
		if a.AmazonSync == nil {
			log.Fatalf("WORKER_AMAZON_ENABLED set but Amazon is missing %v", cfg.Amazon.Missing())
		}
		sched.Add(worker.Job{Name: "amazon", HourUTC: cfg.Worker.AmazonHourUTC, Run: func(ctx context.Context) error {
			day, err := a.AmazonSync.Yesterday(ctx)
			if err != nil {
				return err
			}
			logger.Info("amazon daily sync", "date", day.Date, "upserted", day.UpsertedRows)
			return nil
		}})
	}

	if cfg.Worker.OzonEnabled {
		if a.OzonSync == nil {
			log.Fatalf("WORKER_OZON_ENABLED set but Ozon is missing %v", cfg.Ozon.Missing())
		}
		sched.Add(worker.Job{Name: "ozon", HourUTC: cfg.Worker.OzonHourUTC, Run: func(ctx context.Context) error {
			run, err := a.OzonSync.Run(ctx, pull.OzonOptions{})
			if err != nil {
				return err
			}
			logger.Info("ozon daily sync", "days", len(run.Days), "fetched", run.Fetched, "updated", run.Updated())
			return nil
		}})
	}

	if !cfg.Worker.AmazonEnabled && !cfg.Worker.OzonEnabled {
		log.Fatal("No jobs enabled; set WORKER_AMAZON_ENABLED and/or WORKER_OZON_ENABLED")
	}

	if err := sched.Start(cfg.Worker.RunOnStartup); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	sched.Stop()
	logger.Info("worker stopped")
}
