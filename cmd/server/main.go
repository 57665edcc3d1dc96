// Package main is the entrypoint for the inference API server and its
// embedded worker pool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xxjiinn/medical-inference-platform/internal/api"
	"github.com/xxjiinn/medical-inference-platform/internal/api/handler"
	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/config"
	"github.com/xxjiinn/medical-inference-platform/internal/metrics"
	"github.com/xxjiinn/medical-inference-platform/internal/predictor"
	"github.com/xxjiinn/medical-inference-platform/internal/preprocess"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/internal/submission"
	"github.com/xxjiinn/medical-inference-platform/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "worker_count", cfg.Worker.Count, "inference_device", cfg.Predictor.Device)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache and queue — same Redis instance, two roles
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis cache: %w", err)
	}

	redisQueue, err := queue.NewRedisQueue(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis queue: %w", err)
	}
	defer redisQueue.Close()
	if err := redisQueue.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis queue: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store, predictor client, and preprocessor
	pgStore := store.NewPostgresStore(pool)

	httpPredictor := predictor.NewHTTPPredictor(cfg.Predictor.BaseURL, "densenet121-res224-all")
	imagePreprocessor := preprocess.NewImagePreprocessor()
	slog.Info("predictor configured", "name", httpPredictor.Name(), "base_url", cfg.Predictor.BaseURL, "device", cfg.Predictor.Device)

	// 6. Start the worker pool
	workerCfg := worker.Config{
		BRPOPTimeout:     cfg.Worker.BRPOPTimeout,
		BatchWindow:      cfg.Worker.BatchWindow,
		MaxBatchSize:     cfg.Worker.MaxBatchSize,
		InferenceTimeout: cfg.Worker.InferenceTimeout,
		MaxRetries:       cfg.Worker.MaxRetries,
		RetryTTL:         cfg.Worker.RetryTTL,
	}
	supervisor := worker.NewSupervisor(
		worker.SupervisorConfig{
			WorkerCount:     cfg.Worker.Count,
			SupervisorTick:  cfg.Worker.SupervisorTick,
			RecoveryPeriod:  cfg.Worker.RecoveryPeriod,
			StuckInProgress: cfg.Worker.StuckInProgress,
			StuckQueued:     cfg.Worker.StuckQueued,
		},
		workerCfg,
		pgStore, redisCache, redisQueue, httpPredictor, imagePreprocessor,
	)
	go supervisor.Run(ctx)
	slog.Info("worker pool started", "workers", cfg.Worker.Count)

	// 7. Wire metrics — JSON snapshot endpoint and Prometheus gauges both
	// read from the same Aggregator.
	aggregator := metrics.NewAggregator(pgStore, redisQueue)
	promExporter := metrics.NewPrometheusExporter(aggregator, prometheus.DefaultRegisterer)
	go promExporter.Run(ctx, 15*time.Second)

	// 8. Build router with dependencies
	submissionSvc := submission.NewService(pgStore, redisCache, redisQueue, cfg.Worker.ImageTTL, cfg.Worker.ImageTTL)

	deps := api.Dependencies{
		SubmitJobHandler: handler.NewSubmitJobHandler(submissionSvc),
		GetJobHandler:    handler.NewGetJobHandler(submissionSvc),
		GetResultHandler: handler.NewGetResultHandler(submissionSvc),
		MetricsHandler:   handler.NewMetricsHandler(aggregator),
		DLQHandler:       handler.NewDLQHandler(redisQueue, pgStore),
		HealthHandler:    handler.NewHealthHandler(pgStore, redisQueue),
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(deps))
	mux.Handle("/metrics", promhttp.Handler())

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
