// Package cli provides the workerctl operator command-line interface:
// inspecting the dead-letter queue and triggering a manual recovery sweep
// outside of the worker pool's own periodic schedule.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxjiinn/medical-inference-platform/internal/cache"
	"github.com/xxjiinn/medical-inference-platform/internal/config"
	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/xxjiinn/medical-inference-platform/internal/store"
	"github.com/xxjiinn/medical-inference-platform/internal/worker"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	cfg        *config.Config
	pgStore    *store.PostgresStore
	redisCache *cache.RedisCache
	redisQueue *queue.RedisQueue
)

var rootCmd = &cobra.Command{
	Use:     "workerctl",
	Short:   "Operator CLI for the inference worker pool",
	Long:    "workerctl inspects the dead-letter queue, requeues failed jobs, and triggers manual recovery sweeps against the same Postgres and Redis the worker pool uses.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx := context.Background()
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		pgStore = store.NewPostgresStore(pool)

		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}

		redisQueue, err = queue.NewRedisQueue(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis queue: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if redisCache != nil {
			redisCache.Close()
		}
		if redisQueue != nil {
			redisQueue.Close()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func sweeperConfig() worker.Config {
	return worker.Config{MaxRetries: cfg.Worker.MaxRetries, RetryTTL: cfg.Worker.RetryTTL}
}

func init() {
	rootCmd.AddCommand(dlqCmd)
	rootCmd.AddCommand(sweepCmd)
}
