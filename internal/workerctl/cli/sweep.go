package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxjiinn/medical-inference-platform/internal/worker"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one recovery sweep immediately, outside the worker pool's own schedule",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	sweeper := worker.NewSweeper(pgStore, redisCache, redisQueue, sweeperConfig(),
		cfg.Worker.StuckInProgress, cfg.Worker.StuckQueued)

	if err := sweeper.Sweep(context.Background()); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Println("Sweep complete.")
	return nil
}
