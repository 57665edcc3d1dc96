package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dlqListLimit int64

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and requeue dead-lettered jobs",
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs currently in the dead-letter queue",
	RunE:  runDLQList,
}

var dlqRequeueCmd = &cobra.Command{
	Use:   "requeue <job-id>",
	Short: "Remove a job from the dead-letter queue and requeue it for inference",
	Args:  cobra.ExactArgs(1),
	RunE:  runDLQRequeue,
}

func init() {
	dlqListCmd.Flags().Int64VarP(&dlqListLimit, "limit", "n", 50, "max entries to list")

	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqRequeueCmd)
}

func runDLQList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ids, err := redisQueue.DLQRange(ctx, 0, dlqListLimit-1)
	if err != nil {
		return fmt.Errorf("list dlq: %w", err)
	}

	if len(ids) == 0 {
		fmt.Println("Dead-letter queue is empty.")
		return nil
	}

	fmt.Printf("Dead-letter queue (%d entries):\n\n", len(ids))
	for _, id := range ids {
		job, err := pgStore.GetJob(ctx, id)
		if err != nil {
			fmt.Printf("- %d (job record unavailable: %v)\n", id, err)
			continue
		}
		fmt.Printf("- %d  status=%s  sha256=%s  updated_at=%s\n",
			job.ID, job.Status, job.InputSHA256, job.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runDLQRequeue(cmd *cobra.Command, args []string) error {
	var jobID int64
	if _, err := fmt.Sscanf(args[0], "%d", &jobID); err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}

	ctx := context.Background()
	if err := pgStore.ResetToQueued(ctx, jobID); err != nil {
		return fmt.Errorf("reset job %d to queued: %w", jobID, err)
	}
	if err := redisQueue.RequeueFromDLQ(ctx, jobID); err != nil {
		return fmt.Errorf("requeue job %d: %w", jobID, err)
	}

	fmt.Printf("Requeued job %d.\n", jobID)
	return nil
}
