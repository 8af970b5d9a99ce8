package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the indexing job state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	snapshot := indexService.Progress()
	cmd.Printf("Status:    %s\n", snapshot.Status)
	if snapshot.JobID != "" {
		cmd.Printf("Job:       %s\n", snapshot.JobID)
	}
	if snapshot.Total > 0 {
		cmd.Printf("Progress:  %d/%d documents\n", snapshot.Processed, snapshot.Total)
	}
	if snapshot.CurrentDocument != "" {
		cmd.Printf("Current:   %s\n", snapshot.CurrentDocument)
	}
	if snapshot.EstimatedRemaining > 0 {
		cmd.Printf("Remaining: ~%s\n", snapshot.EstimatedRemaining.Round(time.Second))
	}
	if snapshot.LastError != "" {
		cmd.Printf("Error:     %s (%s, retryable=%t)\n",
			snapshot.LastError, snapshot.ErrorKind, snapshot.ErrorRetryable)
	}

	if failed := indexService.FailedItems(); len(failed) > 0 {
		cmd.Printf("Failed extractions (%d):\n", len(failed))
		for _, item := range failed {
			cmd.Printf("  %s: %s\n", item.DocumentID, item.Reason)
		}
	}
	return nil
}
