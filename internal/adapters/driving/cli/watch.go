package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// watchRunner blocks and reindexes on library changes until its context
// is cancelled. Injected by the composition root.
var watchRunner func(ctx context.Context) error

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the library and reindex changed documents",
	Long: `Watches the library directory and incrementally reindexes documents
as they are added, modified or removed. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// SetWatchRunner injects the change scheduler's run loop.
func SetWatchRunner(fn func(ctx context.Context) error) {
	watchRunner = fn
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchRunner == nil {
		return errors.New("watcher not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Watching library for changes. Press Ctrl-C to stop.")
	err := watchRunner(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
