package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

var (
	indexRebuild bool
	indexDocs    []string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the search index",
	Long: `Indexes library documents into the vector store. Unchanged documents
are skipped; pass --rebuild to re-embed everything. Interrupt with
Ctrl-C to abort cooperatively: the in-flight document finishes and the
index stays consistent.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false,
		"re-extract and re-embed every document")
	indexCmd.Flags().StringSliceVar(&indexDocs, "docs", nil,
		"restrict indexing to specific document IDs")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	// The build deliberately runs on a background context: Ctrl-C
	// requests a cooperative abort instead of cancelling mid-write.
	ctx := context.Background()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			cmd.Println("\nAborting after the current document...")
			indexService.Abort()
		}
	}()

	snapshots, cancel := indexService.Subscribe()
	defer cancel()
	done := make(chan struct{})
	go renderProgress(cmd, snapshots, done)

	result, err := indexService.BuildIndex(ctx, domain.BuildOptions{
		DocumentIDs: indexDocs,
		Rebuild:     indexRebuild,
	})
	cancel()
	<-done

	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Index %s: %d processed, %d skipped, %d total\n",
		result.Status, result.Processed, result.Skipped, result.Total)

	if failed := indexService.FailedItems(); len(failed) > 0 {
		cmd.Printf("%d documents failed extraction:\n", len(failed))
		for _, item := range failed {
			cmd.Printf("  %s: %s\n", item.DocumentID, item.Reason)
		}
	}
	return nil
}

// renderProgress drives a progress bar from job snapshots until the
// channel closes.
func renderProgress(cmd *cobra.Command, snapshots <-chan domain.JobSnapshot, done chan<- struct{}) {
	defer close(done)

	var bar *progressbar.ProgressBar
	for snapshot := range snapshots {
		if !snapshot.Status.Active() {
			continue
		}
		if bar == nil && snapshot.Total > 0 {
			bar = progressbar.NewOptions(snapshot.Total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		if bar != nil {
			_ = bar.Set(snapshot.Processed)
			if snapshot.CurrentDocument != "" {
				bar.Describe("indexing " + snapshot.CurrentDocument)
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
}
