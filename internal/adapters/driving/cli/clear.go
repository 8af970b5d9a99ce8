package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all vectors from the index",
	Long: `Removes all vectors and index status. The content cache is preserved
unless --all is given, which performs a full reset.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "also drop the content cache")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()
	if clearAll {
		if err := indexService.ClearAll(ctx); err != nil {
			return fmt.Errorf("clearing index and cache: %w", err)
		}
		cmd.Println("Index and content cache cleared.")
		return nil
	}

	if err := indexService.ClearIndex(ctx); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	cmd.Println("Index cleared; content cache preserved.")
	return nil
}
