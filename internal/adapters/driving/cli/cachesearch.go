package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheSearchLimit int

var cacheSearchCmd = &cobra.Command{
	Use:   "cache-search [substring]",
	Short: "Search cached document text for an exact substring",
	Long: `Scans the content cache for an exact substring and ranks matching
documents by occurrence count. Works without the embedding provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheSearch,
}

func init() {
	cacheSearchCmd.Flags().IntVarP(&cacheSearchLimit, "limit", "n", 20, "maximum number of results")
	rootCmd.AddCommand(cacheSearchCmd)
}

func runCacheSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.SearchCache(context.Background(), args[0], cacheSearchLimit)
	if err != nil {
		return fmt.Errorf("cache search failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No matches found.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("  [%d] %s (%d matches)\n", i+1, r.DocumentID, r.MatchCount)
		if r.Snippet != "" {
			cmd.Printf("      …%s…\n", r.Snippet)
		}
		cmd.Println()
	}
	return nil
}
