package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index contents and embedding usage",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	store, usage, err := searchService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	cmd.Println("Index:")
	cmd.Printf("  Documents:  %d\n", store.TotalDocuments)
	cmd.Printf("  Vectors:    %d\n", store.TotalVectors)
	if store.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", store.Dimensions)
	}
	for lang, count := range store.VectorsByLanguage {
		cmd.Printf("  %s vectors: %d\n", lang, count)
	}
	if store.QuantizedFraction > 0 {
		cmd.Printf("  Quantized:  %.0f%%\n", store.QuantizedFraction*100)
	}
	cmd.Printf("  Cache:      %d documents, %d bytes\n", store.CacheItems, store.CacheBytes)

	cmd.Println("Embedding usage:")
	cmd.Printf("  Session:    %d requests, %d tokens, %d chunks\n",
		usage.Session.Requests, usage.Session.Tokens, usage.Session.Chunks)
	cmd.Printf("  Cumulative: %d requests, %d tokens, %d chunks\n",
		usage.Cumulative.Requests, usage.Cumulative.Tokens, usage.Cumulative.Chunks)
	cmd.Printf("  Window:     %d RPM, %d TPM, %d rate-limit hits\n",
		usage.CurrentRPM, usage.CurrentTPM, usage.RateLimitHits)
	cmd.Printf("  Est. cost:  $%.4f\n", usage.EstimatedCostUSD)
	return nil
}
