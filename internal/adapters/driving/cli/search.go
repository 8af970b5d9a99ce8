package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lricher7329/refsearch/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchLang     string
	searchMinScore float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents semantically",
	Long: `Embeds the query and returns the most similar indexed chunks,
ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchLang, "lang", "", "restrict to a language (en, zh)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	lang := domain.Language(searchLang)
	if searchLang != "" && !lang.IsValid() {
		return fmt.Errorf("unknown language %q", searchLang)
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		TopK:     searchLimit,
		Language: lang,
		MinScore: searchMinScore,
	}

	results, err := searchService.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1,
			results[i].DocumentID, results[i].ChunkIndex, results[i].Score)
		if results[i].ChunkText != "" {
			cmd.Printf("      %s\n", firstLine(results[i].ChunkText, 120))
		}
		cmd.Println()
	}
	return nil
}

// firstLine returns the first line of text, truncated to max runes.
func firstLine(text string, max int) string {
	for i, r := range text {
		if r == '\n' {
			text = text[:i]
			break
		}
	}
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return text
}
