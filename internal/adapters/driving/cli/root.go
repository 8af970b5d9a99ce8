// Package cli implements the refsearch command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lricher7329/refsearch/internal/core/ports/driven"
	"github.com/lricher7329/refsearch/internal/core/ports/driving"
	"github.com/lricher7329/refsearch/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Services are injected by the composition root before Execute runs.
var (
	searchService driving.SearchService
	indexService  driving.IndexService
	configStore   driven.ConfigStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "refsearch",
	Short: "Semantic search for a personal reference library",
	Long: `Refsearch indexes a directory of plain-text and Markdown documents
into a local vector store and answers semantic queries against it.
Embeddings are generated via an OpenAI-compatible API.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging to stderr")
}

// SetServices injects the application services. Must be called before
// Execute.
func SetServices(search driving.SearchService, index driving.IndexService,
	config driven.ConfigStore) {
	searchService = search
	indexService = index
	configStore = config
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context, letting
// long-running commands stop on cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
