// Command refsearch is the semantic reference-library search CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lricher7329/refsearch/internal/adapters/driven/config/file"
	"github.com/lricher7329/refsearch/internal/adapters/driven/embedding/openai"
	"github.com/lricher7329/refsearch/internal/adapters/driven/library/filesystem"
	"github.com/lricher7329/refsearch/internal/adapters/driven/storage/sqlite"
	"github.com/lricher7329/refsearch/internal/adapters/driving/cli"
	"github.com/lricher7329/refsearch/internal/chunker"
	"github.com/lricher7329/refsearch/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	settings, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore("", settings.Store)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()

	embedder := openai.NewEmbeddingService(settings.Embedding, store)
	defer embedder.Close()

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.ChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithLanguageHint(settings.Chunking.LanguageHint),
	)

	libraryRoot := settings.LibraryRoot
	if libraryRoot == "" {
		libraryRoot, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving library root: %w", err)
		}
	}
	library, err := filesystem.NewLibrary(libraryRoot)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}

	indexer := services.NewIndexer(library, store, embedder, splitter)
	search := services.NewSearch(store, embedder)

	cli.SetServices(search, indexer, configStore)
	cli.SetWatchRunner(func(ctx context.Context) error {
		watcher := filesystem.NewWatcher(library, 0)
		defer watcher.Close()
		return services.NewScheduler(watcher, indexer).Run(ctx)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.ExecuteContext(ctx)
}
