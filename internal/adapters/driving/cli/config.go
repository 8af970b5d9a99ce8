package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	settings, err := configStore.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file:  %s\n", configStore.Path())
	cmd.Printf("Library root: %s\n", settings.LibraryRoot)
	cmd.Println("Embedding:")
	cmd.Printf("  API base:   %s\n", settings.Embedding.APIBase)
	cmd.Printf("  API key:    %s\n", maskKey(settings.Embedding.APIKey))
	cmd.Printf("  Model:      %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	cmd.Printf("  Limits:     %d RPM, %d TPM (%s mode)\n",
		settings.Embedding.RequestsPerMinute, settings.Embedding.TokensPerMinute,
		settings.Embedding.RateLimitMode)
	cmd.Println("Chunking:")
	cmd.Printf("  Size:       %d runes, %d overlap\n",
		settings.Chunking.ChunkSize, settings.Chunking.Overlap)
	cmd.Println("Store:")
	cmd.Printf("  Precision:  %s\n", settings.Store.Precision.Description())
	return nil
}

// maskKey hides all but the tail of an API key.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
