package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Remove one document from the index",
	Long: `Removes a document's vectors and index status. Its cached full text
is kept, so cache-search keeps working and a later reindex is cheap.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	documentID := args[0]
	if err := indexService.DeleteDocumentIndex(context.Background(), documentID); err != nil {
		return fmt.Errorf("deleting %s: %w", documentID, err)
	}
	cmd.Printf("Removed %s from the index.\n", documentID)
	return nil
}
