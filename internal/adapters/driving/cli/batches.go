package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Inspect upload batches",
	Long:  `List upload batches, show the documents of one batch, or delete a whole batch.`,
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batches with their document counts",
	Args:  cobra.NoArgs,
	RunE:  runBatchesList,
}

var batchesShowCmd = &cobra.Command{
	Use:   "show [batch-id]",
	Short: "Show the documents of a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesShow,
}

var batchesDeleteCmd = &cobra.Command{
	Use:   "delete [batch-id]",
	Short: "Delete every document of a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesDelete,
}

func init() {
	batchesListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	batchesShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	batchesCmd.AddCommand(batchesListCmd)
	batchesCmd.AddCommand(batchesShowCmd)
	batchesCmd.AddCommand(batchesDeleteCmd)
	rootCmd.AddCommand(batchesCmd)
}

func runBatchesList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	batches, err := documentService.ListBatches(cmd.Context())
	if err != nil {
		return commandError("list batches", err)
	}

	if jsonOutput {
		if batches == nil {
			batches = []domain.BatchInfo{}
		}
		return writeJSON(cmd, batches)
	}

	if len(batches) == 0 {
		cmd.Println("No batches")
		return nil
	}
	cmd.Printf("%-20s  %s\n", "BATCH", "DOCUMENTS")
	for _, b := range batches {
		cmd.Printf("%-20s  %d\n", b.BatchID, b.DocumentCount)
	}
	return nil
}

func runBatchesShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	docs, err := documentService.BatchDocuments(cmd.Context(), args[0])
	if err != nil {
		return commandError("get batch", err)
	}

	if jsonOutput {
		return writeJSON(cmd, struct {
			BatchID string `json:"batch_id"`
			documentListView
		}{args[0], newDocumentListView(docs)})
	}

	if len(docs) == 0 {
		cmd.Printf("Batch %s has no documents\n", args[0])
		return nil
	}
	cmd.Printf("Batch: %s\n\n", args[0])
	printDocumentTable(cmd, docs)
	return nil
}

func runBatchesDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	docs, err := documentService.BatchDocuments(cmd.Context(), args[0])
	if err != nil {
		return commandError("get batch", err)
	}
	if len(docs) == 0 {
		cmd.Printf("Batch %s has no documents\n", args[0])
		return nil
	}

	ids := make([]domain.DocumentID, 0, len(docs))
	for i := range docs {
		ids = append(ids, docs[i].ID)
	}
	res, err := documentService.BatchDelete(cmd.Context(), ids)
	if err != nil {
		return commandError("delete batch", err)
	}
	printDeleteResult(cmd, res)
	return nil
}
