package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/core/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [doc-id...]",
	Short: "Start analysis of uploaded documents",
	Long: `Requests analysis of one or more documents. A single document is analysed
directly; several are sent as one batch request.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var analyzeWatch bool

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "Follow the analysis until it settles")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	ids := make([]domain.DocumentID, 0, len(args))
	for _, a := range args {
		ids = append(ids, domain.DocumentID(a))
	}

	if len(ids) == 1 {
		doc, err := documentService.Analyze(cmd.Context(), ids[0])
		if err != nil {
			return commandError("analyze document", err)
		}
		cmd.Printf("Document %s: %s  %s\n", doc.ID, doc.Status, services.Classify(*doc))
	} else {
		res, err := documentService.BatchAnalyze(cmd.Context(), ids)
		if err != nil {
			return commandError("analyze documents", err)
		}
		cmd.Printf("Analysis requested for %d document(s): %d accepted, %d failed\n",
			res.Total, res.Successful, res.Failed)
		printFailedItems(cmd, res.Details)
	}

	if !analyzeWatch {
		return nil
	}
	cmd.Println()
	return watchDocuments(cmd, ids)
}

// printFailedItems lists the documents a batch request could not process.
func printFailedItems(cmd *cobra.Command, items []driving.BatchItemResult) {
	for _, it := range items {
		if !it.Failed() {
			continue
		}
		reason := it.Error
		if reason == "" {
			reason = "failed"
		}
		cmd.Printf("  %-8s  %s: %s\n", it.ID, it.FileName, reason)
	}
}
