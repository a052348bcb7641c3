package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/core/services"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Inspect uploaded documents",
	Long:    `List uploaded documents with their verification verdict, show one in detail, or delete them.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with their verdicts",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document and its analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id...]",
	Short: "Delete documents",
	Long:  `Deletes one document, or several in a single batch request.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentsDelete,
}

// jsonOutput is a flag shared by the list and show commands.
var jsonOutput bool

func init() {
	documentsListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	documentsShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

// documentView is the JSON shape of a classified document.
type documentView struct {
	domain.DocumentRecord
	Verdict    domain.Verdict `json:"verdict"`
	Indicators []string       `json:"surviving_indicators,omitempty"`
}

func newDocumentView(rec domain.DocumentRecord) documentView {
	return documentView{
		DocumentRecord: rec,
		Verdict:        services.Classify(rec),
		Indicators:     services.SurvivingIndicators(rec),
	}
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	docs, err := documentService.ListDocuments(cmd.Context())
	if err != nil {
		return commandError("list documents", err)
	}

	if jsonOutput {
		return writeJSON(cmd, newDocumentListView(docs))
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded")
		return nil
	}

	printDocumentTable(cmd, docs)
	return nil
}

// printDocumentTable prints one line per document followed by the verdict summary.
func printDocumentTable(cmd *cobra.Command, docs []domain.DocumentRecord) {
	cmd.Printf("%-8s  %-10s  %-10s  %s\n", "ID", "STATUS", "VERDICT", "FILE")
	for i := range docs {
		cmd.Printf("%-8s  %-10s  %-10s  %s\n",
			docs[i].ID, docs[i].Status, services.Classify(docs[i]), docs[i].FileName)
	}
	cmd.Println()
	printSummary(cmd, services.Tally(docs))
}

// documentListView is the JSON shape of a classified collection.
type documentListView struct {
	Documents []documentView `json:"documents"`
	Summary   domain.Summary `json:"summary"`
}

func newDocumentListView(docs []domain.DocumentRecord) documentListView {
	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, newDocumentView(docs[i]))
	}
	return documentListView{Documents: views, Summary: services.Tally(docs)}
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	doc, err := documentService.GetDocument(cmd.Context(), domain.DocumentID(args[0]))
	if err != nil {
		return commandError("get document", err)
	}

	if jsonOutput {
		return writeJSON(cmd, newDocumentView(*doc))
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s (%d bytes)\n", doc.FileName, doc.FileSize)
	cmd.Printf("  Status:   %s\n", doc.Status)
	cmd.Printf("  Verdict:  %s\n", services.Classify(*doc))
	if doc.BatchID != "" {
		cmd.Printf("  Batch:    %s\n", doc.BatchID)
	}
	if doc.UploadedAt != nil {
		cmd.Printf("  Uploaded: %s\n", doc.UploadedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if doc.ErrorMessage != "" {
		cmd.Printf("  Error:    %s\n", doc.ErrorMessage)
	}

	md := doc.Metadata
	if md == nil {
		return nil
	}

	cmd.Println("\n  Analysis:")
	if name, ok := services.Normalize(md.Name); ok && name != "" {
		cmd.Printf("    Name:        %s\n", name)
	}
	if md.IsAuthentic != nil {
		cmd.Printf("    Authentic:   %t\n", *md.IsAuthentic)
	}
	if md.ConfidenceScore != nil {
		cmd.Printf("    Confidence:  %.2f\n", *md.ConfidenceScore)
	}
	if fd := md.FraudDetection; fd != nil && fd.RiskLevel != "" {
		cmd.Printf("    Risk:        %s (%.2f)\n", fd.RiskLevel, fd.RiskScore)
	}

	if indicators := services.SurvivingIndicators(*doc); len(indicators) > 0 {
		cmd.Println("\n  Fraud indicators:")
		for _, s := range indicators {
			cmd.Printf("    - %s\n", s)
		}
	}

	var issues []string
	for _, t := range md.QualityIssues {
		if s, ok := services.Normalize(t); ok {
			issues = append(issues, s)
		}
	}
	if len(issues) > 0 {
		cmd.Println("\n  Quality issues:")
		for _, s := range issues {
			cmd.Printf("    - %s\n", s)
		}
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	if len(args) == 1 {
		if err := documentService.Delete(cmd.Context(), domain.DocumentID(args[0])); err != nil {
			return commandError("delete document", err)
		}
		cmd.Printf("Deleted document %s\n", args[0])
		return nil
	}

	ids := make([]domain.DocumentID, 0, len(args))
	for _, a := range args {
		ids = append(ids, domain.DocumentID(a))
	}
	res, err := documentService.BatchDelete(cmd.Context(), ids)
	if err != nil {
		return commandError("delete documents", err)
	}
	printDeleteResult(cmd, res)
	return nil
}

func printDeleteResult(cmd *cobra.Command, res *driving.BatchDeleteResult) {
	cmd.Printf("Deleted %d of %d document(s)", res.Deleted, res.Total)
	if res.NotFound > 0 {
		cmd.Printf(", %d not found", res.NotFound)
	}
	cmd.Println()
	printFailedItems(cmd, res.Details)
}

func printSummary(cmd *cobra.Command, s domain.Summary) {
	cmd.Printf("Total: %d  verified: %d  suspicious: %d  pending: %d\n",
		s.Total, s.Verified, s.Suspicious, s.Pending)
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
