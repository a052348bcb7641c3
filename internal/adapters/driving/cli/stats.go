package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show verification statistics",
	Long: `Shows how many analysed documents the server accepted and rejected, next
to the local verdict counts for the same documents.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	report, err := documentService.VerificationResults(cmd.Context())
	if err != nil {
		return commandError("get verification results", err)
	}
	summary := services.Tally(report.Documents)

	if jsonOutput {
		return writeJSON(cmd, struct {
			Stats   domain.VerificationStats `json:"stats"`
			Summary domain.Summary           `json:"summary"`
		}{report.Stats, summary})
	}

	cmd.Printf("Analysed: %d  accepted: %d  rejected: %d\n",
		report.Stats.Total, report.Stats.Accepted, report.Stats.Rejected)
	printSummary(cmd, summary)
	return nil
}
