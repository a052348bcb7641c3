package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analysed documents to a file",
	Long: `Downloads the data extracted from analysed documents as csv, json or xlsx.
With --results the server's verification results workbook is exported instead.
The file is written to --output, or under the server's file name in the
current directory. Use --output - to write to stdout.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// Export flags.
var (
	exportFormat  string
	exportOutput  string
	exportIDs     []string
	exportResults bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "File format: csv, json or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: server file name)")
	exportCmd.Flags().StringSliceVar(&exportIDs, "ids", nil, "Only export these document ids")
	exportCmd.Flags().BoolVar(&exportResults, "results", false, "Export the verification results workbook (xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document service")
	}

	format, err := domain.ParseExportFormat(exportFormat)
	if err != nil {
		return err
	}
	if exportResults {
		if cmd.Flags().Changed("format") && format != domain.ExportExcel {
			return fmt.Errorf("%w: --results is only available as xlsx", domain.ErrInvalidInput)
		}
		if len(exportIDs) > 0 {
			return fmt.Errorf("%w: --ids cannot be combined with --results", domain.ErrInvalidInput)
		}
		format = domain.ExportExcel
	}

	req := driving.ExportRequest{Format: format, Results: exportResults}
	for _, id := range exportIDs {
		req.DocumentIDs = append(req.DocumentIDs, domain.DocumentID(id))
	}

	file, err := documentService.Export(cmd.Context(), req)
	if err != nil {
		return commandError("export", err)
	}

	if exportOutput == "-" {
		_, err := cmd.OutOrStdout().Write(file.Content)
		return err
	}

	path := exportOutput
	if path == "" {
		path = file.FileName
	}
	if err := os.WriteFile(path, file.Content, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	cmd.Printf("Exported %d bytes to %s\n", len(file.Content), path)
	return nil
}
