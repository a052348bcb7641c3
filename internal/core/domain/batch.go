package domain

import (
	"fmt"
	"strings"
)

// BatchInfo is one upload batch and the number of documents it holds.
type BatchInfo struct {
	BatchID       string `json:"batch_id"`
	DocumentCount int    `json:"document_count"`
}

// VerificationStats counts analysed documents by the server's authenticity flag.
type VerificationStats struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// ExportFormat is a file format the server can export extracted data in.
type ExportFormat string

// Export formats.
const (
	ExportCSV   ExportFormat = "csv"
	ExportJSON  ExportFormat = "json"
	ExportExcel ExportFormat = "xlsx"
)

// ParseExportFormat accepts a format name, case-insensitively. "excel" is an
// alias for xlsx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return ExportCSV, nil
	case "json":
		return ExportJSON, nil
	case "xlsx", "excel":
		return ExportExcel, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (want csv, json or xlsx)", ErrInvalidInput, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f ExportFormat) Extension() string {
	return string(f)
}
