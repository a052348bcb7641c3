package driving

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// UploadFile is one image to upload.
type UploadFile struct {
	Name    string
	Content []byte
}

// UploadResult is the server's answer to an upload.
type UploadResult struct {
	BatchID   string
	Documents []domain.DocumentRecord
}

// BatchItemResult is the outcome for one document of a batch request.
type BatchItemResult struct {
	ID       domain.DocumentID `json:"id"`
	FileName string            `json:"file_name,omitempty"`
	Status   string            `json:"status"`
	Error    string            `json:"error,omitempty"`
}

// Failed reports whether the server rejected this document.
func (r BatchItemResult) Failed() bool {
	return r.Status == "failed"
}

// BatchAnalyzeResult summarises a batch analysis request.
type BatchAnalyzeResult struct {
	Total      int
	Successful int
	Failed     int
	Details    []BatchItemResult
}

// BatchDeleteResult summarises a batch delete request.
type BatchDeleteResult struct {
	Total    int
	Deleted  int
	NotFound int
	Details  []BatchItemResult
}

// VerificationReport lists the analysed documents with server-side counts.
type VerificationReport struct {
	Stats     domain.VerificationStats
	Documents []domain.DocumentRecord
}

// ExportRequest selects what the server exports.
type ExportRequest struct {
	Format domain.ExportFormat
	// DocumentIDs restricts the export; empty exports every analysed document.
	DocumentIDs []domain.DocumentID
	// Results asks for the verification results workbook instead of the
	// extracted data. Only ExportExcel is available for it.
	Results bool
}

// ExportFile is a file produced by the server.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DocumentService exposes the document operations of the verification API.
type DocumentService interface {
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)
	GetDocument(ctx context.Context, id domain.DocumentID) (*domain.DocumentRecord, error)
	Upload(ctx context.Context, files []UploadFile, batchID string, autoAnalyze bool) (*UploadResult, error)
	Analyze(ctx context.Context, id domain.DocumentID) (*domain.DocumentRecord, error)
	BatchAnalyze(ctx context.Context, ids []domain.DocumentID) (*BatchAnalyzeResult, error)
	Delete(ctx context.Context, id domain.DocumentID) error
	BatchDelete(ctx context.Context, ids []domain.DocumentID) (*BatchDeleteResult, error)

	// NewBatchID returns a fresh batch identifier in the server's format, for
	// callers that split one batch over several uploads.
	NewBatchID() string
	ListBatches(ctx context.Context) ([]domain.BatchInfo, error)
	BatchDocuments(ctx context.Context, batchID string) ([]domain.DocumentRecord, error)

	VerificationResults(ctx context.Context) (*VerificationReport, error)
	Export(ctx context.Context, req ExportRequest) (*ExportFile, error)
}
