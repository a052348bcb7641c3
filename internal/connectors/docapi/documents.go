package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

const (
	documentsPath           = "/api/documents/"
	uploadPath              = "/api/documents/upload/"
	batchAnalyzePath        = "/api/documents/batch_analyze/"
	batchDeletePath         = "/api/documents/batch_delete/"
	batchesPath             = "/api/documents/batches/"
	batchDocumentsPath      = "/api/documents/batch_documents/"
	verificationResultsPath = "/api/documents/verification_results/"
	exportResultsPath       = "/api/documents/export_excel/"
	exportDataPath          = "/api/documents/export_extracted_data/"

	// maxPages bounds how many result pages ListDocuments follows.
	maxPages = 100
)

// Ensure Documents implements the interfaces.
var (
	_ driven.DocumentSource   = (*Documents)(nil)
	_ driving.DocumentService = (*Documents)(nil)
)

// Documents wraps the document endpoints of the API.
type Documents struct {
	client     *Client
	newBatchID func() string
}

// NewDocuments creates the document endpoints on top of a pipeline.
func NewDocuments(client *Client) *Documents {
	return &Documents{client: client, newBatchID: generateBatchID}
}

// generateBatchID returns "batch_" followed by 12 hex digits.
func generateBatchID() string {
	return "batch_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewBatchID returns a batch identifier in the server's format.
func (d *Documents) NewBatchID() string {
	return d.newBatchID()
}

// documentPage is the paginated list shape.
type documentPage struct {
	Results []domain.DocumentRecord `json:"results"`
	Next    string                  `json:"next"`
}

// ListDocuments returns the caller's whole document collection. Both a bare
// JSON array and paginated {"results": [...]} answers are accepted.
func (d *Documents) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	req := domain.APIRequest{Method: http.MethodGet, Path: documentsPath}
	var all []domain.DocumentRecord

	for page := 0; page < maxPages; page++ {
		resp, err := d.client.Send(ctx, req)
		if err != nil {
			return nil, err
		}

		body := bytes.TrimSpace(resp.Body)
		if len(body) > 0 && body[0] == '[' {
			var docs []domain.DocumentRecord
			if err := json.Unmarshal(body, &docs); err != nil {
				return nil, fmt.Errorf("decode documents: %w", err)
			}
			return append(all, docs...), nil
		}

		var p documentPage
		if err := decode(resp, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		if p.Next == "" {
			return all, nil
		}

		next, err := d.nextRequest(p.Next)
		if err != nil {
			return nil, err
		}
		req = next
	}

	return nil, fmt.Errorf("documents: more than %d pages", maxPages)
}

// nextRequest turns an absolute "next" link into a request relative to the base URL.
func (d *Documents) nextRequest(link string) (domain.APIRequest, error) {
	u, err := url.Parse(link)
	if err != nil {
		return domain.APIRequest{}, fmt.Errorf("documents: invalid next link %q: %w", link, err)
	}
	path := strings.TrimPrefix(u.Path, d.client.baseURL.Path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return domain.APIRequest{Method: http.MethodGet, Path: path, Query: u.Query()}, nil
}

// GetDocument returns one document.
func (d *Documents) GetDocument(ctx context.Context, id domain.DocumentID) (*domain.DocumentRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec domain.DocumentRecord
	if err := d.client.doJSON(ctx, http.MethodGet, documentPath(id, ""), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type uploadResponse struct {
	BatchID   string                  `json:"batch_id"`
	Documents []domain.DocumentRecord `json:"documents"`
}

// Upload sends images in one multipart request. Several files without a batch
// id are grouped under a generated one.
func (d *Documents) Upload(
	ctx context.Context,
	files []driving.UploadFile,
	batchID string,
	autoAnalyze bool,
) (*driving.UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", domain.ErrInvalidInput)
	}
	if batchID == "" && len(files) > 1 {
		batchID = d.newBatchID()
	}

	body, contentType, err := encodeUpload(files, batchID, autoAnalyze)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Send(ctx, domain.APIRequest{
		Method:      http.MethodPost,
		Path:        uploadPath,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if out.BatchID == "" {
		out.BatchID = batchID
	}
	return &driving.UploadResult{BatchID: out.BatchID, Documents: out.Documents}, nil
}

func encodeUpload(files []driving.UploadFile, batchID string, autoAnalyze bool) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(f.Name)))
		header.Set("Content-Type", contentTypeFor(f.Name))
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", f.Name, err)
		}
	}
	if batchID != "" {
		if err := w.WriteField("batch_id", batchID); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("auto_analyze", strconv.FormatBool(autoAnalyze)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Analyze runs the analysis of one document synchronously and returns the result.
func (d *Documents) Analyze(ctx context.Context, id domain.DocumentID) (*domain.DocumentRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec domain.DocumentRecord
	if err := d.client.doJSON(ctx, http.MethodPost, documentPath(id, "analyze/"), struct{}{}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type batchRequest struct {
	DocumentIDs []int64 `json:"document_ids"`
}

type batchItem struct {
	ID       domain.DocumentID `json:"id"`
	FileName string            `json:"file_name"`
	Status   string            `json:"status"`
	Error    string            `json:"error"`
}

type batchAnalyzeResponse struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Details    []batchItem `json:"details"`
}

type batchDeleteResponse struct {
	Total    int         `json:"total"`
	Deleted  int         `json:"deleted"`
	NotFound int         `json:"not_found"`
	Details  []batchItem `json:"details"`
}

// BatchAnalyze asks the server to analyze several documents.
func (d *Documents) BatchAnalyze(ctx context.Context, ids []domain.DocumentID) (*driving.BatchAnalyzeResult, error) {
	req, err := newBatchRequest(ids)
	if err != nil {
		return nil, err
	}

	var out batchAnalyzeResponse
	if err := d.client.doJSON(ctx, http.MethodPost, batchAnalyzePath, req, &out); err != nil {
		return nil, err
	}
	return &driving.BatchAnalyzeResult{
		Total:      out.Total,
		Successful: out.Successful,
		Failed:     out.Failed,
		Details:    itemResults(out.Details),
	}, nil
}

// Delete removes a document.
func (d *Documents) Delete(ctx context.Context, id domain.DocumentID) error {
	if err := checkID(id); err != nil {
		return err
	}
	return d.client.doJSON(ctx, http.MethodDelete, documentPath(id, ""), nil, nil)
}

// BatchDelete removes several documents in one request. Ids the server does
// not know are counted in NotFound.
func (d *Documents) BatchDelete(ctx context.Context, ids []domain.DocumentID) (*driving.BatchDeleteResult, error) {
	req, err := newBatchRequest(ids)
	if err != nil {
		return nil, err
	}

	var out batchDeleteResponse
	if err := d.client.doJSON(ctx, http.MethodPost, batchDeletePath, req, &out); err != nil {
		return nil, err
	}
	return &driving.BatchDeleteResult{
		Total:    out.Total,
		Deleted:  out.Deleted,
		NotFound: out.NotFound,
		Details:  itemResults(out.Details),
	}, nil
}

func newBatchRequest(ids []domain.DocumentID) (batchRequest, error) {
	if len(ids) == 0 {
		return batchRequest{}, fmt.Errorf("%w: no document ids", domain.ErrInvalidInput)
	}
	req := batchRequest{DocumentIDs: make([]int64, 0, len(ids))}
	for _, id := range ids {
		n, err := numericID(id)
		if err != nil {
			return batchRequest{}, err
		}
		req.DocumentIDs = append(req.DocumentIDs, n)
	}
	return req, nil
}

func numericID(id domain.DocumentID) (int64, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: document id %q is not numeric", domain.ErrInvalidInput, id)
	}
	return n, nil
}

func itemResults(items []batchItem) []driving.BatchItemResult {
	if len(items) == 0 {
		return nil
	}
	out := make([]driving.BatchItemResult, len(items))
	for i, it := range items {
		out[i] = driving.BatchItemResult(it)
	}
	return out
}

// ListBatches returns every batch with its document count, newest first.
func (d *Documents) ListBatches(ctx context.Context) ([]domain.BatchInfo, error) {
	var out []domain.BatchInfo
	if err := d.client.doJSON(ctx, http.MethodGet, batchesPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type batchDocumentsResponse struct {
	BatchID   string                  `json:"batch_id"`
	Count     int                     `json:"count"`
	Documents []domain.DocumentRecord `json:"documents"`
}

// BatchDocuments returns the documents of one batch in upload order.
func (d *Documents) BatchDocuments(ctx context.Context, batchID string) ([]domain.DocumentRecord, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, fmt.Errorf("%w: empty batch id", domain.ErrInvalidInput)
	}
	resp, err := d.client.Send(ctx, domain.APIRequest{
		Method: http.MethodGet,
		Path:   batchDocumentsPath,
		Query:  url.Values{"batch_id": {batchID}},
	})
	if err != nil {
		return nil, err
	}

	var out batchDocumentsResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

type verificationResultsResponse struct {
	Stats     domain.VerificationStats `json:"stats"`
	Documents []domain.DocumentRecord  `json:"documents"`
}

// VerificationResults returns the analysed documents and the server's
// accepted and rejected counts.
func (d *Documents) VerificationResults(ctx context.Context) (*driving.VerificationReport, error) {
	var out verificationResultsResponse
	if err := d.client.doJSON(ctx, http.MethodGet, verificationResultsPath, nil, &out); err != nil {
		return nil, err
	}
	return &driving.VerificationReport{Stats: out.Stats, Documents: out.Documents}, nil
}

// Export downloads a file the server renders from the analysed documents.
func (d *Documents) Export(ctx context.Context, req driving.ExportRequest) (*driving.ExportFile, error) {
	apiReq := domain.APIRequest{
		Method: http.MethodGet,
		// The answer is a file, not JSON.
		Header: http.Header{"Accept": {"*/*"}},
	}
	fallback := "extracted_data." + req.Format.Extension()

	if req.Results {
		if req.Format != domain.ExportExcel {
			return nil, fmt.Errorf("%w: verification results export only as xlsx", domain.ErrInvalidInput)
		}
		apiReq.Path = exportResultsPath
		fallback = "verification_results.xlsx"
	} else {
		q := url.Values{"format": {serverFormat(req.Format)}}
		if len(req.DocumentIDs) > 0 {
			ids := make([]string, 0, len(req.DocumentIDs))
			for _, id := range req.DocumentIDs {
				n, err := numericID(id)
				if err != nil {
					return nil, err
				}
				ids = append(ids, strconv.FormatInt(n, 10))
			}
			q.Set("document_ids", strings.Join(ids, ","))
		}
		apiReq.Path = exportDataPath
		apiReq.Query = q
	}

	resp, err := d.client.Send(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fallback
	}
	return &driving.ExportFile{
		FileName:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Content:     resp.Body,
	}, nil
}

func serverFormat(f domain.ExportFormat) string {
	switch f {
	case domain.ExportExcel:
		return "excel"
	case domain.ExportJSON:
		return "json"
	default:
		return "csv"
	}
}

// attachmentName extracts a bare file name from a Content-Disposition header.
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func documentPath(id domain.DocumentID, action string) string {
	return documentsPath + url.PathEscape(id.String()) + "/" + action
}

func checkID(id domain.DocumentID) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	return nil
}
