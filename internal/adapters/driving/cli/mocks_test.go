package cli

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/custodia-labs/docverify/internal/adapters/driving/inbox"
	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	info      *domain.SessionInfo
	loginErr  error
	logoutErr error

	username  string
	password  string
	loggedIn  bool
	loggedOut bool
}

func (m *mockSessionService) Login(_ context.Context, username, password string) error {
	m.username = username
	m.password = password
	if m.loginErr != nil {
		return m.loginErr
	}
	m.loggedIn = true
	return nil
}

func (m *mockSessionService) Logout(_ context.Context) error {
	m.loggedOut = true
	return m.logoutErr
}

func (m *mockSessionService) Status(_ context.Context) (*domain.SessionInfo, error) {
	if m.info == nil {
		return &domain.SessionInfo{}, nil
	}
	return m.info, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	mu sync.Mutex

	docs []domain.DocumentRecord
	err  error

	uploads      [][]driving.UploadFile
	batchIDs     []string
	autoAnalyze  []bool
	analyzed     []domain.DocumentID
	batchAnalyze [][]domain.DocumentID
	deleted      []domain.DocumentID
	batchDeleted [][]domain.DocumentID
	nextID       int
	nextBatch    int

	batches []domain.BatchInfo
	report  *driving.VerificationReport
	exports []driving.ExportRequest
	export  *driving.ExportFile
}

func (m *mockDocumentService) ListDocuments(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) GetDocument(_ context.Context, id domain.DocumentID) (*domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Upload(
	_ context.Context,
	files []driving.UploadFile,
	batchID string,
	autoAnalyze bool,
) (*driving.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.uploads = append(m.uploads, files)
	m.batchIDs = append(m.batchIDs, batchID)
	m.autoAnalyze = append(m.autoAnalyze, autoAnalyze)

	res := &driving.UploadResult{BatchID: batchID}
	for _, f := range files {
		m.nextID++
		res.Documents = append(res.Documents, domain.DocumentRecord{
			ID:       domain.DocumentID(strconv.Itoa(m.nextID)),
			FileName: f.Name,
			Status:   domain.StatusProcessing,
		})
	}
	return res, nil
}

func (m *mockDocumentService) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func (m *mockDocumentService) Analyze(_ context.Context, id domain.DocumentID) (*domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.analyzed = append(m.analyzed, id)
	return &domain.DocumentRecord{ID: id, Status: domain.StatusProcessing}, nil
}

func (m *mockDocumentService) BatchAnalyze(_ context.Context, ids []domain.DocumentID) (*driving.BatchAnalyzeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.batchAnalyze = append(m.batchAnalyze, ids)
	res := &driving.BatchAnalyzeResult{Total: len(ids), Successful: len(ids) - 1, Failed: 1}
	for i, id := range ids {
		item := driving.BatchItemResult{ID: id, FileName: "doc-" + id.String() + ".jpg", Status: "success"}
		if i == len(ids)-1 {
			item.Status, item.Error = "failed", "image too blurry"
		}
		res.Details = append(res.Details, item)
	}
	return res, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id domain.DocumentID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) BatchDelete(_ context.Context, ids []domain.DocumentID) (*driving.BatchDeleteResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.batchDeleted = append(m.batchDeleted, ids)
	res := &driving.BatchDeleteResult{Total: len(ids)}
	for _, id := range ids {
		res.Deleted++
		res.Details = append(res.Details, driving.BatchItemResult{ID: id, Status: "deleted"})
	}
	return res, nil
}

func (m *mockDocumentService) NewBatchID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBatch++
	return fmt.Sprintf("batch_%012x", m.nextBatch)
}

func (m *mockDocumentService) ListBatches(_ context.Context) ([]domain.BatchInfo, error) {
	return m.batches, m.err
}

func (m *mockDocumentService) BatchDocuments(_ context.Context, batchID string) ([]domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var docs []domain.DocumentRecord
	for _, d := range m.docs {
		if d.BatchID == batchID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *mockDocumentService) VerificationResults(_ context.Context) (*driving.VerificationReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &driving.VerificationReport{}, nil
	}
	return m.report, nil
}

func (m *mockDocumentService) Export(_ context.Context, req driving.ExportRequest) (*driving.ExportFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.exports = append(m.exports, req)
	return m.export, nil
}

// mockHandle implements driving.PollHandle for testing.
type mockHandle struct {
	done   chan struct{}
	cancel context.CancelFunc
}

func (h *mockHandle) Done() <-chan struct{} {
	return h.done
}

// mockReconciler replays scripted updates, then either finishes or blocks
// until stopped.
type mockReconciler struct {
	mu sync.Mutex

	updates []domain.PollUpdate
	block   bool

	started [][]domain.DocumentID
	stopped int
}

func (m *mockReconciler) Start(
	ctx context.Context,
	ids []domain.DocumentID,
	onUpdate func(domain.PollUpdate),
) driving.PollHandle {
	m.mu.Lock()
	m.started = append(m.started, ids)
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	h := &mockHandle{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(h.done)
		for _, u := range m.updates {
			if ctx.Err() != nil {
				return
			}
			onUpdate(u)
		}
		if m.block {
			<-ctx.Done()
		}
	}()
	return h
}

func (m *mockReconciler) Stop(ph driving.PollHandle) {
	m.mu.Lock()
	m.stopped++
	m.mu.Unlock()
	ph.(*mockHandle).cancel()
}

func (m *mockReconciler) startedIDs() [][]domain.DocumentID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	values map[string]string
	setErr error
}

func (m *mockSettingsService) Get() (*domain.ClientSettings, error) {
	s := domain.DefaultClientSettings()
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrInvalidInput
	}
	return v, nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"api.base_url", "poll.interval"}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	session    *mockSessionService
	documents  *mockDocumentService
	reconciler *mockReconciler
	settings   *mockSettingsService
}

func setupTestServices() (*testServices, func()) {
	oldSession, oldDocs, oldRec, oldSettings := sessionService, documentService, reconciler, settingsService

	ts := &testServices{
		session:    &mockSessionService{},
		documents:  &mockDocumentService{},
		reconciler: &mockReconciler{},
		settings: &mockSettingsService{values: map[string]string{
			"api.base_url":  "http://localhost:8000",
			"poll.interval": "2s",
		}},
	}
	SetServices(&Services{
		Session:    ts.session,
		Documents:  ts.documents,
		Reconciler: ts.reconciler,
		Settings:   ts.settings,
	})
	resetFlags()

	return ts, func() {
		sessionService, documentService, reconciler, settingsService = oldSession, oldDocs, oldRec, oldSettings
		wiringErr = nil
		resetFlags()
	}
}

// resetFlags clears flag values left over from earlier executions.
func resetFlags() {
	jsonOutput = false
	uploadBatchID = ""
	uploadNoAnalyze = false
	uploadWatch = false
	uploadGroupSize = 10
	uploadParallel = 3
	analyzeWatch = false
	inboxNoAnalyze = false
	inboxDebounce = inbox.DefaultDebounce
	exportFormat = "csv"
	exportOutput = ""
	exportIDs = nil
	exportResults = false
	exportCmd.Flags().Lookup("format").Changed = false
	verbose = false
	configDir = ""
	ephemeral = false
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
