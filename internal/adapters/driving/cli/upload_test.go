package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("image:"+name), 0600))
		paths = append(paths, path)
	}
	return paths
}

func TestUploadCmd_SingleFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	paths := writeImages(t, "front.jpg")

	out, err := executeCommand(t, "upload", paths[0])

	require.NoError(t, err)
	require.Len(t, ts.documents.uploads, 1)
	assert.Equal(t, "front.jpg", ts.documents.uploads[0][0].Name)
	assert.Equal(t, []byte("image:front.jpg"), ts.documents.uploads[0][0].Content)
	assert.Equal(t, []string{""}, ts.documents.batchIDs)
	assert.Equal(t, []bool{true}, ts.documents.autoAnalyze)
	assert.Contains(t, out, "Uploaded 1 file(s)\n")
}

func TestUploadCmd_SeveralFilesShareGeneratedBatch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	paths := writeImages(t, "a.jpg", "b.png", "c.webp")

	args := append([]string{"upload", "--group-size", "1"}, paths...)
	out, err := executeCommand(t, args...)

	require.NoError(t, err)
	require.Len(t, ts.documents.uploads, 3)
	batch := ts.documents.batchIDs[0]
	assert.Regexp(t, `^batch_[0-9a-f]{12}$`, batch)
	assert.Equal(t, []string{batch, batch, batch}, ts.documents.batchIDs)
	assert.Contains(t, out, "Uploaded 3 file(s) in batch "+batch)
}

func TestUploadCmd_ExplicitBatchNoAnalyze(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	paths := writeImages(t, "a.jpg", "b.jpg")

	args := append([]string{"upload", "--batch-id", "batch_mine", "--no-analyze"}, paths...)
	_, err := executeCommand(t, args...)

	require.NoError(t, err)
	require.Len(t, ts.documents.uploads, 1)
	assert.Len(t, ts.documents.uploads[0], 2)
	assert.Equal(t, []string{"batch_mine"}, ts.documents.batchIDs)
	assert.Equal(t, []bool{false}, ts.documents.autoAnalyze)
}

func TestUploadCmd_MissingFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "upload", filepath.Join(t.TempDir(), "missing.jpg"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read files")
	assert.Empty(t, ts.documents.uploads)
}

func TestUploadCmd_EmptyFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := executeCommand(t, "upload", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUploadCmd_SessionExpired(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.err = fmt.Errorf("upload: %w", domain.ErrAuthExpired)
	paths := writeImages(t, "a.jpg")

	_, err := executeCommand(t, "upload", paths[0])

	assert.EqualError(t, err, "session expired, run docverify login")
}

func TestUploadCmd_WatchFollowsUploadedDocuments(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reconciler.updates = []domain.PollUpdate{{
		Cycle:   1,
		Done:    true,
		Summary: domain.Summary{Total: 2, Verified: 2, Completed: 2},
	}}
	paths := writeImages(t, "a.jpg", "b.jpg")

	args := append([]string{"upload", "--watch"}, paths...)
	out, err := executeCommand(t, args...)

	require.NoError(t, err)
	require.Len(t, ts.reconciler.startedIDs(), 1)
	assert.Equal(t, []domain.DocumentID{"1", "2"}, ts.reconciler.startedIDs()[0])
	assert.Contains(t, out, "Total: 2  verified: 2  suspicious: 0  pending: 0")
}

func TestUploadCmd_WatchWithoutAnalysis(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	paths := writeImages(t, "a.jpg")

	out, err := executeCommand(t, "upload", "--watch", "--no-analyze", paths[0])

	require.NoError(t, err)
	assert.Empty(t, ts.reconciler.startedIDs())
	assert.Contains(t, out, "nothing to watch")
}

func TestReadUploadFiles_KeepsOrder(t *testing.T) {
	paths := writeImages(t, "1.jpg", "2.jpg", "3.jpg", "4.jpg")

	files, err := readUploadFiles(paths, 2)

	require.NoError(t, err)
	require.Len(t, files, 4)
	for i, f := range files {
		assert.Equal(t, filepath.Base(paths[i]), f.Name)
	}
}
