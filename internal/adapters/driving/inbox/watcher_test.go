package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

// mockUploader implements Uploader for testing. err is returned by every
// call, or only by the first failFirst calls when failFirst is set.
type mockUploader struct {
	mu        sync.Mutex
	batches   [][]driving.UploadFile
	err       error
	failFirst int
	calls     int
}

func (m *mockUploader) Upload(_ context.Context, files []driving.UploadFile, _ string, _ bool) (*driving.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && (m.failFirst == 0 || m.calls <= m.failFirst) {
		return nil, m.err
	}
	m.batches = append(m.batches, files)
	docs := make([]domain.DocumentRecord, len(files))
	for i := range files {
		docs[i] = domain.DocumentRecord{ID: domain.DocumentID(filepath.Base(files[i].Name)), Status: domain.StatusProcessing}
	}
	return &driving.UploadResult{Documents: docs}, nil
}

func (m *mockUploader) uploads() [][]driving.UploadFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]driving.UploadFile(nil), m.batches...)
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "front.JPG")
	require.NoError(t, os.WriteFile(image, []byte("jpeg"), 0644))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("text"), 0644))
	hidden := filepath.Join(dir, ".front.png")
	require.NoError(t, os.WriteFile(hidden, []byte("png"), 0644))
	subdir := filepath.Join(dir, "scans.png")
	require.NoError(t, os.Mkdir(subdir, 0755))

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		expect bool
	}{
		{"create image", image, fsnotify.Create, true},
		{"write image", image, fsnotify.Write, true},
		{"chmod image", image, fsnotify.Chmod, false},
		{"remove image", image, fsnotify.Remove, false},
		{"rename away", filepath.Join(dir, "gone.png"), fsnotify.Rename, false},
		{"not an image", text, fsnotify.Create, false},
		{"hidden image", hidden, fsnotify.Create, false},
		{"directory with image name", subdir, fsnotify.Create, false},
		{"vanished image", filepath.Join(dir, "gone.png"), fsnotify.Create, false},
	}

	w := New(dir, &mockUploader{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := w.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.expect, ok)
			if tt.expect {
				assert.Equal(t, tt.path, path)
			}
		})
	}

	w.uploaded[image] = true
	_, ok := w.handleFsEvent(fsnotify.Event{Name: image, Op: fsnotify.Write})
	assert.False(t, ok, "already uploaded files are not resent")
}

func TestWatcher_Run_UploadsBatch(t *testing.T) {
	dir := t.TempDir()
	uploader := &mockUploader{}
	results := make(chan *driving.UploadResult, 1)
	w := New(dir, uploader,
		WithDebounce(100*time.Millisecond),
		OnUpload(func(r *driving.UploadResult) { results <- r }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "front.png"), []byte("front"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "back.png"), []byte("back"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("skip"), 0644))

	select {
	case r := <-results:
		assert.Len(t, r.Documents, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for upload")
	}

	batches := uploader.uploads()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "back.png", filepath.Base(batches[0][0].Name))
	assert.Equal(t, []byte("back"), batches[0][0].Content)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_Flush_FailedUploadIsKeptForRetry(t *testing.T) {
	dir := t.TempDir()
	uploader := &mockUploader{err: errors.New("502 bad gateway")}
	w := New(dir, uploader, WithDebounce(20*time.Millisecond))

	path := filepath.Join(dir, "front.webp")
	require.NoError(t, os.WriteFile(path, []byte("webp"), 0644))

	retry, err := w.flush(context.Background(), map[string]bool{path: true})

	assert.Error(t, err)
	assert.Equal(t, map[string]bool{path: true}, retry)
	assert.False(t, w.uploaded[path])
	assert.Equal(t, 1, w.failures[path])
}

func TestWatcher_Flush_GivesUpAfterMaxAttempts(t *testing.T) {
	dir := t.TempDir()
	uploader := &mockUploader{err: errors.New("400 unsupported image")}
	w := New(dir, uploader)

	path := filepath.Join(dir, "front.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))

	pending := map[string]bool{path: true}
	for i := 1; i < maxUploadAttempts; i++ {
		pending, _ = w.flush(context.Background(), pending)
		require.Len(t, pending, 1, "attempt %d", i)
	}
	pending, _ = w.flush(context.Background(), pending)

	assert.Empty(t, pending)
	assert.Equal(t, maxUploadAttempts, uploader.calls)
	assert.NotContains(t, w.failures, path)
}

func TestWatcher_Run_RetriesFailedUpload(t *testing.T) {
	dir := t.TempDir()
	uploader := &mockUploader{err: errors.New("503 transient"), failFirst: 1}
	results := make(chan *driving.UploadResult, 1)
	w := New(dir, uploader,
		WithDebounce(20*time.Millisecond),
		OnUpload(func(r *driving.UploadResult) { results <- r }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "front.png"), []byte("front"), 0644))

	select {
	case r := <-results:
		require.Len(t, r.Documents, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("failed upload was not retried")
	}

	uploader.mu.Lock()
	assert.Equal(t, 2, uploader.calls)
	uploader.mu.Unlock()
	assert.Len(t, uploader.uploads(), 1)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_Run_StopsWhenSessionExpires(t *testing.T) {
	dir := t.TempDir()
	uploader := &mockUploader{err: fmt.Errorf("upload: %w", domain.ErrAuthExpired)}
	w := New(dir, uploader, WithDebounce(20*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "front.png"), []byte("front"), 0644))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher kept running on an expired session")
	}
}

func TestWatcher_RetryDelay(t *testing.T) {
	w := New(t.TempDir(), &mockUploader{}, WithDebounce(100*time.Millisecond))

	w.failures["a"] = 1
	assert.Equal(t, 100*time.Millisecond, w.retryDelay(map[string]bool{"a": true}))

	w.failures["b"] = 3
	assert.Equal(t, 400*time.Millisecond, w.retryDelay(map[string]bool{"a": true, "b": true}))

	w.failures["b"] = 40
	assert.Equal(t, maxRetryDelay, w.retryDelay(map[string]bool{"b": true}))
}

func TestWatcher_Run_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := New(file, &mockUploader{}).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = New(filepath.Join(t.TempDir(), "missing"), &mockUploader{}).Run(context.Background())
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, isImage("scan.jpeg"))
	assert.True(t, isImage("SCAN.PNG"))
	assert.True(t, isImage("/a/b/c.webp"))
	assert.False(t, isImage("scan.pdf"))
	assert.False(t, isImage("jpg"))
}
