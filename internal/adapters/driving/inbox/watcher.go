// Package inbox watches a directory and uploads images dropped into it.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

const (
	// DefaultDebounce is how long a file must stay unchanged before it is uploaded.
	DefaultDebounce = 500 * time.Millisecond

	// maxUploadAttempts bounds how often a failing file is retried.
	maxUploadAttempts = 5

	// maxRetryDelay caps the wait between retries.
	maxRetryDelay = 30 * time.Second
)

// imageExtensions are the file types the verification API accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Uploader sends files to the verification API.
type Uploader interface {
	Upload(ctx context.Context, files []driving.UploadFile, batchID string, autoAnalyze bool) (*driving.UploadResult, error)
}

// Watcher uploads new images that appear in a directory.
type Watcher struct {
	dir         string
	uploader    Uploader
	debounce    time.Duration
	autoAnalyze bool
	onUpload    func(*driving.UploadResult)

	// uploaded holds files already sent, so later writes do not resend them.
	uploaded map[string]bool
	// failures counts consecutive failed uploads per file.
	failures map[string]int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a file is uploaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithAutoAnalyze controls whether uploads start analysis immediately.
func WithAutoAnalyze(v bool) Option {
	return func(w *Watcher) {
		w.autoAnalyze = v
	}
}

// OnUpload registers a callback for every successful upload.
func OnUpload(fn func(*driving.UploadResult)) Option {
	return func(w *Watcher) {
		w.onUpload = fn
	}
}

// New creates a watcher for dir.
func New(dir string, uploader Uploader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		uploader:    uploader,
		debounce:    DefaultDebounce,
		autoAnalyze: true,
		uploaded:    make(map[string]bool),
		failures:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Files written in quick succession are
// uploaded together in one batch. A failed batch is retried with a growing
// delay. Run returns domain.ErrAuthExpired when the session ends.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: inbox %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.dir, err)
	}
	logger.Info("inbox: watching %s", w.dir)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path, accepted := w.handleFsEvent(event)
			if !accepted {
				continue
			}
			pending[path] = true
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox: watcher error: %v", err)

		case <-timer.C:
			retry, err := w.flush(ctx, pending)
			if errors.Is(err, domain.ErrAuthExpired) {
				return err
			}
			pending = retry
			if len(pending) > 0 {
				timer.Reset(w.retryDelay(pending))
			}
		}
	}
}

// handleFsEvent returns the image path an event refers to, if it should be uploaded.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !isImage(event.Name) || isHidden(event.Name) || w.uploaded[event.Name] {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// flush uploads the pending files as one batch and returns the files to try
// again. Unreadable files and files that keep failing are dropped.
func (w *Watcher) flush(ctx context.Context, pending map[string]bool) (map[string]bool, error) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]driving.UploadFile, 0, len(paths))
	sent := make([]string, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("inbox: skipping %s: %v", p, err)
			delete(w.failures, p)
			continue
		}
		if len(content) == 0 {
			continue
		}
		files = append(files, driving.UploadFile{Name: filepath.Base(p), Content: content})
		sent = append(sent, p)
	}
	if len(files) == 0 {
		return nil, nil
	}

	result, err := w.uploader.Upload(ctx, files, "", w.autoAnalyze)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		retry := make(map[string]bool, len(sent))
		for _, p := range sent {
			w.failures[p]++
			if w.failures[p] >= maxUploadAttempts {
				logger.Error("inbox: giving up on %s after %d attempts: %v", p, w.failures[p], err)
				delete(w.failures, p)
				continue
			}
			retry[p] = true
		}
		logger.Error("inbox: upload of %d file(s) failed, %d will be retried: %v", len(files), len(retry), err)
		return retry, err
	}

	for _, p := range sent {
		w.uploaded[p] = true
		delete(w.failures, p)
	}
	logger.Info("inbox: uploaded %d file(s)", len(files))
	if w.onUpload != nil {
		w.onUpload(result)
	}
	return nil, nil
}

// retryDelay doubles the debounce for every failure of the most-failed file.
func (w *Watcher) retryDelay(pending map[string]bool) time.Duration {
	attempts := 0
	for p := range pending {
		attempts = max(attempts, w.failures[p])
	}
	delay := w.debounce
	for i := 1; i < attempts && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func isImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
