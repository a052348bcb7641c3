package driving

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// PollHandle is a running polling task.
type PollHandle interface {
	// Done is closed when the task has ended, either because every job
	// settled or because it was stopped.
	Done() <-chan struct{}
}

// Reconciler tracks documents until their analysis settles.
type Reconciler interface {
	// Start begins tracking the given documents. onUpdate receives one
	// update per completed cycle, from a single goroutine.
	Start(ctx context.Context, ids []domain.DocumentID, onUpdate func(domain.PollUpdate)) PollHandle

	// Stop cancels a task. A cycle still in flight is discarded.
	Stop(h PollHandle)
}
