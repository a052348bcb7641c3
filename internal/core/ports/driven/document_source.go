package driven

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// DocumentSource fetches the caller's current document collection.
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)
}
