package driven

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// CredentialStore persists the session's access and refresh credentials.
// It is a plain key-value facility; the core treats any Get error as an
// absent value and relies on last-write-wins semantics only.
type CredentialStore interface {
	// Get returns the stored value, or "" when none is stored.
	Get(ctx context.Context, name domain.CredentialName) (string, error)

	// Set stores a value, replacing any previous one.
	Set(ctx context.Context, name domain.CredentialName, value string) error

	// Remove deletes a value. Removing an absent value is not an error.
	Remove(ctx context.Context, name domain.CredentialName) error
}
