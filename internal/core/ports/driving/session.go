package driving

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// SessionRefresher renews the session credentials with at most one renewal
// in flight at any time.
type SessionRefresher interface {
	// RequestRefresh returns a fresh access credential. stale is the access
	// credential the caller's failed request was sent with; if the stored one
	// already differs, it is returned without renewing.
	// Fails with domain.ErrAuthExpired when the session cannot be renewed.
	RequestRefresh(ctx context.Context, stale string) (string, error)
}

// SessionService manages the logged-in session.
type SessionService interface {
	// Login authenticates and stores the new credential pair.
	Login(ctx context.Context, username, password string) error

	// Logout ends the session and always clears local credentials.
	Logout(ctx context.Context) error

	// Status describes the locally stored session.
	Status(ctx context.Context) (*domain.SessionInfo, error)
}
