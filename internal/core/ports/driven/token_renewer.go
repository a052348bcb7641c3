package driven

import (
	"context"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// TokenRenewer exchanges a refresh credential for a new credential pair.
// Implementations must not route the call through the authenticated request
// pipeline, so a failing renewal can never trigger another renewal.
type TokenRenewer interface {
	Renew(ctx context.Context, refresh string) (domain.CredentialPair, error)
}

// Authenticator performs the interactive login/logout exchange.
type Authenticator interface {
	// Login exchanges a username (or e-mail) and password for a credential pair.
	Login(ctx context.Context, username, password string) (domain.CredentialPair, error)

	// Logout tells the server the session is over. Best effort.
	Logout(ctx context.Context) error
}

// TokenInspector reads claims from an access token without verifying it.
type TokenInspector interface {
	Inspect(token string) (*domain.TokenClaims, error)
}
