package docapi

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
)

// Ensure ClaimsInspector implements the interface.
var _ driven.TokenInspector = (*ClaimsInspector)(nil)

// accessClaims mirrors the payload of the API's access tokens.
type accessClaims struct {
	UserID   any    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// ClaimsInspector reads access token claims without verifying the signature.
// The signing key is server-side; the claims are for display only.
type ClaimsInspector struct {
	parser *jwt.Parser
}

// NewClaimsInspector creates a claims inspector.
func NewClaimsInspector() *ClaimsInspector {
	return &ClaimsInspector{parser: jwt.NewParser()}
}

// Inspect decodes the claims of an access token.
func (i *ClaimsInspector) Inspect(token string) (*domain.TokenClaims, error) {
	claims := &accessClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: access token: %v", domain.ErrInvalidInput, err)
	}

	out := &domain.TokenClaims{
		Username: claims.Username,
		Email:    claims.Email,
	}
	if claims.UserID != nil {
		out.UserID = fmt.Sprint(claims.UserID)
	} else {
		out.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
