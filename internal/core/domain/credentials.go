package domain

import "time"

// CredentialName names one of the two session credentials held by a CredentialStore.
type CredentialName string

// Stored credential names.
const (
	// CredentialAccess is the short-lived token attached to every API call.
	CredentialAccess CredentialName = "access"

	// CredentialRefresh is the longer-lived token used to mint a new access token.
	CredentialRefresh CredentialName = "refresh"
)

// String returns the string representation.
func (n CredentialName) String() string {
	return string(n)
}

// CredentialPair is the access/refresh pair of a session.
// Both values are written and cleared together.
type CredentialPair struct {
	// Access is the bearer token for API access.
	Access string
	// Refresh is used to obtain new access tokens.
	Refresh string
	// Expiry is when the access token expires, if the server reported it.
	Expiry time.Time
}

// IsComplete returns true if both credentials are present.
func (p CredentialPair) IsComplete() bool {
	return p.Access != "" && p.Refresh != ""
}

// RefresherState is the state of the single-flight renewal protocol.
type RefresherState int

// Refresher states.
const (
	// RefresherIdle means no renewal is outstanding.
	RefresherIdle RefresherState = iota
	// RefresherRefreshing means exactly one renewal is in flight.
	RefresherRefreshing
)

// String returns the string representation.
func (s RefresherState) String() string {
	switch s {
	case RefresherIdle:
		return "idle"
	case RefresherRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// TokenClaims is the readable part of an access token.
// Claims are decoded without signature verification and are informational only.
type TokenClaims struct {
	UserID    string
	Username  string
	Email     string
	ExpiresAt time.Time
}

// Expired returns true if the claims carry an expiry in the past.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// SessionInfo describes the locally stored session.
type SessionInfo struct {
	// Authenticated is true when both credentials are stored.
	Authenticated bool
	// Claims are read from the access token, nil when it cannot be decoded.
	Claims *TokenClaims
}
