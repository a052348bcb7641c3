package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService runs the login/logout flow. Together with SessionRefresher
// it is the only writer of the stored credentials.
type SessionService struct {
	store     driven.CredentialStore
	auth      driven.Authenticator
	inspector driven.TokenInspector
}

// NewSessionService creates a session service. inspector may be nil.
func NewSessionService(
	store driven.CredentialStore,
	auth driven.Authenticator,
	inspector driven.TokenInspector,
) *SessionService {
	return &SessionService{
		store:     store,
		auth:      auth,
		inspector: inspector,
	}
}

// Login authenticates and stores the returned credential pair.
func (s *SessionService) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	pair, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !pair.IsComplete() {
		return fmt.Errorf("login: server returned an incomplete credential pair")
	}

	if err := s.store.Set(ctx, domain.CredentialRefresh, pair.Refresh); err != nil {
		return fmt.Errorf("store refresh credential: %w", err)
	}
	if err := s.store.Set(ctx, domain.CredentialAccess, pair.Access); err != nil {
		return fmt.Errorf("store access credential: %w", err)
	}
	return nil
}

// Logout notifies the server and clears local credentials even if that fails.
func (s *SessionService) Logout(ctx context.Context) error {
	if access, _ := s.store.Get(ctx, domain.CredentialAccess); access != "" {
		if err := s.auth.Logout(ctx); err != nil {
			logger.Warn("logout: server notification failed: %v", err)
		}
	}

	if err := s.store.Remove(ctx, domain.CredentialAccess); err != nil {
		return fmt.Errorf("remove access credential: %w", err)
	}
	if err := s.store.Remove(ctx, domain.CredentialRefresh); err != nil {
		return fmt.Errorf("remove refresh credential: %w", err)
	}
	return nil
}

// Status describes the stored session.
func (s *SessionService) Status(ctx context.Context) (*domain.SessionInfo, error) {
	access, _ := s.store.Get(ctx, domain.CredentialAccess)
	refresh, _ := s.store.Get(ctx, domain.CredentialRefresh)

	info := &domain.SessionInfo{Authenticated: access != "" && refresh != ""}
	if !info.Authenticated || s.inspector == nil {
		return info, nil
	}

	claims, err := s.inspector.Inspect(access)
	if err != nil {
		logger.Debug("session: access token claims unreadable: %v", err)
		return info, nil
	}
	info.Claims = claims
	return info, nil
}
