package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore keeps credentials for the lifetime of the process.
type CredentialStore struct {
	mu     sync.RWMutex
	values map[domain.CredentialName]string
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		values: make(map[domain.CredentialName]string),
	}
}

// Get returns the stored value, or "" when none is stored.
func (s *CredentialStore) Get(_ context.Context, name domain.CredentialName) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name], nil
}

// Set stores a value, replacing any previous one.
func (s *CredentialStore) Set(_ context.Context, name domain.CredentialName, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

// Remove deletes a value.
func (s *CredentialStore) Remove(_ context.Context, name domain.CredentialName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}
