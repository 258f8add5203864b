package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/gowallet/internal/domain"
)

// CredentialStore implements usecase.CredentialStore in memory.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credentials
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]domain.Credentials)}
}

// Save stores or replaces the credentials for a username.
func (s *CredentialStore) Save(_ context.Context, creds *domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[creds.Username] = *creds
	return nil
}

// Get returns a copy of the stored credentials.
func (s *CredentialStore) Get(_ context.Context, username string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, username)
	}
	return &c, nil
}
