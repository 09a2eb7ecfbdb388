package secrets

import "sync"

// MemoryStore holds the credential for a single process lifetime. It exists
// as the fallback when the OS secret store is unavailable, and as the test
// double for components that take a Store.
type MemoryStore struct {
	mu    sync.Mutex
	cred  Credential
	saved bool
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.saved = true
	return nil
}

func (s *MemoryStore) Load() (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.saved, nil
}

func (s *MemoryStore) Clear() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.saved = false
	return true, nil
}
