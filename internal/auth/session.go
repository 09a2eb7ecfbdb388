package auth

import (
	"context"

	clog "github.com/charmbracelet/log"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/secrets"
)

// Session answers "is this installation logged in" by checking that the
// stored credential is still accepted by the remote service. This is the
// only place that conflates "credential exists" with "credential works":
// a stored-but-revoked token must look identical to never having logged in.
type Session struct {
	store  secrets.Store
	client *api.Client
	log    *clog.Logger
}

// NewSession creates a session manager over the given store and client.
func NewSession(store secrets.Store, client *api.Client) *Session {
	return &Session{
		store:  store,
		client: client,
		log:    clog.Default().WithPrefix("auth"),
	}
}

// IsAuthenticated reports whether a stored credential exists and is
// currently accepted by the remote service. It never returns an error:
// every failure reads as "not authenticated".
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := s.store.Load()
	if err != nil || !ok {
		return false
	}
	if _, err := s.client.CurrentUser(ctx); err != nil {
		s.log.Debug("Stored credential rejected", "error", err)
		return false
	}
	return true
}

// CurrentUser looks up the identity behind the stored credential.
func (s *Session) CurrentUser(ctx context.Context) (api.User, error) {
	return s.client.CurrentUser(ctx)
}

// Logout deletes the stored credential. Logging out when no credential is
// stored still succeeds.
func (s *Session) Logout() bool {
	cleared, err := s.store.Clear()
	if err != nil {
		s.log.Warn("Failed to clear credential", "error", err)
		return false
	}
	s.client.InvalidateToken()
	return cleared
}
