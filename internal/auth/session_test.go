package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/ratelimit"
	"github.com/pullman-cli/pullman/internal/secrets"
)

func newSessionFixture(t *testing.T, apiURL string) (*Session, *secrets.MemoryStore) {
	t.Helper()
	store := secrets.NewMemoryStore()
	client := api.New(store, ratelimit.NewTracker(), api.WithBaseURL(apiURL))
	return NewSession(store, client), store
}

func TestSession_IsAuthenticated(t *testing.T) {
	identity := identityServer(t, "octocat")
	defer identity.Close()

	t.Run("accepted credential", func(t *testing.T) {
		session, store := newSessionFixture(t, identity.URL)
		require.NoError(t, store.Save(secrets.Credential{Token: "gho_valid"}))
		assert.True(t, session.IsAuthenticated(context.Background()))
	})

	t.Run("no stored credential", func(t *testing.T) {
		session, _ := newSessionFixture(t, identity.URL)
		assert.False(t, session.IsAuthenticated(context.Background()))
	})

	t.Run("revoked credential reads as logged out", func(t *testing.T) {
		session, store := newSessionFixture(t, identity.URL)
		require.NoError(t, store.Save(secrets.Credential{Token: "gho_revoked"}))
		assert.False(t, session.IsAuthenticated(context.Background()))
	})

	t.Run("unreachable service reads as logged out", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		down.Close()

		session, store := newSessionFixture(t, down.URL)
		require.NoError(t, store.Save(secrets.Credential{Token: "gho_valid"}))
		assert.False(t, session.IsAuthenticated(context.Background()))
	})
}

func TestSession_CurrentUser(t *testing.T) {
	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(api.User{Login: "octocat", Name: "The Octocat"})
	}))
	defer identity.Close()

	session, store := newSessionFixture(t, identity.URL)
	require.NoError(t, store.Save(secrets.Credential{Token: "gho_valid"}))

	user, err := session.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The Octocat", user.Name)
}

func TestSession_Logout(t *testing.T) {
	identity := identityServer(t, "octocat")
	defer identity.Close()

	t.Run("clears the stored credential", func(t *testing.T) {
		session, store := newSessionFixture(t, identity.URL)
		require.NoError(t, store.Save(secrets.Credential{Token: "gho_valid"}))

		assert.True(t, session.Logout())

		_, ok, err := store.Load()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("succeeds with nothing stored", func(t *testing.T) {
		session, _ := newSessionFixture(t, identity.URL)
		assert.True(t, session.Logout())
	})
}
