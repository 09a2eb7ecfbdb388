package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/ratelimit"
	"github.com/pullman-cli/pullman/internal/secrets"
)

// oauthServer fakes the device-code endpoints. tokenResponses is consumed
// one entry per poll; each entry is the JSON body the token endpoint
// returns.
func oauthServer(t *testing.T, tokenResponses []string) *httptest.Server {
	t.Helper()
	var polls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login/device/code":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"device_code":      "dev-123",
				"user_code":        "ABCD-1234",
				"verification_uri": "https://github.com/login/device",
				"interval":         5,
			})
		case "/login/oauth/access_token":
			n := atomic.AddInt32(&polls, 1)
			require.LessOrEqual(t, int(n), len(tokenResponses), "more polls than scripted responses")
			_, _ = w.Write([]byte(tokenResponses[n-1]))
		default:
			http.NotFound(w, r)
		}
	}))
}

func identityServer(t *testing.T, login string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer gho_valid" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.User{Login: login})
	}))
}

type flowFixture struct {
	flow   *Flow
	store  *secrets.MemoryStore
	delays []time.Duration
	opened []string
}

func newFlowFixture(t *testing.T, oauthURL, apiURL string) *flowFixture {
	t.Helper()
	fx := &flowFixture{store: secrets.NewMemoryStore()}
	client := api.New(fx.store, ratelimit.NewTracker(), api.WithBaseURL(apiURL))
	fx.flow = NewFlow("Ov23liTest", client, fx.store,
		WithWebBaseURL(oauthURL),
		WithOutput(&bytes.Buffer{}),
		WithInput(strings.NewReader("\n")),
		WithSleep(func(d time.Duration) { fx.delays = append(fx.delays, d) }),
		WithOpenURL(func(u string) error {
			fx.opened = append(fx.opened, u)
			return nil
		}),
	)
	return fx
}

func pending() string {
	return `{"error":"authorization_pending"}`
}

func granted() string {
	return `{"access_token":"gho_valid"}`
}

func TestLoginWithBrowser_Succeeds(t *testing.T) {
	oauth := oauthServer(t, []string{pending(), pending(), granted()})
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	user, err := fx.flow.LoginWithBrowser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, []string{"https://github.com/login/device"}, fx.opened)
	// Two pending polls at the initial interval before the grant lands.
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, fx.delays)

	cred, ok, err := fx.store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "gho_valid", cred.Token)
	assert.Equal(t, "octocat", cred.Username)
	assert.Equal(t, secrets.MethodBrowser, cred.Method)
}

func TestLoginWithBrowser_SlowDownStretchesInterval(t *testing.T) {
	oauth := oauthServer(t, []string{
		`{"error":"slow_down"}`,
		`{"error":"slow_down"}`,
		granted(),
	})
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	_, err := fx.flow.LoginWithBrowser(context.Background())
	require.NoError(t, err)

	// 5s stretched by 1.5x per slow_down: 7.5s then 11.25s.
	assert.Equal(t, []time.Duration{
		time.Duration(7.5 * float64(time.Second)),
		time.Duration(11.25 * float64(time.Second)),
	}, fx.delays)
}

func TestLoginWithBrowser_Denied(t *testing.T) {
	oauth := oauthServer(t, []string{pending(), `{"error":"access_denied"}`})
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	_, err := fx.flow.LoginWithBrowser(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "authorization was denied")

	_, ok, loadErr := fx.store.Load()
	require.NoError(t, loadErr)
	assert.False(t, ok, "nothing may be persisted on denial")
}

func TestLoginWithBrowser_ExpiredCode(t *testing.T) {
	oauth := oauthServer(t, []string{`{"error":"expired_token"}`})
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	_, err := fx.flow.LoginWithBrowser(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "device code expired")
}

func TestLoginWithBrowser_TimesOut(t *testing.T) {
	responses := make([]string, maxPollAttempts)
	for i := range responses {
		responses[i] = pending()
	}
	oauth := oauthServer(t, responses)
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	_, err := fx.flow.LoginWithBrowser(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "timed out waiting for authorization")
	assert.Len(t, fx.delays, maxPollAttempts)
}

func TestLoginWithBrowser_Canceled(t *testing.T) {
	oauth := oauthServer(t, nil)
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.flow.LoginWithBrowser(ctx)
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
}

func TestLoginWithBrowser_BrowserLaunchFailureIsNotFatal(t *testing.T) {
	oauth := oauthServer(t, []string{granted()})
	defer oauth.Close()
	identity := identityServer(t, "octocat")
	defer identity.Close()

	fx := newFlowFixture(t, oauth.URL, identity.URL)
	WithOpenURL(func(string) error { return assert.AnError })(fx.flow)

	user, err := fx.flow.LoginWithBrowser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
}

func TestLoginWithToken(t *testing.T) {
	identity := identityServer(t, "octocat")
	defer identity.Close()

	t.Run("valid token is persisted", func(t *testing.T) {
		fx := newFlowFixture(t, "http://unused.invalid", identity.URL)

		user, err := fx.flow.LoginWithToken(context.Background(), "gho_valid")
		require.NoError(t, err)
		assert.Equal(t, "octocat", user.Login)

		cred, ok, err := fx.store.Load()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, secrets.MethodToken, cred.Method)
	})

	t.Run("rejected token leaves the store empty", func(t *testing.T) {
		fx := newFlowFixture(t, "http://unused.invalid", identity.URL)

		_, err := fx.flow.LoginWithToken(context.Background(), "gho_bogus")
		require.Error(t, err)
		assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
		assert.Contains(t, err.Error(), "invalid token")

		_, ok, loadErr := fx.store.Load()
		require.NoError(t, loadErr)
		assert.False(t, ok)
	})
}

func TestStretch(t *testing.T) {
	assert.Equal(t, time.Duration(7.5*float64(time.Second)), stretch(5*time.Second))
	assert.Equal(t, maxPollInterval, stretch(25*time.Second), "interval is capped")
	assert.Equal(t, maxPollInterval, stretch(maxPollInterval))
}
