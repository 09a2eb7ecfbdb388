// Package auth drives the device-code login flow and the session lifecycle
// around the stored credential.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/secrets"
)

// DefaultWebBaseURL hosts the OAuth device-code endpoints.
const DefaultWebBaseURL = "https://github.com"

const (
	deviceCodePath  = "/login/device/code"
	accessTokenPath = "/login/oauth/access_token"
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	initialPollInterval = 5 * time.Second
	maxPollInterval     = 30 * time.Second
	maxPollAttempts     = 30

	// backoffFactor stretches the poll interval on slow_down signals and
	// transport blips. Fast first polls for the common case, while still
	// respecting the remote's explicit throttling signal.
	backoffFactor = 1.5
)

// flowState tracks where a login attempt is in the device-code grant.
type flowState int

const (
	stateIdle flowState = iota
	stateCodeRequested
	stateAwaitingUserAction
	statePolling
	stateValidated
	stateExpired
	stateDenied
	stateFailed
)

func (s flowState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCodeRequested:
		return "code-requested"
	case stateAwaitingUserAction:
		return "awaiting-user-action"
	case statePolling:
		return "polling"
	case stateValidated:
		return "validated"
	case stateExpired:
		return "expired"
	case stateDenied:
		return "denied"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Flow orchestrates the device-code grant: request a code, prompt the user,
// poll for a token with adaptive backoff, validate the token, persist it.
type Flow struct {
	webBaseURL string
	clientID   string
	scope      string
	httpClient *http.Client
	client     *api.Client
	store      secrets.Store
	log        *clog.Logger

	// out receives user-facing prompts; in supplies the caller-driven
	// "I've got the code" keypress.
	out io.Writer
	in  io.Reader

	sleep   func(time.Duration)
	openURL func(string) error

	state flowState
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithWebBaseURL overrides the OAuth endpoint host.
func WithWebBaseURL(baseURL string) FlowOption {
	return func(f *Flow) { f.webBaseURL = strings.TrimRight(baseURL, "/") }
}

// WithScope overrides the requested OAuth scope.
func WithScope(scope string) FlowOption {
	return func(f *Flow) { f.scope = scope }
}

// WithHTTPClient overrides the transport used for the OAuth endpoints.
func WithHTTPClient(httpClient *http.Client) FlowOption {
	return func(f *Flow) { f.httpClient = httpClient }
}

// WithOutput redirects user-facing prompts.
func WithOutput(out io.Writer) FlowOption {
	return func(f *Flow) { f.out = out }
}

// WithInput replaces the reader the flow blocks on before polling.
func WithInput(in io.Reader) FlowOption {
	return func(f *Flow) { f.in = in }
}

// WithSleep replaces the poll-interval sleep function.
func WithSleep(sleep func(time.Duration)) FlowOption {
	return func(f *Flow) { f.sleep = sleep }
}

// WithOpenURL replaces the browser launcher.
func WithOpenURL(open func(string) error) FlowOption {
	return func(f *Flow) { f.openURL = open }
}

// NewFlow creates a device-code login flow. The token obtained from the
// grant is validated through client before it is persisted to store.
func NewFlow(clientID string, client *api.Client, store secrets.Store, opts ...FlowOption) *Flow {
	f := &Flow{
		webBaseURL: DefaultWebBaseURL,
		clientID:   clientID,
		scope:      "repo read:user",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		client:     client,
		store:      store,
		log:        clog.Default().WithPrefix("auth"),
		out:        os.Stdout,
		in:         os.Stdin,
		sleep:      time.Sleep,
		openURL:    openBrowser,
		state:      stateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	Interval        int    `json:"interval"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// LoginWithBrowser runs the full device-code grant and returns the
// authenticated user. The credential is persisted only after the token has
// been validated against the identity endpoint.
func (f *Flow) LoginWithBrowser(ctx context.Context) (api.User, error) {
	code, err := f.requestDeviceCode(ctx)
	if err != nil {
		f.transition(stateFailed)
		// Failing to obtain a device code is not a transient-failure
		// path; no retry here.
		return api.User{}, apierr.Wrap(apierr.KindAuth, err, "failed to request device code")
	}
	f.transition(stateCodeRequested)

	fmt.Fprintf(f.out, "First, copy your one-time code: %s\n", code.UserCode)
	fmt.Fprintf(f.out, "Then press Enter to open %s in your browser...\n", code.VerificationURI)
	f.transition(stateAwaitingUserAction)
	f.awaitUser()

	if err := f.openURL(code.VerificationURI); err != nil {
		// Best effort: the user can still open the URL by hand.
		f.log.Warn("Failed to open browser", "url", code.VerificationURI, "error", err)
	}

	f.transition(statePolling)
	token, err := f.pollForToken(ctx, code)
	if err != nil {
		return api.User{}, err
	}
	f.transition(stateValidated)

	return f.validateAndPersist(ctx, token, secrets.MethodBrowser)
}

// LoginWithToken is the non-interactive counterpart: validate the supplied
// personal access token and persist it. Nothing is stored on failure.
func (f *Flow) LoginWithToken(ctx context.Context, token string) (api.User, error) {
	return f.validateAndPersist(ctx, token, secrets.MethodToken)
}

func (f *Flow) validateAndPersist(ctx context.Context, token string, method secrets.Method) (api.User, error) {
	user, err := f.client.CurrentUser(ctx, api.WithBearer(token))
	if err != nil {
		f.transition(stateFailed)
		if apierr.IsKind(err, apierr.KindAuth) {
			return api.User{}, apierr.New(apierr.KindAuth, "invalid token")
		}
		return api.User{}, err
	}

	cred := secrets.Credential{Token: token, Username: user.Login, Method: method}
	if err := f.store.Save(cred); err != nil {
		return api.User{}, err
	}
	f.client.InvalidateToken()
	f.log.Debug("Credential persisted", "username", user.Login, "method", method)
	return user, nil
}

func (f *Flow) requestDeviceCode(ctx context.Context) (*deviceCodeResponse, error) {
	values := url.Values{}
	values.Set("client_id", f.clientID)
	values.Set("scope", f.scope)

	var resp deviceCodeResponse
	if err := f.postForm(ctx, f.webBaseURL+deviceCodePath, values, &resp); err != nil {
		return nil, err
	}
	if resp.DeviceCode == "" || resp.UserCode == "" {
		return nil, fmt.Errorf("device code endpoint returned an incomplete response")
	}
	return &resp, nil
}

// pollForToken polls the token endpoint until the user completes the grant.
// authorization_pending is the normal answer; slow_down and transport blips
// stretch the interval rather than aborting a multi-minute user-driven flow.
func (f *Flow) pollForToken(ctx context.Context, code *deviceCodeResponse) (string, error) {
	interval := initialPollInterval

	values := url.Values{}
	values.Set("client_id", f.clientID)
	values.Set("device_code", code.DeviceCode)
	values.Set("grant_type", deviceGrantType)

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			f.transition(stateFailed)
			return "", apierr.Wrap(apierr.KindAuth, err, "login canceled")
		}

		var resp accessTokenResponse
		if err := f.postForm(ctx, f.webBaseURL+accessTokenPath, values, &resp); err != nil {
			f.log.Debug("Token poll failed, backing off", "attempt", attempt, "error", err)
			interval = stretch(interval)
			f.sleep(interval)
			continue
		}

		if resp.AccessToken != "" {
			return resp.AccessToken, nil
		}

		switch resp.Error {
		case "authorization_pending":
			// Normal: the user hasn't finished in the browser yet.
		case "slow_down":
			interval = stretch(interval)
			f.log.Debug("Remote requested slower polling", "interval", interval)
		case "access_denied":
			f.transition(stateDenied)
			return "", apierr.New(apierr.KindAuth, "authorization was denied")
		case "expired_token":
			f.transition(stateExpired)
			return "", apierr.New(apierr.KindAuth, "device code expired; run `pullman auth login` again")
		default:
			// The user may still complete the flow; surface and continue.
			f.log.Info("Unexpected response while polling", "error", resp.Error, "description", resp.ErrorDesc)
		}

		f.sleep(interval)
	}

	f.transition(stateFailed)
	return "", apierr.New(apierr.KindAuth, "timed out waiting for authorization")
}

func (f *Flow) postForm(ctx context.Context, endpoint string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned HTTP %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// awaitUser blocks until the caller signals the user has acted. EOF (e.g. a
// closed stdin in scripts) is treated as the signal.
func (f *Flow) awaitUser() {
	reader := bufio.NewReader(f.in)
	_, _ = reader.ReadString('\n')
}

func (f *Flow) transition(next flowState) {
	f.log.Debug("Login flow transition", "from", f.state, "to", next)
	f.state = next
}

func stretch(interval time.Duration) time.Duration {
	stretched := time.Duration(float64(interval) * backoffFactor)
	if stretched > maxPollInterval {
		stretched = maxPollInterval
	}
	return stretched
}
