// Package api provides the single choke point for all outbound GitHub API
// calls. Every caller funnels through Do, which attaches the stored
// credential, consults the rate-limit tracker before sending, retries
// transient failures with exponential backoff, and classifies every failure
// into the apierr taxonomy. No higher-level service implements its own
// retry logic.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/ratelimit"
	"github.com/pullman-cli/pullman/internal/secrets"
)

const (
	// DefaultBaseURL is the GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultMaxRetries bounds the retry loop for transient failures.
	DefaultMaxRetries = 3

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pullman"
	acceptJSON       = "application/vnd.github+json"
)

// Client performs authenticated, rate-limited requests against the API.
// One instance (with its tracker) is shared by all callers in a process.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      secrets.Store
	tracker    *ratelimit.Tracker
	log        *clog.Logger
	maxRetries int
	userAgent  string

	// sleep and now are injectable so tests can simulate time.
	sleep func(time.Duration)
	now   func() time.Time

	mu          sync.Mutex
	token       string
	tokenLoaded bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the underlying HTTP transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithMaxRetries overrides the default transient-failure retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithSleep replaces the backoff sleep function.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client reading its credential from store.
func New(store secrets.Store, tracker *ratelimit.Tracker, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		tracker:    tracker,
		log:        clog.Default().WithPrefix("api"),
		maxRetries: DefaultMaxRetries,
		userAgent:  defaultUserAgent,
		sleep:      time.Sleep,
		now:        time.Now,
	}
	if c.tracker == nil {
		c.tracker = ratelimit.NewTracker()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimit exposes the shared tracker for display purposes.
func (c *Client) RateLimit() *ratelimit.Tracker {
	return c.tracker
}

// InvalidateToken drops the cached credential so the next request re-reads
// the store. Called after login and logout.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenLoaded = false
}

type requestOptions struct {
	retry      bool
	maxRetries int
	accept     string
	bearer     string
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithoutRetry disables transient-failure retries for this request.
func WithoutRetry() RequestOption {
	return func(o *requestOptions) { o.retry = false }
}

// WithRequestRetries overrides the retry budget for this request.
func WithRequestRetries(n int) RequestOption {
	return func(o *requestOptions) { o.maxRetries = n }
}

// WithAccept overrides the Accept header, e.g. to fetch a raw diff.
func WithAccept(mediaType string) RequestOption {
	return func(o *requestOptions) { o.accept = mediaType }
}

// WithBearer makes the request with an explicit token instead of the stored
// credential. Used to validate a candidate token before persisting it.
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) { o.bearer = token }
}

// Get performs a GET request. When out is a *string or *[]byte the raw body
// is returned; otherwise the JSON response is decoded into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out, opts...)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out, opts...)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out, opts...)
}

// Do performs one API call with the full retry/backoff/rate-limit
// discipline. It either decodes a typed result into out or fails with
// exactly one classified error; raw transport errors never escape.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any, opts ...RequestOption) error {
	reqOpts := requestOptions{retry: true, maxRetries: c.maxRetries, accept: acceptJSON}
	for _, opt := range opts {
		opt(&reqOpts)
	}

	token := reqOpts.bearer
	if token == "" {
		var err error
		token, err = c.loadToken()
		if err != nil {
			return err
		}
	}

	if c.tracker.Exhausted(c.now()) {
		c.log.Debug("Rate limit exhausted, failing fast", "resetAt", c.tracker.ResetAt())
		return apierr.RateLimited(c.tracker.ResetAt())
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apierr.Wrap(apierr.KindValidation, err, "failed to encode request body")
		}
		payload = encoded
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		typedErr, retryable := c.attempt(ctx, method, endpoint, token, payload, out, reqOpts)
		if typedErr == nil {
			return nil
		}
		if retryable && reqOpts.retry && attempt < reqOpts.maxRetries {
			delay := time.Second * time.Duration(1<<attempt)
			c.log.Debug("Transient failure, backing off", "method", method, "path", path, "attempt", attempt, "delay", delay)
			c.sleep(delay)
			continue
		}
		return typedErr
	}
}

// attempt performs a single HTTP exchange. The second return reports
// whether the failure is a retryable transient (5xx) one.
func (c *Client) attempt(ctx context.Context, method, endpoint, token string, payload []byte, out any, reqOpts requestOptions) (*apierr.Error, bool) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return apierr.Classify(err, c.tracker.ResetAt(), c.now()), false
	}
	req.Header.Set("Accept", reqOpts.accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Classify(err, c.tracker.ResetAt(), c.now()), false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Feed rate-limit headers to the tracker on every response,
	// success or failure.
	c.tracker.Update(resp.Header)

	if resp.StatusCode >= 400 {
		failure := decodeFailure(resp)
		typed := apierr.Classify(failure, c.tracker.ResetAt(), c.now())
		if typed.Kind() == apierr.KindRateLimit {
			// Retrying during quota exhaustion only wastes the next window.
			return typed, false
		}
		return typed, resp.StatusCode >= 500 && resp.StatusCode < 600
	}

	if out == nil {
		return nil, false
	}
	if err := decodeBody(resp.Body, out); err != nil {
		return apierr.Classify(err, c.tracker.ResetAt(), c.now()), false
	}
	return nil, false
}

// decodeFailure shapes a non-2xx response into the raw failure form the
// classifier understands. GitHub error bodies carry a "message" field.
func decodeFailure(resp *http.Response) *apierr.HTTPFailure {
	failure := &apierr.HTTPFailure{StatusCode: resp.StatusCode}

	if reset := resp.Header.Get("x-ratelimit-reset"); reset != "" {
		if n, err := strconv.ParseInt(reset, 10, 64); err == nil {
			failure.ResetAt = n
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return failure
	}
	var apiError struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Message != "" {
		failure.Message = apiError.Message
	} else {
		failure.Message = strings.TrimSpace(string(body))
	}
	return failure
}

func decodeBody(body io.Reader, out any) error {
	switch target := out.(type) {
	case *string:
		raw, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		*target = string(raw)
		return nil
	case *[]byte:
		raw, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		*target = raw
		return nil
	default:
		return json.NewDecoder(body).Decode(out)
	}
}

// loadToken lazily reads the stored credential, caching it for the life of
// the client.
func (c *Client) loadToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokenLoaded {
		return c.token, nil
	}
	cred, ok, err := c.store.Load()
	if err != nil {
		return "", apierr.Wrap(apierr.KindConfig, err, "failed to load credential")
	}
	if !ok {
		return "", apierr.New(apierr.KindAuth, "not logged in to GitHub; run `pullman auth login`")
	}
	c.token = cred.Token
	c.tokenLoaded = true
	return c.token, nil
}
