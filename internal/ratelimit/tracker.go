// Package ratelimit tracks the remote API's quota window as observed from
// response headers. The tracker never sleeps; callers use WaitHint to build
// user-facing wait estimates.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	headerLimit     = "x-ratelimit-limit"
	headerRemaining = "x-ratelimit-remaining"
	headerReset     = "x-ratelimit-reset"
)

// State is a snapshot of the tracked quota window.
type State struct {
	Limit     int
	Remaining int
	// ResetAt is the unix-seconds timestamp when the window rolls over.
	ResetAt int64
	// Known is false until the tracker has observed a complete header set.
	Known bool
}

// Tracker holds the current quota window. One instance is shared by all
// request callers; updates are applied atomically relative to each other.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker with no known state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update parses the rate-limit fields from a response header set. The state
// is overwritten only when all three fields are present and well-formed; a
// malformed or partial header set never degrades a known state.
func (t *Tracker) Update(headers http.Header) {
	limit, ok := parseIntHeader(headers, headerLimit)
	if !ok {
		return
	}
	remaining, ok := parseIntHeader(headers, headerRemaining)
	if !ok {
		return
	}
	reset, ok := parseIntHeader(headers, headerReset)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   int64(reset),
		Known:     true,
	}
}

// Exhausted reports whether the quota is spent and the window has not yet
// rolled over. Unknown state never reads as exhausted.
func (t *Tracker) Exhausted(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Known && t.state.Remaining <= 0 && now.Unix() < t.state.ResetAt
}

// WaitHint returns the time until the window resets, never negative.
func (t *Tracker) WaitHint(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Known {
		return 0
	}
	d := time.Unix(t.state.ResetAt, 0).Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

// ResetAt returns the tracked reset timestamp, or zero when unknown.
func (t *Tracker) ResetAt() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Known {
		return 0
	}
	return t.state.ResetAt
}

// Snapshot returns a copy of the current state for display.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func parseIntHeader(headers http.Header, key string) (int, bool) {
	value := headers.Get(key)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
