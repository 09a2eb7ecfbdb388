// Package apierr defines the closed set of error kinds that API callers can
// branch on, and the classifier that maps raw HTTP failures into them.
package apierr

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// Kind identifies a category of failure. The set is closed: callers switch
// on kinds rather than parsing message text.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindValidation Kind = "validation"
	KindConfig     Kind = "config"
	KindRepository Kind = "repository"
	KindUnknown    Kind = "unknown"
)

// Error is a classified failure. Once constructed it is passed through
// unchanged; nothing in the codebase re-wraps one into another kind.
type Error struct {
	kind Kind
	// resetAt is the unix-seconds timestamp when the quota window rolls
	// over. Set for KindRateLimit only.
	resetAt int64
	err     error
}

// New creates a classified error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, err: errors.New(msg)}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, err: errors.Newf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. If err is already
// classified, it is returned unchanged.
func Wrap(kind Kind, err error, msg string) *Error {
	if typed := AsError(err); typed != nil {
		return typed
	}
	return &Error{kind: kind, err: errors.Wrap(err, msg)}
}

// RateLimited creates a rate-limit error carrying the window reset time.
func RateLimited(resetAt int64) *Error {
	return &Error{
		kind:    KindRateLimit,
		resetAt: resetAt,
		err:     errors.New("API rate limit exceeded"),
	}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the error's category.
func (e *Error) Kind() Kind {
	return e.kind
}

// ResetAt returns the unix-seconds reset time for rate-limit errors,
// and zero for every other kind.
func (e *Error) ResetAt() int64 {
	return e.resetAt
}

// ResetIn returns the duration until the quota window resets, never negative.
func (e *Error) ResetIn(now time.Time) time.Duration {
	if e.resetAt == 0 {
		return 0
	}
	d := time.Unix(e.resetAt, 0).Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

// AsError returns err as a classified *Error, or nil if it isn't one.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind of a classified error, or KindUnknown for
// anything else (including nil-safe misuse).
func KindOf(err error) Kind {
	if typed := AsError(err); typed != nil {
		return typed.kind
	}
	return KindUnknown
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	typed := AsError(err)
	return typed != nil && typed.kind == kind
}

// HTTPFailure is the raw shape of a failed HTTP exchange, prior to
// classification. The request client constructs one from a non-2xx response
// and feeds it to Classify; it never escapes the client boundary.
type HTTPFailure struct {
	StatusCode int
	// Message is the remote service's error message, if the body carried one.
	Message string
	// ResetAt is the x-ratelimit-reset header value, or zero when absent.
	ResetAt int64
}

func (f *HTTPFailure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", f.StatusCode, f.Message)
	}
	return fmt.Sprintf("HTTP %d", f.StatusCode)
}
