package apierr

import (
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// fallbackResetWindow is the conservative reset estimate used when a
// rate-limit failure carries no usable reset timestamp.
const fallbackResetWindow = time.Hour

// Classify maps a raw failure into exactly one classified *Error.
//
// trackedReset is the reset time currently known to the rate-limit tracker
// (zero when unknown); it backs rate-limit classification when the failure
// itself carries no reset header. The decision order matters: GitHub signals
// quota exhaustion as a 403 with a distinguishing message, so rate-limit
// detection must run before the generic 401/403-as-auth rule.
func Classify(err error, trackedReset int64, now time.Time) *Error {
	if err == nil {
		return nil
	}

	// Already classified: pass through unchanged.
	if typed := AsError(err); typed != nil {
		return typed
	}

	var failure *HTTPFailure
	if f, ok := err.(*HTTPFailure); ok {
		failure = f
	}

	if failure != nil {
		switch {
		case isAuthStatus(failure.StatusCode) && isRateLimitMessage(failure.Message):
			return RateLimited(resolveReset(failure.ResetAt, trackedReset, now))
		case isAuthStatus(failure.StatusCode):
			return Wrap(KindAuth, failure, "authentication failed")
		case failure.StatusCode == http.StatusNotFound:
			return Wrap(KindNotFound, failure, "not found")
		case failure.StatusCode == http.StatusTooManyRequests:
			return RateLimited(resolveReset(failure.ResetAt, trackedReset, now))
		}
	}

	// Anything else: preserve the message verbatim when one exists.
	if strings.TrimSpace(err.Error()) == "" {
		return New(KindUnknown, "an unknown error occurred")
	}
	return &Error{kind: KindUnknown, err: errors.WithStack(err)}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// isRateLimitMessage detects GitHub's quota-exhaustion phrasing, e.g.
// "API rate limit exceeded for ..." or secondary-limit variants.
func isRateLimitMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "rate limit")
}

func resolveReset(headerReset, trackedReset int64, now time.Time) int64 {
	if headerReset > 0 {
		return headerReset
	}
	if trackedReset > 0 {
		return trackedReset
	}
	return now.Add(fallbackResetWindow).Unix()
}
