package bluesky

import (
	"fmt"
	"time"
)

// AuthenticationError means the provider rejected the credentials or the
// session response was missing its token. Not transient, never retried.
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authentication failed (status %d)", e.Status)
}

// AuthExpiredError means the provider no longer accepts the current access
// token. The client recovers internally with one re-authentication and one
// retried fetch; callers only see this error when the retry also failed.
type AuthExpiredError struct {
	Status int
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("session expired (status %d)", e.Status)
}

// RateLimitedError carries the provider's Retry-After hint on a 429
// response. RetryAfter is zero when the provider sent no usable hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// ProviderError is any other non-2xx response. Body is kept for
// diagnostics.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// TransportError is a network-level failure (DNS, timeout, reset). Wraps
// the underlying error so callers can still inspect it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
