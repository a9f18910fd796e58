package cmd

import (
	"errors"
	"fmt"

	"marketsky/bluesky"
)

// describeError names the failure category and whether a retry is safe, so
// operators know what to do without reading a stack trace.
func describeError(err error) string {
	var authErr *bluesky.AuthenticationError
	var expiredErr *bluesky.AuthExpiredError
	var rateErr *bluesky.RateLimitedError
	var providerErr *bluesky.ProviderError
	var transportErr *bluesky.TransportError

	switch {
	case errors.As(err, &authErr):
		return fmt.Sprintf("%v (check credentials; retrying will not help)", err)
	case errors.As(err, &expiredErr):
		return fmt.Sprintf("%v (session could not be refreshed; safe to retry)", err)
	case errors.As(err, &rateErr):
		return fmt.Sprintf("%v (provider backpressure; retry after the hinted delay)", err)
	case errors.As(err, &providerErr):
		return fmt.Sprintf("%v (unexpected provider response; inspect before retrying)", err)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("%v (network failure; safe to retry with backoff)", err)
	default:
		return err.Error()
	}
}
