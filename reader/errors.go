package reader

import (
	"errors"
	"fmt"
	"net/http"
)

// Typed failures of the paper service. Callers branch on these with
// errors.Is; everything else is a transport-level error.
var (
	// ErrInvalidArgument marks a request rejected before it was sent.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means the service could not resolve the paper identifier.
	ErrNotFound = errors.New("paper not found")

	// ErrRateLimited is an HTTP 429 from the service. Requests are not
	// retried automatically; the caller decides whether to back off.
	ErrRateLimited = errors.New("paper service rate limit exceeded")

	// ErrUnauthorized means the token is missing, expired or invalid.
	ErrUnauthorized = errors.New("paper service authorization failed")
)

func statusError(code int, body string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("paper service returned HTTP %d: %s", code, truncate(body, 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
