package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ProviderError is returned for every failed completion. RateLimited is set
// when the upstream refused the call for quota or rate reasons, so callers
// can back off instead of failing hard.
type ProviderError struct {
	Provider    string
	StatusCode  int
	RateLimited bool
	Timeout     bool
	Err         error
}

func (e *ProviderError) Error() string {
	switch {
	case e.RateLimited:
		return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
	case e.Timeout:
		return fmt.Sprintf("%s: timed out: %v", e.Provider, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a rate-limited ProviderError.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.RateLimited
}

func newProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		StatusCode:  status,
		RateLimited: status == http.StatusTooManyRequests,
		Timeout:     errors.Is(err, context.DeadlineExceeded),
		Err:         err,
	}
}
