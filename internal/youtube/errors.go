package youtube

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so the fetcher can decide between
// retrying, dropping, or halting the cycle.
type ErrorKind int

const (
	// ErrUnknown covers anything that does not match a known signal; the
	// batch is dropped for the cycle.
	ErrUnknown ErrorKind = iota
	// ErrQuotaExceeded means the daily unit budget is spent; no further
	// requests this cycle.
	ErrQuotaExceeded
	// ErrRateLimited is transient; retry with backoff.
	ErrRateLimited
	// ErrServer is a provider 5xx; retry with backoff.
	ErrServer
	// ErrNotFound covers invalid or deleted identifiers; dropped, never
	// retried.
	ErrNotFound
)

// APIError is a classified provider failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api http %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api http %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the fetcher should retry the same batch.
func (e *APIError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrServer
}

// ClassifyError extracts the APIError from err, if any.
func ClassifyError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// classify maps an HTTP status and error reason from the provider's error
// body onto an ErrorKind.
func classify(status int, reason string) ErrorKind {
	switch reason {
	case "quotaExceeded", "dailyLimitExceeded":
		return ErrQuotaExceeded
	case "rateLimitExceeded", "userRateLimitExceeded":
		return ErrRateLimited
	}
	switch {
	case status == 403:
		// 403 without a quota/rate reason is permanent (bad key, access).
		return ErrUnknown
	case status == 404 || status == 400:
		return ErrNotFound
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	}
	return ErrUnknown
}
