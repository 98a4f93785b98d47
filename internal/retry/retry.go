// Package retry wraps github.com/cenkalti/backoff/v4 behind the teacher's
// WithRetry(ctx, func() error) error call shape, so call sites look
// unchanged while the backoff/jitter internals come from a real dependency
// instead of the teacher's hand-rolled math (spec §2 ambient error
// handling).
package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxRetries and RetryBaseWait match the teacher's constants so behavior
// (and test expectations carried over from it) are unchanged.
const (
	MaxRetries    = 3
	RetryBaseWait = 1 * time.Second
)

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

// APIError is implemented by errors that carry an HTTP status code, used
// to decide whether a failure is worth retrying.
type APIError interface {
	error
	StatusCode() int
}

// ShouldRetry reports whether statusCode warrants a retry.
func ShouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// WithRetry executes f, retrying with exponential backoff and jitter up to
// MaxRetries attempts. An APIError whose status code is not retryable
// short-circuits immediately.
func WithRetry(ctx context.Context, f RetryableFunc) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = RetryBaseWait
	policy.MaxElapsedTime = 0 // bounded by WithMaxRetries below, not wall clock
	bo := backoff.WithContext(backoff.WithMaxRetries(policy, MaxRetries-1), ctx)

	var lastErr error
	operation := func() error {
		err := f()
		if err == nil {
			return nil
		}
		lastErr = err
		if apiErr, ok := err.(APIError); ok && !ShouldRetry(apiErr.StatusCode()) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, bo); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
