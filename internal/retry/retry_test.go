package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAPIError struct {
	status int
}

func (e fakeAPIError) Error() string  { return "api error" }
func (e fakeAPIError) StatusCode() int { return e.status }

func TestWithRetrySucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetryStopsImmediatelyOnNonRetryableAPIError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fakeAPIError{status: 400}
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetryRetriesRetryableAPIError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return fakeAPIError{status: 429}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fakeAPIError{status: 503}
	})
	require.Error(t, err)
	require.Equal(t, MaxRetries, calls)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error {
		return errors.New("should not matter")
	})
	require.Error(t, err)
}
