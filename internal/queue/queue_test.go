package queue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
)

func TestDoSuccess(t *testing.T) {
	q := New(Options{MaxConcurrent: 1, Delay: time.Millisecond, RetryBase: time.Millisecond})

	out, err := q.Do(context.Background(), "task", func(ctx context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", out)

	stats := q.Stats()
	assert.Equal(t, 0, stats.Queued)
	assert.Equal(t, 0, stats.Running)
}

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	base := 10 * time.Millisecond
	q := New(Options{MaxConcurrent: 1, Delay: time.Millisecond, MaxRetries: 3, RetryBase: base})

	var calls int32
	start := time.Now()
	out, err := q.Do(context.Background(), "task", func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			return "", fmt.Errorf("scoring: %w", ErrRateLimited)
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, int64(2), q.Stats().RateLimitHits)
	// Backoff schedule: base*1 after first failure, base*2 after second.
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestDoNonRetryableFailsImmediately(t *testing.T) {
	q := New(Options{MaxConcurrent: 1, Delay: time.Millisecond, MaxRetries: 3, RetryBase: time.Millisecond})

	var calls int32
	_, err := q.Do(context.Background(), "task", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, int64(0), q.Stats().RateLimitHits)
}

func TestDoRetriesExhausted(t *testing.T) {
	q := New(Options{MaxConcurrent: 1, Delay: time.Millisecond, MaxRetries: 2, RetryBase: time.Millisecond})

	var calls int32
	_, err := q.Do(context.Background(), "task", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", &platformhttp.HTTPStatusError{StatusCode: http.StatusBadGateway}
	})
	require.Error(t, err)

	var statusErr *platformhttp.HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls)
}

func TestDoConcurrencyCeiling(t *testing.T) {
	q := New(Options{MaxConcurrent: 2, Delay: time.Millisecond, RetryBase: time.Millisecond})

	var running, maxRunning int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Do(context.Background(), "task", func(ctx context.Context) (string, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return "ok", nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxRunning), int32(2))
}

func TestDoContextCancelledWhileQueued(t *testing.T) {
	q := New(Options{MaxConcurrent: 1, Delay: time.Millisecond, RetryBase: time.Millisecond})

	release := make(chan struct{})
	go q.Do(context.Background(), "blocker", func(ctx context.Context) (string, error) {
		<-release
		return "ok", nil
	})
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Do(ctx, "cancelled", func(ctx context.Context) (string, error) {
		return "never", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limit sentinel", ErrRateLimited, true},
		{"wrapped rate limit", fmt.Errorf("call: %w", ErrRateLimited), true},
		{"http 429", &platformhttp.HTTPStatusError{StatusCode: 429}, true},
		{"http 503", &platformhttp.HTTPStatusError{StatusCode: 503}, true},
		{"http 400", &platformhttp.HTTPStatusError{StatusCode: 400}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.retryable {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
