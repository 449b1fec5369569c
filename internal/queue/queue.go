// Package queue bounds concurrent calls to the upstream estimator and
// absorbs transient failures. Dispatch requires both a free concurrency
// slot and the minimum inter-dispatch delay; retryable failures are
// rescheduled with exponential backoff.
package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/polyedge/polyedge/internal/metrics"
	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
	"github.com/polyedge/polyedge/models"
)

// ErrRateLimited marks an explicit rate-limit signal from the upstream
// provider. Wrap it so the queue counts the hit and backs off.
var ErrRateLimited = errors.New("upstream rate limited")

// Operation is one unit of work submitted to the queue.
type Operation func(ctx context.Context) (string, error)

// Options configures a Queue.
type Options struct {
	MaxConcurrent int           // hard ceiling on in-flight operations
	Delay         time.Duration // minimum spacing between dispatches
	MaxRetries    int           // retry budget per operation
	RetryBase     time.Duration // exponential backoff seed
	MaxBackoff    time.Duration // backoff cap
}

// Queue is a FIFO, delay-throttled, retrying executor.
type Queue struct {
	opts  Options
	slots chan struct{}
	pace  *rate.Limiter

	mu            sync.Mutex
	queued        int
	running       int
	rateLimitHits int64

	logger zerolog.Logger
}

// New creates a Queue. Zero-value options get conservative defaults.
func New(opts Options) *Queue {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 2 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}

	return &Queue{
		opts:   opts,
		slots:  make(chan struct{}, opts.MaxConcurrent),
		pace:   rate.NewLimiter(rate.Every(opts.Delay), 1),
		logger: log.With().Str("component", "request_queue").Logger(),
	}
}

// Do runs op through the queue and returns its result. Retryable
// failures (explicit rate limit, 5xx, timeouts, connection errors) are
// retried with RetryBase*2^(attempt-1) backoff up to MaxRetries;
// non-retryable failures return immediately.
func (q *Queue) Do(ctx context.Context, key string, op Operation) (string, error) {
	q.track(func() { q.queued++ })

	select {
	case q.slots <- struct{}{}:
	case <-ctx.Done():
		q.track(func() { q.queued-- })
		return "", ctx.Err()
	}

	if err := q.pace.Wait(ctx); err != nil {
		<-q.slots
		q.track(func() { q.queued-- })
		return "", err
	}

	q.track(func() { q.queued--; q.running++ })
	defer func() {
		<-q.slots
		q.track(func() { q.running-- })
	}()

	var lastErr error
	for attempt := 1; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if isRateLimit(err) {
			q.track(func() { q.rateLimitHits++ })
			metrics.Observer.QueueRateLimitHit()
		}

		if !retryable(err) || attempt > q.opts.MaxRetries {
			break
		}

		delay := q.backoffDelay(attempt)
		q.logger.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying queued operation")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("operation %q failed: %w", key, lastErr)
}

// Stats returns a snapshot of the queue's counters.
func (q *Queue) Stats() models.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return models.QueueStats{
		Queued:        q.queued,
		Running:       q.running,
		RateLimitHits: q.rateLimitHits,
	}
}

func (q *Queue) backoffDelay(attempt int) time.Duration {
	d := q.opts.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= q.opts.MaxBackoff {
			return q.opts.MaxBackoff
		}
	}
	if d > q.opts.MaxBackoff {
		return q.opts.MaxBackoff
	}
	return d
}

func (q *Queue) track(update func()) {
	q.mu.Lock()
	update()
	queued, running := q.queued, q.running
	q.mu.Unlock()
	metrics.Observer.QueueState(queued, running)
}

func isRateLimit(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var statusErr *platformhttp.HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.IsRateLimit()
}

func retryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var statusErr *platformhttp.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
