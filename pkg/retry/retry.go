// Package retry provides exponential backoff for calls to rate-limited
// upstream services.
//
// Only rate-limit failures (HTTP 429 semantics) are retried. Every other
// error, and the last rate-limit error once the budget is spent, is returned
// to the caller unchanged.
package retry

import (
	"context"
	stderrors "errors"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
)

// Policy configures the backoff schedule
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero means a single attempt.
	MaxRetries int `mapstructure:"max_retries"`
	// InitialDelay is the wait before the first retry; it doubles after each retry.
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	// MaxDelay caps a single wait. Zero leaves the doubling uncapped.
	MaxDelay time.Duration `mapstructure:"max_delay"`
	// MaxElapsed bounds the total time spent including waits. Zero is unbounded.
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
}

// DefaultPolicy returns three retries starting at two seconds, capped at 30s per wait
// and two minutes overall.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxElapsed:   2 * time.Minute,
	}
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// NotifyFunc is called before each wait with the attempt that failed (1-based)
type NotifyFunc func(attempt int, delay time.Duration, err error)

type options struct {
	sleep     SleepFunc
	notify    NotifyFunc
	now       func() time.Time
	retryable func(error) bool
}

// Option customises a single Do call
type Option func(*options)

// WithSleep replaces the timer-based wait, mostly for tests
func WithSleep(fn SleepFunc) Option {
	return func(o *options) { o.sleep = fn }
}

// WithNotify registers a diagnostic hook invoked before every retry
func WithNotify(fn NotifyFunc) Option {
	return func(o *options) { o.notify = fn }
}

// WithClock replaces time.Now for MaxElapsed accounting
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetryable replaces IsRateLimited as the retry predicate
func WithRetryable(fn func(error) bool) Option {
	return func(o *options) { o.retryable = fn }
}

// Do runs fn, retrying rate-limited failures according to p.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{
		sleep:     Sleep,
		now:       time.Now,
		retryable: IsRateLimited,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	start := o.now()
	delay := p.InitialDelay
	remaining := p.MaxRetries

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if remaining <= 0 || !o.retryable(err) {
			return zero, err
		}

		wait := delay
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}
		if p.MaxElapsed > 0 && o.now().Sub(start)+wait > p.MaxElapsed {
			return zero, err
		}

		if o.notify != nil {
			o.notify(attempt, wait, err)
		}
		if sleepErr := o.sleep(ctx, wait); sleepErr != nil {
			return zero, sleepErr
		}

		delay = grow(delay, p.MaxDelay)
		remaining--
	}
}

// grow doubles d, saturating at limit (when set) or at the largest representable duration
func grow(d, limit time.Duration) time.Duration {
	if d > math.MaxInt64/2 {
		return math.MaxInt64
	}
	next := d * 2
	if limit > 0 && next > limit {
		return limit
	}
	return next
}

// Sleep waits for d, returning early with ctx.Err() if ctx is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type statusCoder interface {
	StatusCode() int
}

// IsRateLimited reports whether err carries a rate-limit signal: an AppError with
// CodeTooManyRequests, any error in the chain exposing StatusCode() == 429, or,
// for transports that only surface text, an error message mentioning 429.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.Is(err, apperrors.CodeTooManyRequests) {
		return true
	}
	var sc statusCoder
	if stderrors.As(err, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "429")
}
