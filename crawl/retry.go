package crawl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fwojciec/illustdl"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// Retry policy defaults.
const (
	DefaultMaxAttempts      = 6
	DefaultInitialInterval  = 500 * time.Millisecond
	DefaultMaxInterval      = 30 * time.Second
	DefaultMultiplier       = 2.0
	DefaultBreakerThreshold = 5
)

// RetryPolicy bounds the retries of one operation. Delays grow exponentially
// from InitialInterval up to MaxInterval, with jitter.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy returns the default policy: 6 attempts, 500ms initial
// delay doubling up to 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	maxInterval := p.MaxInterval
	if maxInterval < p.InitialInterval {
		maxInterval = p.InitialInterval
	}
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMultiplier(multiplier),
		backoff.WithMaxElapsedTime(0),
	)

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Breaker counts consecutive operations that failed after exhausting their
// retries. Once the count reaches the threshold the breaker opens and
// rejects every operation with EUNAVAILABLE. It is safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
}

// NewBreaker creates a Breaker that opens after threshold consecutive
// failures. A threshold below 1 disables the breaker.
func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// Allow returns EUNAVAILABLE if the breaker is open.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open() {
		return illustdl.Errorf(illustdl.EUNAVAILABLE, "circuit open after %d consecutive failed operations", b.failures)
	}
	return nil
}

// Success resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Failure records a failed operation and reports whether the breaker is
// now open.
func (b *Breaker) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	return b.open()
}

// Open reports whether the breaker rejects operations.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open()
}

func (b *Breaker) open() bool {
	return b.threshold > 0 && b.failures >= b.threshold
}

// Retrier runs operations under a RetryPolicy and an optional Breaker.
//
// Errors for which Retryable returns false end the operation immediately and
// count as a response from the remote side, which resets the breaker. An
// operation that still fails after its last attempt counts as a breaker
// failure; when that opens the breaker the error is reported as
// EUNAVAILABLE.
type Retrier struct {
	Policy  RetryPolicy
	Breaker *Breaker

	// Retryable classifies errors. Nil retries every error.
	Retryable func(error) bool

	Logger *slog.Logger
}

// Do runs op until it succeeds, fails permanently, exhausts the policy or
// ctx is done.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if r.Breaker != nil {
		if err := r.Breaker.Allow(); err != nil {
			return err
		}
	}

	var (
		attempt   int
		permanent bool
	)
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if r.Retryable != nil && !r.Retryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if r.Logger != nil {
			r.Logger.Warn("retrying", "attempt", attempt+1, "delay", delay, "error", err)
		}
	}

	err := backoff.RetryNotify(operation, r.Policy.backOff(ctx), notify)
	switch {
	case err == nil:
		if r.Breaker != nil {
			r.Breaker.Success()
		}
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case permanent:
		if r.Breaker != nil {
			r.Breaker.Success()
		}
		return err
	}

	if r.Breaker != nil && r.Breaker.Failure() {
		return illustdl.Errorf(illustdl.EUNAVAILABLE, "giving up after %d attempts, circuit open: %v", attempt, err)
	}
	return err
}

// Fetch runs fetch for url under Do and returns its result.
func (r *Retrier) Fetch(ctx context.Context, url string, fetch FetchFunc) (string, error) {
	var html string
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		html, err = fetch(ctx, url)
		return err
	})
	return html, err
}
