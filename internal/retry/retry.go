// Package retry provides a generic exponential-backoff retrier for calls to
// upstream services. The caller decides which errors are worth retrying via
// the Retryable predicate; the retrier itself never classifies errors and
// never wraps them, so the final error reaching the caller is always the one
// produced by the wrapped operation (or the context error if the delay was
// cancelled).
package retry

import (
	"context"
	"math"
	"time"
)

// Default policy values used when an Options field is left at its zero value.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2.0
)

// Options configures a retry sequence. The zero value is usable: every field
// falls back to the Default* constants and all errors are considered
// retryable.
type Options struct {
	// MaxAttempts is the total number of invocations, including the first
	// one. Values below 1 are treated as 1.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the exponential growth. The cap is applied with a
	// minimum, so large attempt counts cannot overflow the delay.
	MaxDelay time.Duration
	// Multiplier is the geometric growth factor. Values not greater than 1
	// fall back to DefaultMultiplier.
	Multiplier float64
	// Retryable reports whether an error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(error) bool
	// OnRetry is invoked exactly once per retried failure, before the
	// backoff delay, with the 1-based attempt number and the error that
	// caused the retry. It is never invoked for the final failure or on
	// success.
	OnRetry func(attempt int, err error)
}

// withDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) withDefaults() Options {
	if o.MaxAttempts < 1 {
		if o.MaxAttempts == 0 {
			o.MaxAttempts = DefaultMaxAttempts
		} else {
			o.MaxAttempts = 1
		}
	}
	if o.InitialDelay < 0 {
		o.InitialDelay = 0
	} else if o.InitialDelay == 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.MaxDelay < o.InitialDelay {
		if o.MaxDelay == 0 {
			o.MaxDelay = DefaultMaxDelay
		}
		if o.MaxDelay < o.InitialDelay {
			o.MaxDelay = o.InitialDelay
		}
	}
	if o.Multiplier <= 1 {
		o.Multiplier = DefaultMultiplier
	}
	return o
}

// delay returns the backoff delay to apply after the given 1-based attempt
// failed: min(InitialDelay * Multiplier^(attempt-1), MaxDelay).
func (o Options) delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(o.InitialDelay) * math.Pow(o.Multiplier, float64(attempt-1))
	if math.IsNaN(d) || d < 0 || d >= float64(o.MaxDelay) {
		return o.MaxDelay
	}
	return time.Duration(d)
}

// Do invokes op until it succeeds, the error is not retryable, the attempts
// are exhausted, or ctx is cancelled. On success the result is returned
// immediately with no further delay. On a retryable failure the retrier waits
// the exponential backoff delay before the next attempt; the wait respects
// context cancellation, so an abandoned caller never leaves a sleeping
// goroutine behind for longer than it takes to observe ctx.Done().
//
// Do does not impose a timeout on individual attempts. If bounding attempt
// duration is needed the operation must carry its own deadline.
func Do[T any](ctx context.Context, op func() (T, error), opts Options) (T, error) {
	var zero T
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
		if err := sleep(ctx, opts.delay(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// sleep waits for d unless ctx is cancelled first, in which case it returns
// the context error. Zero and negative durations return immediately.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
