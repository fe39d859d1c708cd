// Package retry runs external calls with a per-attempt timeout and a bounded
// number of retries on transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Policy bounds one external call.
type Policy struct {
	// Attempts is the total number of tries, including the first. Zero means 2.
	Attempts int
	// Timeout applies to each attempt. Zero means no extra deadline.
	Timeout time.Duration
	// Delay is the pause before a retry.
	Delay time.Duration
	// OnRetry, if set, is called before each retry with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// Transient is the default classifier: provider-marked transient errors and
// per-attempt deadlines.
func Transient(err error) bool {
	return errors.Is(err, domain.ErrProviderTransient) || errors.Is(err, context.DeadlineExceeded)
}

// Do runs op under p, retrying while classify accepts the error and the
// parent context is still alive.
func Do[T any](ctx context.Context, p Policy, classify Classifier, op func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 2
	}
	if classify == nil {
		classify = Transient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := runAttempt(ctx, p.Timeout, op)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// родительский контекст отменён: клиент ушёл, повтор бессмысленен
		if ctx.Err() != nil {
			return zero, fmt.Errorf("attempt %d: %w", attempt, errors.Join(err, ctx.Err()))
		}
		if attempt == attempts || !classify(err) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry wait: %w", ctx.Err())
			case <-time.After(p.Delay):
			}
		}
	}
	return zero, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}
