// Package startup retries dependency start-up with Fibonacci backoff.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is something a command needs before it can run, such as the
// database connection.
type Dependency[T any] func(ctx context.Context) (T, error)

type Retrier struct {
	logger      ectologger.Logger
	maxAttempts int
	unit        time.Duration
}

// NewRetrier waits unit, unit, 2*unit, 3*unit, 5*unit ... between attempts.
func NewRetrier(logger ectologger.Logger, maxAttempts int, unit time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{logger: logger, maxAttempts: maxAttempts, unit: unit}
}

// Start runs start until it succeeds, attempts run out, or ctx is done.
func Start[T any](ctx context.Context, r *Retrier, name string, start Dependency[T]) (T, error) {
	var (
		zero    T
		lastErr error
	)

	a, b := 1, 1
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		log := r.logger.WithContext(ctx).WithFields(map[string]any{
			"dependency": name,
			"attempt":    attempt,
		})
		log.Infof("Starting dependency '%s'", name)

		value, err := start(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		log.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)

		if attempt == r.maxAttempts {
			break
		}

		wait := time.Duration(a) * r.unit
		log.Infof("Retrying in %s (attempt %d/%d)", wait, attempt, r.maxAttempts)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		a, b = b, a+b
	}

	return zero, fmt.Errorf("dependency '%s' failed after %d attempts: %w", name, r.maxAttempts, lastErr)
}
