package pipeline

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
)

// callWithRetry invokes fn up to attempts times, backing off with jitter
// between tries. Only failures the classifier marks retryable are
// retried; the pipeline enforces no timeout of its own and relies on the
// provider client's deadline.
func callWithRetry[T any](ctx context.Context, attempts int, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !Classify(err).Retryable {
			return zero, lastErr
		}
		if attempt >= attempts-1 {
			break
		}

		zap.L().Warn("pipeline: transient provider failure, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func backoff(attempt int) time.Duration {
	delay := float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	jitter := (rand.Float64()*2 - 1) * delay * jitterFraction
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
