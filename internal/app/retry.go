package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryPolicy bounds how often a failing step is attempted. Attempts of 1
// means the step runs once and its error is final.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// newLimiter returns a limiter that lets one call through per backoff. The
// initial token is already spent, so the first Wait also observes the
// backoff measured from now.
func (p RetryPolicy) newLimiter() *rate.Limiter {
	if p.Backoff <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(p.Backoff), 1)
	l.Allow()
	return l
}

// do runs fn until it succeeds or the attempts are used up, waiting on
// limiter before every attempt. It returns the number of attempts made.
func (p RetryPolicy) do(ctx context.Context, limiter *rate.Limiter, step string, fn func(ctx context.Context) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if werr := limiter.Wait(ctx); werr != nil {
			if err == nil {
				err = werr
			}
			return i - 1, err
		}

		err = fn(ctx)
		if err == nil {
			return i, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return i, err
		}
		if i < attempts {
			zap.L().Warn("step failed, retrying",
				zap.String("step", step),
				zap.Int("attempt", i),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
		}
	}
	return attempts, err
}
