package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"storyforge/internal/logging"
)

// RetryPolicy performs bounded retry with doubling, jittered backoff. The
// zero value retries nothing; MaxAttempts of 1 degenerates to a single call
// with no sleeping.
type RetryPolicy struct {
	Stage       string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	sleeper func(context.Context, time.Duration) error
	jitter  func() float64
	logger  *slog.Logger
}

// NewRetryPolicy builds a policy for a stage. Delays double per attempt from
// base up to max, each scaled by a jitter factor in [0.5, 1.5).
func NewRetryPolicy(stage string, maxAttempts int, baseDelay, maxDelay time.Duration, logger *slog.Logger) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		Stage:       stage,
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		logger:      logging.NewComponentLogger(logger, "retry"),
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func (p RetryPolicy) WithSleeper(sleeper func(context.Context, time.Duration) error) RetryPolicy {
	p.sleeper = sleeper
	return p
}

// WithJitter overrides the jitter source (useful for tests).
func (p RetryPolicy) WithJitter(jitter func() float64) RetryPolicy {
	p.jitter = jitter
	return p
}

// PermanentError marks an error that must not be retried even when attempts
// remain.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryAfterHinter lets an error suggest a minimum delay before the next
// attempt, typically taken from an HTTP Retry-After header. A hint longer
// than the computed backoff wins, uncapped: the server knows its own limits.
type RetryAfterHinter interface {
	RetryAfterHint() (time.Duration, bool)
}

// Do invokes fn up to MaxAttempts times, sleeping between attempts. It stops
// early on success, on context cancellation, or on an error wrapped with
// Permanent. When attempts run out it returns an ExhaustedError carrying the
// final cause.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := p.delay(attempt)
		var hinter RetryAfterHinter
		if errors.As(err, &hinter) {
			if hint, ok := hinter.RetryAfterHint(); ok && hint > delay {
				delay = hint
			}
		}
		if p.logger != nil {
			p.logger.Warn("attempt failed, backing off",
				logging.String(logging.FieldStage, p.Stage),
				logging.String("op", op),
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Duration("delay", delay),
				logging.Error(err))
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &ExhaustedError{Stage: p.Stage, Op: op, Attempts: attempts, Last: lastErr}
}

// delay computes the backoff before the attempt following the given 1-based
// attempt: base for the first retry, doubling each time, capped at max, then
// scaled by jitter.
func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = base
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	jitter := p.jitter
	if jitter == nil {
		jitter = func() float64 { return 0.5 + rand.Float64() }
	}
	return time.Duration(float64(delay) * jitter())
}

func (p RetryPolicy) sleep(ctx context.Context, delay time.Duration) error {
	if p.sleeper != nil {
		return p.sleeper(ctx, delay)
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
