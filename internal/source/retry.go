package source

import (
	"context"
	"errors"
	"log"
	"time"
)

// RetryConfig bounds the backoff loop: attempts are capped, waits start at
// InitialWait and double up to MaxWait.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     15 * time.Second,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetry()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialWait <= 0 {
		c.InitialWait = d.InitialWait
	}
	if c.MaxWait <= 0 {
		c.MaxWait = d.MaxWait
	}
	return c
}

// WithRetry runs fn, retrying only *Error values whose class is on the
// transient allow-list. Non-retryable errors propagate unchanged; when
// attempts run out the last error is returned with Exhausted set so callers
// can tell "gave up" apart from "not worth retrying".
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op string, fn func(context.Context) (T, error)) (T, error) {
	cfg = cfg.normalized()

	var zero T
	wait := cfg.InitialWait

	for attempt := 1; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		var srcErr *Error
		if !errors.As(err, &srcErr) || !srcErr.Retryable() {
			return zero, err
		}

		if attempt >= cfg.MaxAttempts {
			srcErr.Exhausted = true
			return zero, srcErr
		}

		log.Printf("[retry] %s: attempt %d/%d failed (%s), waiting %s",
			op, attempt, cfg.MaxAttempts, srcErr.Class, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		wait *= 2
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}
}
