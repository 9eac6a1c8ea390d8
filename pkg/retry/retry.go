// Package retry runs operations with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config controls the backoff schedule. Delays start at InitialDelay and are
// multiplied by Factor after every failed attempt, never exceeding MaxDelay.
type Config struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64

	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig mirrors the connection retry used at startup.
func DefaultConfig() Config {
	return Config{
		Attempts:     3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Factor:       2,
	}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, the context is
// cancelled, or cfg.Attempts is exhausted. The last failure is returned.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	cfg = normalize(cfg)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialDelay
	exp.MaxInterval = cfg.MaxDelay
	exp.Multiplier = cfg.Factor
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(cfg.Attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		err := op(ctx)
		if err != nil && errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
	}

	return backoff.RetryNotify(operation, b, notify)
}

// DoWithTimeout bounds every attempt by timeout. An attempt that runs out of
// its own time is retried; a cancelled parent context is not.
func DoWithTimeout(ctx context.Context, timeout time.Duration, cfg Config, op func(ctx context.Context) error) error {
	return Do(ctx, cfg, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return op(attemptCtx)
	})
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.Factor < 1 {
		cfg.Factor = def.Factor
	}
	return cfg
}
