package llm

import (
	"context"
	"time"

	"gopkg.in/cenkalti/backoff.v1"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/observability"
)

const (
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// Retry runs op until it succeeds, fails with a non-retryable error, or
// MaxAttempts is reached. Only transport errors classified as quota or
// upstream are retried. The client itself never retries; this is the
// caller-side policy used by batch runs.
func Retry(ctx context.Context, cfg RetryConfig, logger *observability.Logger, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.InitialBackoff
	expBackoff.MaxInterval = cfg.MaxBackoff
	expBackoff.MaxElapsedTime = 0 // bounded by attempts instead

	var (
		attempt int
		lastErr error
	)
	operation := func() error {
		attempt++
		lastErr = op(ctx)
		if lastErr == nil || !domain.Retryable(lastErr) || attempt >= cfg.MaxAttempts || ctx.Err() != nil {
			return nil
		}
		return lastErr
	}
	notify := func(err error, wait time.Duration) {
		logger.WithContext(ctx).Warn().
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("backoff", wait).
			Err(err).
			Msg("Request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(expBackoff, ctx), notify); err != nil && lastErr == nil {
		return err
	}
	return lastErr
}
