package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// RetryConfig bounds the retry behavior for idempotent reads.
// Order placement must never go through WithRetry: a blind retry of a
// lost-response placement could double-execute.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig is shared by the read-only provider operations.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// WithRetry runs fn with exponential backoff until it succeeds, the retry
// budget is exhausted, or ctx is cancelled.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = config.InitialInterval
	bo.MaxInterval = config.MaxInterval

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		observability.Warn("retrying operation",
			"attempt", attempt,
			"max_retries", config.MaxRetries,
			"next_backoff", next.String(),
			"error", err)
	}

	return backoff.RetryNotify(fn,
		backoff.WithContext(backoff.WithMaxRetries(bo, config.MaxRetries), ctx),
		notify)
}
