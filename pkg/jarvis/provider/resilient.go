// Package provider – resilient.go wraps a Provider with bounded retries and
// exponential back-off for transient failures. Permanent errors (4xx other
// than 429, parse failures) pass through on the first attempt.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// Resilient retries the wrapped provider on transient failures. Each retry is
// a full new request with the same body; no partial state survives between
// attempts.
type Resilient struct {
	inner    Provider
	attempts int
	backoff  time.Duration
	logger   *slog.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewResilient wraps a provider with retry. attempts is the total number of
// tries (clamped to at least 1); backoff is the sleep before the first retry
// and doubles on each subsequent one.
func NewResilient(inner Provider, attempts int, backoff time.Duration, logger *slog.Logger) *Resilient {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Resilient{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger.With("component", "provider", "provider", inner.Name()),
		sleep:    sleepCtx,
	}
}

func (r *Resilient) Name() string { return r.inner.Name() }

func (r *Resilient) ChatWithSystem(ctx context.Context, systemPrompt, message, model string, temperature float64) (string, error) {
	var text string
	err := r.retry(ctx, func() error {
		var err error
		text, err = r.inner.ChatWithSystem(ctx, systemPrompt, message, model, temperature)
		return err
	})
	return text, err
}

func (r *Resilient) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, model string, temperature float64) (*ChatResponse, error) {
	var resp *ChatResponse
	err := r.retry(ctx, func() error {
		var err error
		resp, err = r.inner.ChatWithTools(ctx, messages, tools, model, temperature)
		return err
	})
	return resp, err
}

func (r *Resilient) Warmup(ctx context.Context) error {
	return r.inner.Warmup(ctx)
}

func (r *Resilient) retry(ctx context.Context, op func() error) error {
	wait := r.backoff
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == r.attempts {
			return lastErr
		}

		r.logger.Warn("provider call failed, retrying",
			"attempt", attempt,
			"max_attempts", r.attempts,
			"backoff", wait.String(),
			"error", lastErr,
		)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
		wait *= 2
	}
	return lastErr
}

// isRetryable classifies an error as transient: 5xx and 429 responses,
// timeouts, and connection-level failures. Context cancellation is never
// retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
