// Package retryx implements retry as an explicit higher-order operation
// rather than an implicit decorator, per the REDESIGN FLAGS: "model as a
// higher-order operation retry(policy, fn) that composes with the rate
// limiter; keep the policy... as explicit configuration, not implicit."
package retryx

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/aristath/quantport/internal/domain"
)

// Policy is explicit retry configuration: exponential backoff with
// jitter, bounded attempts. Matches spec.md §4.1's retry policy (base 1s,
// factor 2, jitter ±20%, max 5 attempts).
type Policy struct {
	BaseDelay   time.Duration
	Factor      float64
	JitterFrac  float64 // e.g. 0.2 for ±20%
	MaxAttempts int
}

// DefaultPolicy matches spec.md §4.1's defaults.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:   1 * time.Second,
		Factor:      2.0,
		JitterFrac:  0.2,
		MaxAttempts: 5,
	}
}

// WithMaxAttempts returns a copy of p with MaxAttempts overridden —
// used to thread config.EngineConfig.MaxRetries through without a
// separate constructor per call site.
func (p Policy) WithMaxAttempts(n int) Policy {
	p.MaxAttempts = n
	return p
}

// delay computes the backoff delay for the given zero-based attempt
// index, with uniform jitter in [-JitterFrac, +JitterFrac].
func (p Policy) delay(attempt int) time.Duration {
	base := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt))
	jitter := 1.0 + p.JitterFrac*(2*rand.Float64()-1)
	return time.Duration(base * jitter)
}

// IsTransient classifies an error as retryable. Only ErrSourceUnavailable
// (and anything wrapping it) is transient per spec.md §7 — NotFound,
// DataIntegrity, and TemporalViolation are never retried.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrSourceUnavailable)
}

// Do runs fn, retrying per policy while isTransient(err) is true and the
// attempt budget remains. It respects ctx cancellation between attempts.
// On final exhaustion it returns the last error, unwrapped.
func Do(ctx context.Context, policy Policy, isTransient func(error) bool, fn func() error) error {
	if isTransient == nil {
		isTransient = IsTransient
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.delay(attempt - 1)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}
	}
	return lastErr
}
