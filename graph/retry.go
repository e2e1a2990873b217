package graph

import (
	"context"
	"time"
)

// RetryPolicy defines how to handle node failures
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int

	BackoffStrategy BackoffStrategy

	// BaseDelay is the delay unit of the backoff strategy; defaults to one second.
	BaseDelay time.Duration

	// Retryable reports whether an error should be retried. Nil retries nothing.
	Retryable func(error) bool
}

// BackoffStrategy defines different backoff strategies
type BackoffStrategy int

const (
	// FixedBackoff waits BaseDelay between attempts
	FixedBackoff BackoffStrategy = iota
	// ExponentialBackoff doubles the delay on every attempt
	ExponentialBackoff
	// LinearBackoff grows the delay by BaseDelay on every attempt
	LinearBackoff
)

func (p *RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return base * time.Duration(1<<attempt)
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	default:
		return base
	}
}

func (r *StateRunnable[S]) executeNodeWithRetry(ctx context.Context, node Node[S], state S) (S, error) {
	policy := r.graph.retryPolicy

	attempts := 1
	if policy != nil && policy.MaxRetries > 0 {
		attempts += policy.MaxRetries
	}

	var zero S
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := node.Function(ctx, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts-1 || policy.Retryable == nil || !policy.Retryable(err) {
			break
		}

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
