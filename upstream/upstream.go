// Package upstream guards calls to external capabilities (LLM, web search,
// vector store) with a per-call timeout and classifies their failures.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrUpstreamTimeout is returned when an external call does not finish in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamUnavailable is returned when an external call fails outright.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error records which capability failed and the underlying cause.
type Error struct {
	Capability string
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Capability, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Capability, e.Kind, e.Err)
}

// Is matches the kind sentinel so callers can use errors.Is(err, ErrUpstreamTimeout).
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Call runs fn under a context bounded by timeout. A zero timeout only
// inherits the parent deadline. Errors that are already classified pass
// through unchanged.
func Call[T any](ctx context.Context, capability string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := fn(callCtx)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			return zero, classify(ctx, capability, res.err)
		}
		return res.value, nil
	case <-callCtx.Done():
		return zero, classify(ctx, capability, callCtx.Err())
	}
}

// Do is Call for functions without a result value.
func Do(ctx context.Context, capability string, timeout time.Duration, fn func(context.Context) error) error {
	_, err := Call(ctx, capability, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func classify(parent context.Context, capability string, err error) error {
	var ue *Error
	if errors.As(err, &ue) {
		return err
	}
	// Caller cancellation is not an upstream failure.
	if parent.Err() != nil && errors.Is(err, parent.Err()) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Capability: capability, Kind: ErrUpstreamTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Capability: capability, Kind: ErrUpstreamTimeout, Err: err}
	}
	return &Error{Capability: capability, Kind: ErrUpstreamUnavailable, Err: err}
}

// Unavailable wraps err as an ErrUpstreamUnavailable failure of capability.
func Unavailable(capability string, err error) error {
	return &Error{Capability: capability, Kind: ErrUpstreamUnavailable, Err: err}
}

// IsRetryable reports whether err is a transient upstream failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamUnavailable)
}
