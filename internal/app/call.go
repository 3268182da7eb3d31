package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCallPanicked wraps a panic raised by a collaborator.
var ErrCallPanicked = errors.New("collaborator panicked")

const defaultCallTimeout = 5 * time.Second

// callWithTimeout runs fn with a deadline and returns once the deadline passes
// even when fn ignores its context. A panic inside fn is returned as an error.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrCallPanicked, rec)}
			}
		}()

		v, err := fn(callCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}
