package future

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrAlreadyAwaited is returned when a future's result is consumed twice.
var ErrAlreadyAwaited = errors.New("future: result already consumed")

type outcome[T any] struct {
	value T
	err   error
}

// Future is a single-consumption handle to an asynchronous operation.
// It is backed by a one-element channel; the producing goroutine sends
// exactly one outcome and exits.
type Future[T any] struct {
	ch       chan outcome[T]
	consumed atomic.Bool
}

// Go starts fn on its own goroutine and returns a handle to its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan outcome[T], 1)}
	go func() {
		v, err := fn()
		f.ch <- outcome[T]{value: v, err: err}
	}()
	return f
}

// Resolved returns a future that already completed with v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{ch: make(chan outcome[T], 1)}
	f.ch <- outcome[T]{value: v}
	return f
}

// Failed returns a future that already completed with err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{ch: make(chan outcome[T], 1)}
	f.ch <- outcome[T]{err: err}
	return f
}

// Await blocks until the operation completes or ctx is done, whichever
// comes first, and returns the operation's result. A future may be
// awaited exactly once; subsequent calls return ErrAlreadyAwaited.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if !f.consumed.CompareAndSwap(false, true) {
		return zero, ErrAlreadyAwaited
	}
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case out := <-f.ch:
		return out.value, out.err
	}
}

// JoinAll awaits each future strictly in input order and returns their
// values positionally aligned with the input. Output order is therefore
// deterministic regardless of real completion order. On the first
// failure it returns that future's error immediately; futures past the
// failing index are left unconsumed.
func JoinAll[T any](ctx context.Context, futures []*Future[T]) ([]T, error) {
	results := make([]T, 0, len(futures))
	for i, f := range futures {
		v, err := f.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("future %d: %w", i, err)
		}
		results = append(results, v)
	}
	return results, nil
}
