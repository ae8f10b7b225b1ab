package effect

import (
	"context"
)

// Step is a single emission on an effect stream. Exactly one of the
// two fields is meaningful: a step with a nil Err carries Value, and a
// step with a non-nil Err is terminal. Producers must close the stream
// right after a terminal step and must not emit anything further.
type Step[T any] struct {
	Value T
	Err   error
}

// Effect is a cold, restartable unit of work that emits zero or more
// values of type T and then terminates. Nothing runs until Run is
// called, and every Run starts an independent execution.
//
// The stream contract: the returned channel yields value steps in
// emission order, then either closes (completion) or yields one step
// with a non-nil Err and closes (failure). Producers must honor ctx
// and shut down promptly once it is done.
type Effect[T any] struct {
	run func(ctx context.Context) <-chan Step[T]
}

// New wraps a producer function into an Effect. The function is
// invoked once per Run and must return a channel that follows the
// stream contract above.
func New[T any](run func(ctx context.Context) <-chan Step[T]) Effect[T] {
	return Effect[T]{run: run}
}

// Run starts one execution of the effect. The zero Effect is valid and
// behaves like None.
func (e Effect[T]) Run(ctx context.Context) <-chan Step[T] {
	if e.run == nil {
		out := make(chan Step[T])
		close(out)
		return out
	}
	return e.run(ctx)
}

// None returns an effect that emits nothing and completes immediately.
func None[T any]() Effect[T] {
	return Effect[T]{}
}

// Just returns an effect that emits the given values in order and then
// completes. The values are available synchronously on the returned
// stream.
func Just[T any](vs ...T) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T], len(vs))
		for _, v := range vs {
			out <- Step[T]{Value: v}
		}
		close(out)
		return out
	})
}

// Fail returns an effect that terminates immediately with err. A nil
// err degenerates to completion without a failure.
func Fail[T any](err error) Effect[T] {
	if err == nil {
		return None[T]()
	}
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T], 1)
		out <- Step[T]{Err: err}
		close(out)
		return out
	})
}
