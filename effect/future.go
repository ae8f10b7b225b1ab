package effect

import (
	"context"
)

// Future adapts callback-style asynchronous work into an effect that
// emits at most one value. work is started on its own goroutine when
// the effect runs and settles the effect through resolve: a nil error
// emits the value and completes, a non-nil error fails. Only the first
// resolve call counts; later calls are ignored. If ctx is done before
// work resolves, the effect fails with ctx.Err().
func Future[T any](work func(ctx context.Context, resolve func(T, error))) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T], 1)
		settled := make(chan Step[T], 1)
		go func() {
			defer close(out)
			go work(ctx, func(v T, err error) {
				st := Step[T]{Value: v}
				if err != nil {
					st = Step[T]{Err: err}
				}
				select {
				case settled <- st:
				default:
				}
			})
			select {
			case st := <-settled:
				out <- st
			case <-ctx.Done():
				out <- Step[T]{Err: ctx.Err()}
			}
		}()
		return out
	})
}

// FireAndForget runs fn for its side effects only. The effect emits no
// values and completes once fn returns. fn receives the run context
// and should honor its cancellation.
func FireAndForget[T any](fn func(ctx context.Context)) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		out := make(chan Step[T])
		go func() {
			defer close(out)
			fn(ctx)
		}()
		return out
	})
}

// Defer builds the effect lazily: factory is invoked at Run time, once
// per run, so each execution observes state as of its own start.
func Defer[T any](factory func() Effect[T]) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		return factory().Run(ctx)
	})
}
