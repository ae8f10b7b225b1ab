package effect

import (
	"context"

	"github.com/on-the-ground/react_ive_go/effect/internal/relay"
)

// Cancellable makes every run of e interruptible under id, which may
// be any comparable value. While a run is in flight it holds a handle
// in the run context's registry; CancelAll (or the Cancel effect) on
// the same identifier cancels the underlying work, cuts the stream off
// with a terminal context.Canceled step, and removes the handle. A run
// that finishes on its own removes its handle as its last act, so the
// registry never accumulates entries for settled work.
//
// Emission is buffered: values produced before the caller starts
// reading the stream are held back in order and replayed first, so no
// synchronously produced value is lost. When cancelInFlight is true,
// starting a run first cancels everything already registered under id,
// making the new run the only live one.
func (e Effect[T]) Cancellable(id any, cancelInFlight bool) Effect[T] {
	return New(func(ctx context.Context) <-chan Step[T] {
		reg := RegistryFrom(ctx)
		if cancelInFlight {
			reg.CancelAll(id)
		}

		upCtx, cancelUpstream := context.WithCancel(ctx)
		pipe := relay.New[Step[T]](ctx)

		// Registered before the work starts, so a cancellation can
		// never slip into the gap between first emission and
		// registration.
		h := reg.register(id, func() {
			cancelUpstream()
			pipe.Preempt(Step[T]{Err: context.Canceled})
		})

		src := e.Run(upCtx)
		go func() {
			for st := range src {
				pipe.Publish(st)
			}
			pipe.Close()
			h.dispose()
		}()
		return pipe.Source()
	})
}

// Cancel returns an effect that, when run, disposes every in-flight
// cancellable effect registered under the given identifiers and then
// completes without emitting anything. Cancellation of the ids happens
// concurrently and independently; unknown identifiers are ignored.
// Cancel of nothing is None.
func Cancel[T any](ids ...any) Effect[T] {
	switch len(ids) {
	case 0:
		return None[T]()
	case 1:
		id := ids[0]
		return FireAndForget[T](func(ctx context.Context) {
			RegistryFrom(ctx).CancelAll(id)
		})
	default:
		effs := make([]Effect[T], len(ids))
		for i, id := range ids {
			effs[i] = Cancel[T](id)
		}
		return Merge(effs...)
	}
}
