// Package effect provides cold, cancellable effect streams for Go.
//
// React-ive Go models side effects as values: an Effect describes work
// that, once run, emits zero or more values over a channel and then
// terminates. Nothing happens until Run is called, every run is
// independent, and cancellation is a first-class, identifier-based
// operation rather than something threaded by hand through each call
// site.
//
// # The stream contract
//
// Running an effect yields a receive-only channel of steps. Each step
// carries either a value or a terminal error:
//   - value steps arrive in emission order,
//   - a step with a non-nil Err ends the stream (failure),
//   - the channel closing without one ends it too (completion),
//   - interruption surfaces as a terminal context.Canceled step.
//
// # Cancellation by identifier
//
// Cancellable attaches an opaque identifier to an effect. While a run
// is in flight it keeps a teardown handle in a Registry; Cancel (or
// Registry.CancelAll) with the same identifier stops the work and cuts
// the stream off. Handles remove themselves when the work settles, so
// the registry only ever reflects live runs. Identifiers compare by
// value: any comparable type will do, and an unexported struct type
// makes an identifier impossible to forge from outside its package.
//
// Registries travel through context. WithRegistry scopes one to a
// subtree of a program; everything else shares the package default.
//
// # Composition
//
// Concat chains effects one after another, Merge interleaves them
// concurrently, and both stop at the first failure. Future adapts
// callback-style asynchronous work, FireAndForget wraps bare side
// effects, and Defer delays construction until run time.
//
// Example:
//
//	type searchID struct{}
//
//	eff := effect.Future(func(ctx context.Context, resolve func([]string, error)) {
//	    hits, err := client.Search(ctx, query)
//	    resolve(hits, err)
//	}).Cancellable(searchID{}, true)
//
//	for st := range eff.Run(ctx) {
//	    if st.Err != nil {
//	        // handle failure or interruption
//	        break
//	    }
//	    consume(st.Value)
//	}
package effect
