package store

import (
	"sync"
)

// ViewStore projects a slice of a store's state for one observer.
// Every state change is passed through extract, and only projections
// that differ from the previous one, as judged by the caller's
// equality predicate, are delivered. There is no implicit notion of
// equality: the predicate decides what counts as a change.
type ViewStore[V any] struct {
	mu      sync.Mutex
	current V
	updates chan V
	stop    func()
}

// NewViewStore derives a view from s. extract picks the projected
// value out of the state and eq reports whether two projections are
// equivalent; updates that eq considers equal are suppressed.
func NewViewStore[S, A, V any](s *Store[S, A], extract func(S) V, eq func(V, V) bool) *ViewStore[V] {
	states, stop := s.Observe()
	v := &ViewStore[V]{
		updates: make(chan V, 1),
		stop:    stop,
	}
	// The subscription channel is primed, so this cannot block.
	v.current = extract(<-states)
	v.updates <- v.current

	go func() {
		defer close(v.updates)
		for state := range states {
			next := extract(state)
			v.mu.Lock()
			changed := !eq(next, v.current)
			if changed {
				v.current = next
			}
			v.mu.Unlock()
			if !changed {
				continue
			}
			select {
			case v.updates <- next:
				continue
			default:
			}
			select {
			case <-v.updates:
			default:
			}
			select {
			case v.updates <- next:
			default:
			}
		}
	}()
	return v
}

// Value returns the current projection.
func (v *ViewStore[V]) Value() V {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Updates returns the change stream. It is primed with the projection
// as of construction, conflates intermediate values for slow readers,
// and closes when the view or its store is closed.
func (v *ViewStore[V]) Updates() <-chan V {
	return v.updates
}

// Close cancels the underlying subscription, which in turn closes
// Updates. Close is idempotent.
func (v *ViewStore[V]) Close() {
	v.stop()
}
