// Package relay provides the unbounded in-order pipe that backs
// cancellable effect subscriptions. The publish side never blocks:
// values queue in memory until the consume side drains them, so work
// that emits before anything reads is never lost. The queue grows
// without bound; it is meant for short-lived effects whose consumers
// attach promptly.
package relay

import (
	"context"
	"sync"
)

type state int

const (
	stateOpen state = iota
	stateClosing
	statePreempted
)

// Relay is a single-producer pipe with three outcomes: Close flushes
// everything published so far and then closes the consume side,
// Preempt discards everything still queued and delivers one final
// element instead, and a dead consumer context tears the pipe down
// without delivering anything further. The first terminal call wins;
// all later ones are no-ops.
type Relay[E any] struct {
	done <-chan struct{}
	out  chan E

	wake    chan struct{}
	preempt chan struct{}

	mu    sync.Mutex
	queue []E
	state state
	final E
}

// New creates a relay whose pump lives until a terminal call or until
// ctx is done. ctx stands for the consumer: once it is cancelled the
// pump stops trying to deliver.
func New[E any](ctx context.Context) *Relay[E] {
	r := &Relay[E]{
		done:    ctx.Done(),
		out:     make(chan E),
		wake:    make(chan struct{}, 1),
		preempt: make(chan struct{}),
	}
	go r.pump()
	return r
}

// Source returns the consume side. It yields queued elements in
// publish order, then live ones, and is closed after the terminal
// event.
func (r *Relay[E]) Source() <-chan E {
	return r.out
}

// Publish appends e to the queue. It never blocks and reports whether
// the relay still accepts elements; after Close or Preempt it reports
// false and e is discarded.
func (r *Relay[E]) Publish(e E) bool {
	r.mu.Lock()
	if r.state != stateOpen {
		r.mu.Unlock()
		return false
	}
	r.queue = append(r.queue, e)
	r.mu.Unlock()
	r.nudge()
	return true
}

// Close marks the relay terminal: everything already queued is still
// delivered, then the source closes.
func (r *Relay[E]) Close() {
	r.mu.Lock()
	if r.state != stateOpen {
		r.mu.Unlock()
		return
	}
	r.state = stateClosing
	r.mu.Unlock()
	r.nudge()
}

// Preempt marks the relay terminal, discards the queue, and delivers
// final as the sole remaining element. Elements already handed to the
// consumer stay delivered; everything still queued is dropped.
func (r *Relay[E]) Preempt(final E) {
	r.mu.Lock()
	if r.state != stateOpen {
		r.mu.Unlock()
		return
	}
	r.state = statePreempted
	r.queue = nil
	r.final = final
	r.mu.Unlock()
	close(r.preempt)
}

func (r *Relay[E]) nudge() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay[E]) deliverFinal() {
	r.mu.Lock()
	final := r.final
	r.mu.Unlock()
	select {
	case r.out <- final:
	case <-r.done:
	}
}

func (r *Relay[E]) pump() {
	defer close(r.out)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && r.state == stateOpen {
			r.mu.Unlock()
			select {
			case <-r.wake:
			case <-r.preempt:
			case <-r.done:
				return
			}
			r.mu.Lock()
		}
		if r.state == statePreempted {
			r.mu.Unlock()
			r.deliverFinal()
			return
		}
		batch := r.queue
		r.queue = nil
		closing := r.state == stateClosing
		r.mu.Unlock()

		for _, e := range batch {
			select {
			case <-r.preempt:
				r.deliverFinal()
				return
			default:
			}
			select {
			case r.out <- e:
			case <-r.preempt:
				r.deliverFinal()
				return
			case <-r.done:
				return
			}
		}
		if closing {
			return
		}
	}
}
