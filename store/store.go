// Package store provides a small unidirectional state container on top
// of the effect package: actions go in, a reducer computes the next
// state plus a follow-up effect, and the effect's output feeds back in
// as further actions.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rickb777/date/v2/timespan"
	"go.uber.org/zap"

	"github.com/on-the-ground/react_ive_go/effect"
)

// Reducer computes the state after an action, together with an effect
// whose emissions are sent back to the store as new actions. Reducers
// must be pure: all side effects belong in the returned effect.
type Reducer[S, A any] func(state S, action A) (S, effect.Effect[A])

type options struct {
	logger   *zap.Logger
	registry *effect.Registry
	onError  func(error)
}

// Option configures a Store.
type Option func(*options)

// WithLogger makes the store emit debug-level lifecycle logs through
// l. Without it the store stays silent.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry runs the store's effects against r instead of the
// shared package-level registry, so cancellation identifiers cannot
// collide with those of other stores.
func WithRegistry(r *effect.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithErrorHandler installs fn as the sink for effect failures. The
// default logs them at error level. Interruptions of cancellable
// effects do not count as failures.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// Store holds a state value and evolves it by reducing actions, one at
// a time. Effects returned by the reducer run concurrently on
// supervised goroutines; Close interrupts them and waits until they
// are gone. All methods are safe for concurrent use.
type Store[S, A any] struct {
	id      string
	logger  *zap.Logger
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   S
	reducer Reducer[S, A]

	subMu  sync.Mutex
	subSeq uint64
	subs   map[uint64]chan S

	lifeMu sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// New creates a store seeded with initial. ctx bounds the lifetime of
// every effect the store runs; cancelling it has the same effect on
// them as Close.
func New[S, A any](ctx context.Context, initial S, reducer Reducer[S, A], opts ...Option) *Store[S, A] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry != nil {
		ctx = effect.WithRegistry(ctx, o.registry)
	}
	runCtx, cancel := context.WithCancel(ctx)

	s := &Store[S, A]{
		id:      uuid.New().String(),
		logger:  o.logger,
		onError: o.onError,
		ctx:     runCtx,
		cancel:  cancel,
		state:   initial,
		reducer: reducer,
		subs:    make(map[uint64]chan S),
	}
	if s.onError == nil {
		s.onError = func(err error) {
			s.logger.Error("effect failed",
				zap.String("store", s.id),
				zap.Error(err),
			)
		}
	}
	s.logger.Debug("store created", zap.String("store", s.id))
	return s
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send reduces action into the state, notifies observers, and starts
// the reducer's effect. Actions sent to a closed store are dropped.
func (s *Store[S, A]) Send(action A) {
	s.lifeMu.Lock()
	closed := s.closed
	s.lifeMu.Unlock()
	if closed {
		s.logger.Debug("action dropped after close",
			zap.String("store", s.id),
			zap.String("action", fmt.Sprintf("%T", action)),
		)
		return
	}

	s.mu.Lock()
	began := time.Now()
	next, eff := s.reducer(s.state, action)
	s.state = next
	span := timespan.BetweenTimes(began, time.Now())
	s.mu.Unlock()

	s.logger.Debug("action reduced",
		zap.String("store", s.id),
		zap.String("action", fmt.Sprintf("%T", action)),
		zap.Time("at", span.Start()),
		zap.Duration("took", span.Duration()),
	)

	s.broadcast()
	s.runEffect(eff)
}

// Observe subscribes to state changes. The returned channel is primed
// with the state as of subscription and then receives later states,
// conflated so that a slow observer always wakes up to the latest one.
// The second return value cancels the subscription and closes the
// channel; on a closed store the channel arrives already closed.
func (s *Store[S, A]) Observe() (<-chan S, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.lifeMu.Lock()
	closed := s.closed
	s.lifeMu.Unlock()
	if closed {
		ch := make(chan S, 1)
		ch <- s.State()
		close(ch)
		return ch, func() {}
	}

	s.subSeq++
	id := s.subSeq
	sub := make(chan S, 1)
	s.subs[id] = sub
	sub <- s.State()

	unsubscribe := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return sub, unsubscribe
}

// broadcast re-reads the state under subMu so that overlapping Sends
// cannot deliver states out of order: whichever broadcast runs last
// hands every observer the freshest value.
func (s *Store[S, A]) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	state := s.State()
	for _, sub := range s.subs {
		select {
		case sub <- state:
			continue
		default:
		}
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- state:
		default:
		}
	}
}

func (s *Store[S, A]) runEffect(eff effect.Effect[A]) {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return
	}
	s.wg.Add(1)
	s.lifeMu.Unlock()

	go func() {
		defer s.wg.Done()
		began := time.Now()
		for st := range eff.Run(s.ctx) {
			if st.Err != nil {
				if errors.Is(st.Err, context.Canceled) {
					s.logger.Debug("effect interrupted", zap.String("store", s.id))
				} else {
					s.onError(st.Err)
				}
				break
			}
			s.Send(st.Value)
		}
		span := timespan.BetweenTimes(began, time.Now())
		s.logger.Debug("effect settled",
			zap.String("store", s.id),
			zap.Duration("lifetime", span.Duration()),
		)
	}()
}

// Close interrupts every in-flight effect, waits for them to settle,
// and closes all observer channels. Further Sends are dropped. Close
// is idempotent.
func (s *Store[S, A]) Close() {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return
	}
	s.closed = true
	s.lifeMu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.subMu.Lock()
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub)
	}
	s.subMu.Unlock()

	s.logger.Debug("store closed", zap.String("store", s.id))
}
