package effect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const numShards = 16

// handleSeq issues process-wide tokens so that every registration has
// its own identity even when many share one identifier.
var handleSeq atomic.Uint64

// handle is one live registration. Disposal runs the teardown exactly
// once and then removes the registration, no matter how many paths
// race to trigger it.
type handle struct {
	registry *Registry
	id       any
	token    uint64
	teardown func()
	once     sync.Once
}

func (h *handle) dispose() {
	h.once.Do(func() {
		h.teardown()
		h.registry.remove(h.id, h)
	})
}

type registryShard struct {
	mu      sync.Mutex
	handles map[any]map[uint64]*handle
}

// Registry tracks the teardown handles of in-flight cancellable
// effects, keyed by caller-chosen identifiers. Identifiers are opaque:
// any comparable value works, and value equality decides which handles
// a cancellation hits. All methods are safe for concurrent use.
type Registry struct {
	id     string
	logger *zap.Logger
	shards [numShards]registryShard
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger makes the registry emit debug-level lifecycle logs
// through l. Without it the registry stays silent.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		id:     uuid.New().String(),
		logger: zap.NewNop(),
	}
	for i := range r.shards {
		r.shards[i].handles = make(map[any]map[uint64]*handle)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) shardOf(id any) *registryShard {
	key := fmt.Sprintf("%T %v", id, id)
	return &r.shards[xxhash.Sum64String(key)%numShards]
}

// register records teardown under id and returns its handle. The
// handle must eventually be disposed, by CancelAll or by the owner
// itself once the work finishes.
func (r *Registry) register(id any, teardown func()) *handle {
	h := &handle{
		registry: r,
		id:       id,
		token:    handleSeq.Add(1),
		teardown: teardown,
	}
	s := r.shardOf(id)
	s.mu.Lock()
	set, ok := s.handles[id]
	if !ok {
		set = make(map[uint64]*handle)
		s.handles[id] = set
	}
	set[h.token] = h
	s.mu.Unlock()

	r.logger.Debug("registered cancellation handle",
		zap.String("registry", r.id),
		zap.Any("id", id),
		zap.Uint64("token", h.token),
	)
	return h
}

// remove detaches h from the registry. Removing a handle that is
// already gone is a no-op, and the identifier disappears together with
// its last handle.
func (r *Registry) remove(id any, h *handle) {
	s := r.shardOf(id)
	s.mu.Lock()
	set, ok := s.handles[id]
	if ok {
		delete(set, h.token)
		if len(set) == 0 {
			delete(s.handles, id)
		}
	}
	s.mu.Unlock()
}

// CancelAll disposes every handle currently registered under id,
// running each teardown outside the registry lock. Unknown identifiers
// are a no-op, and calling it again is harmless.
func (r *Registry) CancelAll(id any) {
	s := r.shardOf(id)
	s.mu.Lock()
	set := s.handles[id]
	snapshot := make([]*handle, 0, len(set))
	for _, h := range set {
		snapshot = append(snapshot, h)
	}
	s.mu.Unlock()

	for _, h := range snapshot {
		h.dispose()
	}
	if len(snapshot) > 0 {
		r.logger.Debug("cancelled in-flight effects",
			zap.String("registry", r.id),
			zap.Any("id", id),
			zap.Int("count", len(snapshot)),
		)
	}
}

// ActiveCount reports how many handles are currently registered under
// id.
func (r *Registry) ActiveCount(id any) int {
	s := r.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles[id])
}

type registryCtxKey struct{}

var defaultRegistry = NewRegistry()

// WithRegistry returns a context that carries r. Effects run with the
// returned context register themselves in r instead of the package
// default, which isolates cancellation identifiers between otherwise
// unrelated parts of a program.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryCtxKey{}, r)
}

// RegistryFrom extracts the registry carried by ctx, falling back to
// the shared package-level registry.
func RegistryFrom(ctx context.Context) *Registry {
	if r, ok := ctx.Value(registryCtxKey{}).(*Registry); ok && r != nil {
		return r
	}
	return defaultRegistry
}
