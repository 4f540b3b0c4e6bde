package fusion

import (
	"context"
	"sync"
	"sync/atomic"
)

// Resource is a lazily-initialized shared handle for an expensive-to-load
// model. The load transition is guarded by a mutex so concurrent first-callers
// never trigger duplicate initialization; once loaded, callers take the
// lock-free fast path. A failed load leaves the resource unloaded so a later
// call may retry.
type Resource[T any] struct {
	mu     sync.Mutex
	loaded atomic.Bool
	handle T
	load   func(ctx context.Context) (T, error)
}

func NewResource[T any](load func(ctx context.Context) (T, error)) *Resource[T] {
	return &Resource[T]{load: load}
}

// Get returns the shared handle, loading it on first use.
func (r *Resource[T]) Get(ctx context.Context) (T, error) {
	if r.loaded.Load() {
		return r.handle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another caller may have finished the load while we waited
	if r.loaded.Load() {
		return r.handle, nil
	}

	handle, err := r.load(ctx)
	if err != nil {
		var zero T
		return zero, &LoadError{Err: err}
	}

	r.handle = handle
	r.loaded.Store(true)
	return r.handle, nil
}

// Loaded reports whether the handle is available without triggering a load.
func (r *Resource[T]) Loaded() bool {
	return r.loaded.Load()
}
