package repository

import (
	"context"

	"github.com/marcodamonte/sharedstate/internal/lock"
	"github.com/marcodamonte/sharedstate/observe"
)

// Guarded is a growable ordered collection whose every read and write is
// serialized by a single exclusive lock. LoadAll returns a defensive copy.
type Guarded[T any] struct {
	mu    *lock.Mutex
	items []T // guarded by mu
	ntf   observe.Notifier[Snapshot[T]]
}

var _ Repository[int] = (*Guarded[int])(nil)

// NewGuarded returns an empty lock-guarded repository.
func NewGuarded[T any](opts ...Option[T]) *Guarded[T] {
	o := newOptions(opts)
	r := &Guarded[T]{
		mu: lock.New("guarded-repository", o.lockTimeout, o.logger),
	}
	if o.observer != nil {
		r.ntf.Subscribe(o.observer)
	}
	return r
}

func (r *Guarded[T]) Add(ctx context.Context, item T) error {
	return r.AddAll(ctx, item)
}

// AddAll appends items as one transition: a concurrent LoadAll sees either
// none or all of them.
func (r *Guarded[T]) AddAll(ctx context.Context, items ...T) error {
	old, next, err := r.appendLocked(ctx, items)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		r.ntf.Notify(old, next)
	}
	return nil
}

// appendLocked appends items while holding the lock and returns the views
// before and after the append.
func (r *Guarded[T]) appendLocked(ctx context.Context, items []T) (old, next Snapshot[T], err error) {
	unlock, err := r.mu.Lock(ctx)
	if err != nil {
		return old, next, err
	}
	defer unlock()

	before := len(r.items)
	r.items = append(r.items, items...)
	// items is append-only, so the first n elements of any backing array
	// never change again. Capping the slices keeps the observer views
	// immutable without copying.
	return newSnapshot(r.items[:before:before]), newSnapshot(r.items[:len(r.items):len(r.items)]), nil
}

// LoadAll copies the current contents under the lock.
func (r *Guarded[T]) LoadAll() Snapshot[T] {
	unlock := r.mu.MustLock()
	defer unlock()

	items := make([]T, len(r.items))
	copy(items, r.items)
	return newSnapshot(items)
}

func (r *Guarded[T]) Len() int {
	unlock := r.mu.MustLock()
	defer unlock()
	return len(r.items)
}

// Subscribe registers an additional observer.
func (r *Guarded[T]) Subscribe(o observe.Observer[Snapshot[T]]) (cancel func()) {
	return r.ntf.Subscribe(o)
}
