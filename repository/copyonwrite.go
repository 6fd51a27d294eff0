package repository

import (
	"context"
	"sync/atomic"

	"github.com/marcodamonte/sharedstate/internal/lock"
	"github.com/marcodamonte/sharedstate/observe"
)

// CopyOnWrite holds a single published reference to an immutable Snapshot.
//
// Readers do one atomic load and never block. Writers serialize on a
// write-side lock, build a new snapshot (old items plus the new ones) and
// publish it with one atomic store, so a reader sees either the whole old
// version or the whole new one.
//
// Write cost grows with the collection size; read cost is constant.
type CopyOnWrite[T any] struct {
	current atomic.Pointer[Snapshot[T]]
	wmu     *lock.Mutex // serializes writers only
	ntf     observe.Notifier[Snapshot[T]]
}

var _ Repository[int] = (*CopyOnWrite[int])(nil)

// NewCopyOnWrite returns an empty copy-on-write repository.
func NewCopyOnWrite[T any](opts ...Option[T]) *CopyOnWrite[T] {
	o := newOptions(opts)
	r := &CopyOnWrite[T]{
		wmu: lock.New("copy-on-write-repository", o.lockTimeout, o.logger),
	}
	r.current.Store(&Snapshot[T]{})
	if o.observer != nil {
		r.ntf.Subscribe(o.observer)
	}
	return r
}

func (r *CopyOnWrite[T]) Add(ctx context.Context, item T) error {
	return r.AddAll(ctx, item)
}

// AddAll publishes items in a single new snapshot.
func (r *CopyOnWrite[T]) AddAll(ctx context.Context, items ...T) error {
	unlock, err := r.wmu.Lock(ctx)
	if err != nil {
		return err
	}
	old := r.current.Load()
	next := old.with(items...)
	r.current.Store(&next)
	unlock()

	if len(items) > 0 {
		r.ntf.Notify(*old, next)
	}
	return nil
}

// LoadAll returns the currently published snapshot without locking.
func (r *CopyOnWrite[T]) LoadAll() Snapshot[T] {
	return *r.current.Load()
}

func (r *CopyOnWrite[T]) Len() int {
	return r.current.Load().Len()
}

// Subscribe registers an additional observer.
func (r *CopyOnWrite[T]) Subscribe(o observe.Observer[Snapshot[T]]) (cancel func()) {
	return r.ntf.Subscribe(o)
}
