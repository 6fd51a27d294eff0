// Package repository provides ordered collections that protect their state
// from concurrent modification and never leak a mutable reference to it.
//
// Guarded and CopyOnWrite share the Repository contract, so callers can swap
// one for the other without code changes:
//
//   - Guarded serializes every Add and LoadAll behind one exclusive lock and
//     hands out defensive copies. Cheap writes, each read copies.
//   - CopyOnWrite publishes immutable snapshots through an atomic pointer.
//     Reads are a single atomic load and never block; each write copies the
//     whole collection. Use it when reads vastly outnumber writes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marcodamonte/sharedstate/internal/lock"
	"github.com/marcodamonte/sharedstate/observe"
)

// ErrLockTimeout is returned by Add and AddAll when the write lock could not
// be acquired in time. Nothing was added.
var ErrLockTimeout = lock.ErrTimeout

// Repository is the contract shared by Guarded and CopyOnWrite.
type Repository[T any] interface {
	// Add appends item. It fails only with ErrLockTimeout.
	Add(ctx context.Context, item T) error
	// LoadAll returns the contents as of some instant during the call.
	LoadAll() Snapshot[T]
}

type options[T any] struct {
	lockTimeout time.Duration
	logger      hclog.Logger
	observer    observe.Observer[Snapshot[T]]
}

// Option configures a repository at construction time.
type Option[T any] func(*options[T])

// WithLockTimeout bounds how long a writer waits for the lock. Zero, the
// default, waits until the caller's context is done.
func WithLockTimeout[T any](d time.Duration) Option[T] {
	return func(o *options[T]) { o.lockTimeout = d }
}

// WithLogger sets the diagnostic sink for lock contention and timeouts.
func WithLogger[T any](l hclog.Logger) Option[T] {
	return func(o *options[T]) { o.logger = l }
}

// WithObserver registers o for every committed write. It receives the
// snapshots before and after the write.
func WithObserver[T any](o observe.Observer[Snapshot[T]]) Option[T] {
	return func(opts *options[T]) { opts.observer = o }
}

func newOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}

// IsLockTimeout reports whether err means a write gave up waiting for the lock.
func IsLockTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
