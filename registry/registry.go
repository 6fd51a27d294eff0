// Package registry provides concurrent-safe associative containers that
// accept inserts from any number of goroutines and support aggregate reads
// while those inserts are still happening.
//
// Both Map and Set are backed by sync.Map, which suits this workload well:
// keys are written once and read many times, and writers mostly touch
// disjoint keys.
//
// Reads are weakly consistent. A traversal never fails and never visits a
// key twice, and it reflects every insert that completed before it started.
// Inserts that complete while it runs may or may not be included.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

type options struct {
	logger hclog.Logger
}

// Option configures a Map or Set.
type Option func(*options)

// WithLogger sets the diagnostic sink. New keys are logged at Trace.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}

// Map is a concurrent key/value registry. Insert is the only mutation.
type Map[K comparable, V any] struct {
	m      sync.Map
	size   atomic.Int64
	logger hclog.Logger
}

// NewMap returns an empty Map.
func NewMap[K comparable, V any](opts ...Option) *Map[K, V] {
	o := newOptions(opts)
	return &Map[K, V]{logger: o.logger}
}

// Insert stores v under k, replacing any previous value. It is safe to call
// from any number of goroutines; once it returns, the entry is visible to
// every traversal that starts afterwards.
func (r *Map[K, V]) Insert(k K, v V) {
	if _, loaded := r.m.Swap(k, v); !loaded {
		r.size.Add(1)
		r.logger.Trace("registered new key", "key", k)
	}
}

// Load returns the value stored under k.
func (r *Map[K, V]) Load(k K) (V, bool) {
	v, ok := r.m.Load(k)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Range calls fn for each entry until fn returns false. Order is
// unspecified. fn may call Insert.
func (r *Map[K, V]) Range(fn func(k K, v V) bool) {
	r.m.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

// Size returns the number of distinct keys inserted so far. It may trail an
// Insert that has not yet returned.
func (r *Map[K, V]) Size() int {
	return int(r.size.Load())
}

// Aggregate maps every entry with fn and folds the results with combine,
// starting from zero. It runs over a weakly consistent view of m: each entry
// contributes at most once.
func Aggregate[K comparable, V, R any](m *Map[K, V], zero R, fn func(K, V) R, combine func(R, R) R) R {
	acc := zero
	m.Range(func(k K, v V) bool {
		acc = combine(acc, fn(k, v))
		return true
	})
	return acc
}
