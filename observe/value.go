package observe

import "sync"

// Value is a mutable property that tells its observers about every change.
//
//	var names observe.Value[[]string]
//	names.Subscribe(observe.ObserverFunc[[]string](func(old, new []string) {
//		log.Printf("names changed from %v to %v", old, new)
//	}))
//	names.Update(func(cur []string) []string { return append(slices.Clone(cur), "Fabio") })
//
// Stored values should be treated as immutable; Update must return a new
// value rather than modify the one it was given.
type Value[T any] struct {
	mu  sync.Mutex
	v   T
	ntf Notifier[T]
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

func (p *Value[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v
}

// Set replaces the value and returns the previous one.
func (p *Value[T]) Set(v T) (old T) {
	return p.Update(func(T) T { return v })
}

// Update applies fn to the current value and stores the result. The
// read-modify-write runs under the lock; observers run after it is released.
func (p *Value[T]) Update(fn func(T) T) (old T) {
	p.mu.Lock()
	old = p.v
	next := fn(old)
	p.v = next
	p.mu.Unlock()

	p.ntf.Notify(old, next)
	return old
}

func (p *Value[T]) Subscribe(o Observer[T]) (cancel func()) {
	return p.ntf.Subscribe(o)
}
