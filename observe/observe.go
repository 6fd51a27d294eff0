// Package observe provides change notification for shared state.
//
// A component that wants to publish its transitions embeds a Notifier and
// calls Notify once the mutation is committed and visible to other
// goroutines. Observers are always invoked outside the component's lock, so
// an observer may safely call back into the component that notified it.
package observe

import "sync"

// Observer receives the value before and after a committed change.
type Observer[T any] interface {
	Changed(old, new T)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc[T any] func(old, new T)

func (f ObserverFunc[T]) Changed(old, new T) { f(old, new) }

type subscription[T any] struct {
	id uint64
	o  Observer[T]
}

// Notifier keeps a list of observers. The zero value is ready to use.
type Notifier[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[T]
}

// Subscribe registers o and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (n *Notifier[T]) Subscribe(o Observer[T]) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription[T]{id: id, o: o})

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier[T]) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			// Build a new slice so a Notify holding the old one is unaffected.
			next := make([]subscription[T], 0, len(n.subs)-1)
			next = append(next, n.subs[:i]...)
			n.subs = append(next, n.subs[i+1:]...)
			return
		}
	}
}

// Len reports how many observers are registered.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Notify calls every registered observer with (old, new). The observer list
// is read under the lock; the calls themselves happen after it is released.
func (n *Notifier[T]) Notify(old, new T) {
	n.mu.RLock()
	subs := n.subs
	n.mu.RUnlock()

	for _, s := range subs {
		s.o.Changed(old, new)
	}
}
