package counter

import (
	"sync/atomic"

	"github.com/marcodamonte/sharedstate/observe"
)

// Atomic is a lock-free counter backed by atomic.Int64.
type Atomic struct {
	n    atomic.Int64
	opts options
	ntf  observe.Notifier[int64]
}

var _ Counter = (*Atomic)(nil)

// NewAtomic returns a ready-to-use lock-free counter.
func NewAtomic(opts ...Option) *Atomic {
	c := &Atomic{opts: newOptions(opts)}
	c.n.Store(c.opts.initial)
	if c.opts.observer != nil {
		c.ntf.Subscribe(c.opts.observer)
	}
	return c
}

func (c *Atomic) Increment() int64 {
	next := c.n.Add(1)
	c.ntf.Notify(next-1, next)
	return next
}

// Decrement without a floor is a plain atomic add. With a floor it becomes
// a CAS loop: read, check, and publish only if nobody changed the value in
// between; otherwise retry with the fresh value.
func (c *Atomic) Decrement() (int64, error) {
	if !c.opts.hasFloor {
		next := c.n.Add(-1)
		c.ntf.Notify(next+1, next)
		return next, nil
	}

	for {
		cur := c.n.Load()
		if cur <= c.opts.floor {
			return cur, c.opts.underflow(cur)
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			c.ntf.Notify(cur, cur-1)
			return cur - 1, nil
		}
	}
}

func (c *Atomic) Get() int64 { return c.n.Load() }

// Subscribe registers an additional observer.
func (c *Atomic) Subscribe(o observe.Observer[int64]) (cancel func()) {
	return c.ntf.Subscribe(o)
}
