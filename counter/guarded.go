package counter

import (
	"sync"

	"github.com/marcodamonte/sharedstate/observe"
)

// Guarded is a counter whose value is only touched while mu is held.
type Guarded struct {
	mu   sync.Mutex
	n    int64
	opts options
	ntf  observe.Notifier[int64]
}

var _ Counter = (*Guarded)(nil)

// NewGuarded returns a mutex-protected counter.
func NewGuarded(opts ...Option) *Guarded {
	c := &Guarded{opts: newOptions(opts)}
	c.n = c.opts.initial
	if c.opts.observer != nil {
		c.ntf.Subscribe(c.opts.observer)
	}
	return c
}

func (c *Guarded) Increment() int64 {
	next := c.increment()
	c.ntf.Notify(next-1, next)
	return next
}

func (c *Guarded) increment() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Decrement holds the lock across the whole check-and-act so no other
// goroutine can slip in between the floor check and the write.
func (c *Guarded) Decrement() (int64, error) {
	cur, ok := c.decrement()
	if !ok {
		return cur, c.opts.underflow(cur)
	}
	c.ntf.Notify(cur, cur-1)
	return cur - 1, nil
}

// decrement reports the value it saw and whether it stepped below it.
func (c *Guarded) decrement() (cur int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur = c.n
	if c.opts.hasFloor && cur <= c.opts.floor {
		return cur, false
	}
	c.n--
	return cur, true
}

// Get takes the lock too: an unlocked read of n is a data race.
func (c *Guarded) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Subscribe registers an additional observer.
func (c *Guarded) Subscribe(o observe.Observer[int64]) (cancel func()) {
	return c.ntf.Subscribe(o)
}
