// Package counter provides integer counters that many goroutines can
// increment, decrement and read without losing updates.
//
// Two implementations share the Counter contract:
//
//   - Atomic: lock-free, every operation is a single atomic instruction
//     (or a short CAS loop when a floor is configured).
//   - Guarded: a sync.Mutex around a plain int64.
//
// Atomics win for a single variable with no surrounding logic. A mutex is the
// better fit once the critical section has to protect more than one value.
package counter

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/marcodamonte/sharedstate/observe"
)

// ErrUnderflow is returned by Decrement when the counter is already at its
// configured floor. The counter value is left unchanged.
var ErrUnderflow = errors.New("counter underflow")

// Counter is the contract shared by Atomic and Guarded.
type Counter interface {
	// Increment adds one and returns the new value.
	Increment() int64
	// Decrement subtracts one and returns the new value, or fails with
	// ErrUnderflow when that would take the value below the floor.
	Decrement() (int64, error)
	// Get returns a value the counter actually held at some instant.
	Get() int64
}

type options struct {
	initial  int64
	floor    int64
	hasFloor bool
	logger   hclog.Logger
	observer observe.Observer[int64]
}

// Option configures a counter at construction time.
type Option func(*options)

// WithInitial sets the starting value. Defaults to 0.
func WithInitial(n int64) Option {
	return func(o *options) { o.initial = n }
}

// WithFloor makes Decrement fail with ErrUnderflow instead of going below n.
func WithFloor(n int64) Option {
	return func(o *options) {
		o.floor = n
		o.hasFloor = true
	}
}

// WithLogger sets the diagnostic sink. Underflows are logged at Debug.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers o for every committed change.
func WithObserver(o observe.Observer[int64]) Option {
	return func(opts *options) { opts.observer = o }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}

func (o *options) underflow(value int64) error {
	o.logger.Debug("decrement refused at floor", "value", value, "floor", o.floor)
	return fmt.Errorf("%w: value %d is at floor %d", ErrUnderflow, value, o.floor)
}
