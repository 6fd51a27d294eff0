package scenario

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/sharedstate/counter"
)

type counterImpl struct {
	name string
	new  func(opts ...counter.Option) counter.Counter
}

var counterImpls = []counterImpl{
	{"atomic", func(opts ...counter.Option) counter.Counter { return counter.NewAtomic(opts...) }},
	{"guarded", func(opts ...counter.Option) counter.Counter { return counter.NewGuarded(opts...) }},
}

// Counters checks no lost updates for 1, 100 and Items concurrent
// increments, 1000 goroutines incrementing once each, and the underflow
// guard at the configured floor.
func (r Runner) Counters(ctx context.Context) []Result {
	var results []Result
	for _, impl := range counterImpls {
		for _, n := range []int{1, 100, r.Config.Items} {
			results = append(results, r.check(fmt.Sprintf("no-lost-updates/%d", n), impl.name, func() error {
				return r.noLostUpdates(ctx, impl, n)
			}))
		}
		results = append(results, r.check("thousand-goroutines", impl.name, func() error {
			return thousandGoroutines(impl)
		}))
		results = append(results, r.check("underflow-guard", impl.name, func() error {
			return r.underflowGuard(impl)
		}))
	}
	return results
}

func (r Runner) noLostUpdates(ctx context.Context, impl counterImpl, n int) error {
	c := impl.new(counter.WithLogger(r.logger()))
	err := r.fanOut(ctx, n, func(context.Context, int) error {
		c.Increment()
		return nil
	})
	if err != nil {
		return err
	}
	if got := c.Get(); got != int64(n) {
		return fmt.Errorf("after %d increments Get() = %d", n, got)
	}
	return nil
}

func thousandGoroutines(impl counterImpl) error {
	c := impl.new()
	var g errgroup.Group
	for range 1000 {
		g.Go(func() error {
			c.Increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if got := c.Get(); got != 1000 {
		return fmt.Errorf("Get() = %d; want 1000", got)
	}
	return nil
}

func (r Runner) underflowGuard(impl counterImpl) error {
	floor := int64(0)
	if r.Config.Floor != nil {
		floor = *r.Config.Floor
	}
	c := impl.new(counter.WithInitial(floor), counter.WithFloor(floor), counter.WithLogger(r.logger()))

	_, err := c.Decrement()
	if !errors.Is(err, counter.ErrUnderflow) {
		return fmt.Errorf("Decrement at floor returned %v; want ErrUnderflow", err)
	}
	if got := c.Get(); got != floor {
		return fmt.Errorf("Get() after underflow = %d; want %d", got, floor)
	}
	return nil
}
