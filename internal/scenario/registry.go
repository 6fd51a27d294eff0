package scenario

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/sharedstate/registry"
)

func add(a, b int) int { return a + b }

// Registries has 1000 goroutines insert keys 1..1000 while others aggregate
// concurrently; after joining, the sum must be 500500.
func (r Runner) Registries(ctx context.Context) []Result {
	return []Result{
		r.check("registry-aggregate", "map", func() error {
			m := registry.NewMap[int, string](registry.WithLogger(r.logger()))
			return insertAndAggregate(ctx,
				func(k int) { m.Insert(k, fmt.Sprintf("E%d", k)) },
				func() int { return registry.Aggregate(m, 0, func(k int, _ string) int { return k }, add) },
				m.Size,
			)
		}),
		r.check("registry-aggregate", "set", func() error {
			s := registry.NewSet[int](registry.WithLogger(r.logger()))
			return insertAndAggregate(ctx,
				s.Insert,
				func() int { return registry.AggregateSet(s, 0, func(k int) int { return k }, add) },
				s.Size,
			)
		}),
	}
}

func insertAndAggregate(ctx context.Context, insert func(int), sum func() int, size func() int) error {
	const keys, want = 1000, 500500

	g, ctx := errgroup.WithContext(ctx)
	for k := 1; k <= keys; k++ {
		g.Go(func() error {
			insert(k)
			return nil
		})
		if k%10 == 0 {
			g.Go(func() error {
				if partial := sum(); partial > want {
					return fmt.Errorf("partial aggregate %d exceeds %d", partial, want)
				}
				return ctx.Err()
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if got := sum(); got != want {
		return fmt.Errorf("aggregate sum = %d; want %d", got, want)
	}
	if got := size(); got != keys {
		return fmt.Errorf("Size() = %d; want %d", got, keys)
	}
	return nil
}
