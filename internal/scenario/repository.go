package scenario

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/sharedstate/repository"
)

type repositoryImpl struct {
	name string
	new  func(opts ...repository.Option[int]) repository.Repository[int]
}

var repositoryImpls = []repositoryImpl{
	{"guarded", func(opts ...repository.Option[int]) repository.Repository[int] {
		return repository.NewGuarded(opts...)
	}},
	{"copy-on-write", func(opts ...repository.Option[int]) repository.Repository[int] {
		return repository.NewCopyOnWrite(opts...)
	}},
}

// Repositories checks snapshot immutability, linearizable publish under
// concurrent readers, and monotonic reader lengths, for both implementations.
func (r Runner) Repositories(ctx context.Context) []Result {
	var results []Result
	for _, impl := range repositoryImpls {
		results = append(results,
			r.check("snapshot-immutability", impl.name, func() error {
				return r.snapshotImmutability(ctx, impl)
			}),
			r.check("linearizable-publish", impl.name, func() error {
				return r.linearizablePublish(ctx, impl)
			}),
			r.check("monotonic-reads", impl.name, func() error {
				return r.monotonicReads(ctx, impl)
			}),
		)
	}
	return results
}

func (r Runner) newRepository(impl repositoryImpl) repository.Repository[int] {
	return impl.new(
		repository.WithLockTimeout[int](r.Config.LockTimeout),
		repository.WithLogger[int](r.logger()),
	)
}

func (r Runner) snapshotImmutability(ctx context.Context, impl repositoryImpl) error {
	repo := r.newRepository(impl)
	const m = 100

	for i := range 10 {
		if err := repo.Add(ctx, i); err != nil {
			return err
		}
	}
	first := repo.LoadAll()
	before := first.Slice()

	if err := r.fanOut(ctx, m, func(ctx context.Context, i int) error {
		return repo.Add(ctx, 1000+i)
	}); err != nil {
		return err
	}
	second := repo.LoadAll()

	if first.Len() != len(before) {
		return fmt.Errorf("first snapshot length changed from %d to %d", len(before), first.Len())
	}
	for i, v := range first.All() {
		if v != before[i] {
			return fmt.Errorf("first snapshot item %d changed from %d to %d", i, before[i], v)
		}
	}
	if second.Len() != first.Len()+m {
		return fmt.Errorf("second snapshot has %d items; want %d", second.Len(), first.Len()+m)
	}
	return nil
}

// linearizablePublish has one writer add 1..Items while Readers goroutines
// keep loading; every snapshot must be a prefix of the writer's sequence.
func (r Runner) linearizablePublish(ctx context.Context, impl repositoryImpl) error {
	repo := r.newRepository(impl)
	items := r.Config.Items

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		for i := 1; i <= items; i++ {
			if err := repo.Add(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})

	for range max(r.Config.Readers, 1) {
		g.Go(func() error {
			for {
				snap := repo.LoadAll()
				if snap.Len() > items {
					return fmt.Errorf("snapshot length %d exceeds %d", snap.Len(), items)
				}
				for i, v := range snap.All() {
					if v != i+1 {
						return fmt.Errorf("snapshot of length %d holds %d at index %d", snap.Len(), v, i)
					}
				}
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
		})
	}
	return g.Wait()
}

// monotonicReads has one writer add Items items while a reader loops over
// LoadAll; the lengths it sees must never go down.
func (r Runner) monotonicReads(ctx context.Context, impl repositoryImpl) error {
	repo := r.newRepository(impl)
	items := r.Config.Items

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		for i := range items {
			if err := repo.Add(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		last := 0
		for {
			n := repo.LoadAll().Len()
			if n < last || n > items {
				return fmt.Errorf("reader saw length %d after %d (limit %d)", n, last, items)
			}
			last = n
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	})
	return g.Wait()
}
