package scenario

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/marcodamonte/sharedstate/counter"
	"github.com/marcodamonte/sharedstate/observe"
	"github.com/marcodamonte/sharedstate/repository"
)

// Observers checks that change notifications are delivered once per
// committed transition, after the change is visible.
func (r Runner) Observers(ctx context.Context) []Result {
	return []Result{
		r.check("observable-property", "value", func() error {
			return r.observableProperty(ctx)
		}),
		r.check("observer-after-commit", "atomic", func() error {
			return r.counterObserver(ctx)
		}),
		r.check("observer-after-commit", "copy-on-write", func() error {
			return r.repositoryObserver(ctx)
		}),
	}
}

// observableProperty appends Items names concurrently; every notification
// must be a one-name growth and the final list must hold them all.
func (r Runner) observableProperty(ctx context.Context) error {
	names := observe.NewValue[[]string](nil)

	var (
		mu       sync.Mutex
		notified int
		bad      error
	)
	names.Subscribe(observe.ObserverFunc[[]string](func(old, new []string) {
		mu.Lock()
		defer mu.Unlock()
		notified++
		if len(new) != len(old)+1 && bad == nil {
			bad = fmt.Errorf("names changed from %d to %d entries", len(old), len(new))
		}
	}))

	n := r.Config.Items
	if err := r.fanOut(ctx, n, func(_ context.Context, i int) error {
		names.Update(func(cur []string) []string {
			return append(slices.Clone(cur), fmt.Sprintf("user-%d", i))
		})
		return nil
	}); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	switch {
	case bad != nil:
		return bad
	case notified != n:
		return fmt.Errorf("%d notifications for %d changes", notified, n)
	case len(names.Get()) != n:
		return fmt.Errorf("final list has %d names; want %d", len(names.Get()), n)
	}
	return nil
}

// counterObserver reads the counter from inside the observer; the value must
// already include the change being reported.
func (r Runner) counterObserver(ctx context.Context) error {
	var (
		c   *counter.Atomic
		mu  sync.Mutex
		bad error
	)
	c = counter.NewAtomic(counter.WithObserver(observe.ObserverFunc[int64](func(_, new int64) {
		if cur := c.Get(); cur < new {
			mu.Lock()
			if bad == nil {
				bad = fmt.Errorf("observer told about %d while Get() = %d", new, cur)
			}
			mu.Unlock()
		}
	})))

	if err := r.fanOut(ctx, r.Config.Items, func(context.Context, int) error {
		c.Increment()
		return nil
	}); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	return bad
}

// repositoryObserver calls LoadAll from inside the observer. The write lock
// must already be released and the new snapshot published.
func (r Runner) repositoryObserver(ctx context.Context) error {
	var (
		repo *repository.CopyOnWrite[int]
		mu   sync.Mutex
		bad  error
	)
	repo = repository.NewCopyOnWrite(
		repository.WithLogger[int](r.logger()),
		repository.WithObserver[int](observe.ObserverFunc[repository.Snapshot[int]](func(_, new repository.Snapshot[int]) {
			if cur := repo.LoadAll(); cur.Len() < new.Len() {
				mu.Lock()
				if bad == nil {
					bad = fmt.Errorf("observer saw %d items published while LoadAll has %d", new.Len(), cur.Len())
				}
				mu.Unlock()
			}
			// A write from the observer must not deadlock on the write lock.
			if new.Len() == 1 {
				if err := repo.Add(context.Background(), -1); err != nil {
					mu.Lock()
					bad = err
					mu.Unlock()
				}
			}
		})),
	)

	if err := r.fanOut(ctx, r.Config.Items, func(ctx context.Context, i int) error {
		return repo.Add(ctx, i)
	}); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if bad != nil {
		return bad
	}
	if got := repo.Len(); got != r.Config.Items+1 {
		return fmt.Errorf("Len() = %d; want %d", got, r.Config.Items+1)
	}
	return nil
}
