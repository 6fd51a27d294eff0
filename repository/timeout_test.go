package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
)

// ── Lock timeout ─────────────────────────────────────────────────────────────

// TestAddAllTimeoutHasNoEffect holds the write lock, then checks that AddAll
// gives up with ErrLockTimeout and that none of its items became visible.
func TestAddAllTimeoutHasNoEffect(t *testing.T) {
	t.Parallel()

	const timeout = 20 * time.Millisecond
	logger := hclog.NewNullLogger()

	guarded := NewGuarded(WithLockTimeout[string](timeout), WithLogger[string](logger))
	cow := NewCopyOnWrite(WithLockTimeout[string](timeout), WithLogger[string](logger))

	cases := map[string]struct {
		hold    func() func()
		addAll  func(context.Context, ...string) error
		loadAll func() Snapshot[string]
	}{
		"guarded":       {guarded.mu.MustLock, guarded.AddAll, guarded.LoadAll},
		"copy-on-write": {cow.wmu.MustLock, cow.AddAll, cow.LoadAll},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tc.addAll(context.Background(), "a"); err != nil {
				t.Fatalf("AddAll: %v", err)
			}

			unlock := tc.hold()
			err := tc.addAll(context.Background(), "b", "c")
			unlock()

			if !IsLockTimeout(err) {
				t.Fatalf("AddAll() error = %v; want ErrLockTimeout", err)
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("AddAll() error = %v; want it to wrap context.DeadlineExceeded", err)
			}
			if diff := cmp.Diff([]string{"a"}, tc.loadAll().Slice()); diff != "" {
				t.Errorf("contents after timeout (-want +got):\n%s", diff)
			}

			// The lock is free again, so a retry succeeds immediately.
			if err := tc.addAll(context.Background(), "b", "c"); err != nil {
				t.Fatalf("retry AddAll: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, tc.loadAll().Slice()); diff != "" {
				t.Errorf("contents after retry (-want +got):\n%s", diff)
			}
		})
	}
}

// TestCopyOnWriteReadersIgnoreWriteLock checks that LoadAll does not block
// while a writer holds the lock.
func TestCopyOnWriteReadersIgnoreWriteLock(t *testing.T) {
	t.Parallel()

	r := NewCopyOnWrite[int]()
	if err := r.Add(context.Background(), 7); err != nil {
		t.Fatal(err)
	}

	unlock := r.wmu.MustLock()
	defer unlock()

	got := make(chan Snapshot[int], 1)
	go func() { got <- r.LoadAll() }()

	select {
	case snap := <-got:
		if snap.Len() != 1 || snap.At(0) != 7 {
			t.Errorf("LoadAll() = %v; want [7]", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("LoadAll blocked behind the write lock")
	}
}

// TestSnapshotWithDoesNotAlias guards the copy in with: appending to a
// snapshot that has spare capacity must not write into its backing array.
func TestSnapshotWithDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := newSnapshot(make([]int, 2, 10))
	a := base.with(1)
	b := base.with(2)

	if a.At(2) != 1 || b.At(2) != 2 {
		t.Errorf("derived snapshots share storage: a=%v b=%v", a, b)
	}
	if base.Len() != 2 {
		t.Errorf("base length changed to %d", base.Len())
	}
}
