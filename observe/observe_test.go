package observe_test

import (
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marcodamonte/sharedstate/observe"
)

type change struct {
	Old, New []string
}

// ── Value ────────────────────────────────────────────────────────────────────

// TestValueReportsEveryChange mirrors the classic observable-property example:
// appending names produces one (old, new) notification per append.
func TestValueReportsEveryChange(t *testing.T) {
	t.Parallel()

	names := observe.NewValue[[]string](nil)

	var got []change
	names.Subscribe(observe.ObserverFunc[[]string](func(old, new []string) {
		got = append(got, change{Old: old, New: new})
	}))

	add := func(name string) func([]string) []string {
		return func(cur []string) []string { return append(slices.Clone(cur), name) }
	}
	names.Update(add("Fabio"))
	names.Update(add("Bill"))

	want := []change{
		{Old: nil, New: []string{"Fabio"}},
		{Old: []string{"Fabio"}, New: []string{"Fabio", "Bill"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

// TestValueObserverCanReadBack verifies observers run after the lock is
// released: calling Get from inside an observer must not deadlock.
func TestValueObserverCanReadBack(t *testing.T) {
	t.Parallel()

	v := observe.NewValue(1)
	var seen int
	v.Subscribe(observe.ObserverFunc[int](func(_, _ int) {
		seen = v.Get()
	}))

	if old := v.Set(2); old != 1 {
		t.Errorf("Set returned old=%d; want 1", old)
	}
	if seen != 2 {
		t.Errorf("observer read %d; want 2", seen)
	}
}

// TestValueConcurrentUpdates checks that Update is a proper read-modify-write.
func TestValueConcurrentUpdates(t *testing.T) {
	t.Parallel()

	const goroutines = 200
	v := observe.NewValue(0)

	var mu sync.Mutex
	notified := 0
	v.Subscribe(observe.ObserverFunc[int](func(old, new int) {
		if new != old+1 {
			t.Errorf("transition %d → %d is not a single increment", old, new)
		}
		mu.Lock()
		notified++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if got := v.Get(); got != goroutines {
		t.Errorf("value = %d; want %d", got, goroutines)
	}
	if notified != goroutines {
		t.Errorf("observer called %d times; want %d", notified, goroutines)
	}
}

// ── Notifier ─────────────────────────────────────────────────────────────────

func TestNotifierCancel(t *testing.T) {
	t.Parallel()

	var n observe.Notifier[int]
	calls := 0
	cancel := n.Subscribe(observe.ObserverFunc[int](func(_, _ int) { calls++ }))

	n.Notify(0, 1)
	cancel()
	cancel() // second call is a no-op
	n.Notify(1, 2)

	if calls != 1 {
		t.Errorf("observer called %d times; want 1", calls)
	}
	if n.Len() != 0 {
		t.Errorf("Len() = %d after cancel; want 0", n.Len())
	}
}
