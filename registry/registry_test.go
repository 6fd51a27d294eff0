package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/sharedstate/registry"
)

func sum(a, b int) int { return a + b }

// ── Concurrent inserts ───────────────────────────────────────────────────────

// TestConcurrentInsertThenAggregate has 1000 goroutines each insert one key
// from 1..1000; once all are joined the aggregate sum must be 500500.
func TestConcurrentInsertThenAggregate(t *testing.T) {
	t.Parallel()

	m := registry.NewMap[int, string]()

	var wg sync.WaitGroup
	for i := 1; i <= 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Insert(i, fmt.Sprintf("E%d", i))
		}()
	}
	wg.Wait()

	got := registry.Aggregate(m, 0, func(k int, _ string) int { return k }, sum)
	if got != 500500 {
		t.Errorf("aggregate sum = %d; want 500500", got)
	}
	if m.Size() != 1000 {
		t.Errorf("Size() = %d; want 1000", m.Size())
	}
	if v, ok := m.Load(42); !ok || v != "E42" {
		t.Errorf("Load(42) = %q, %v; want \"E42\", true", v, ok)
	}
}

// TestAggregateDuringInserts runs aggregates concurrently with inserts. No
// call may panic, and every partial result must be bounded by the final one.
func TestAggregateDuringInserts(t *testing.T) {
	t.Parallel()

	m := registry.NewMap[int, int]()

	var g errgroup.Group
	for i := 1; i <= 1000; i++ {
		g.Go(func() error {
			m.Insert(i, i)
			return nil
		})
		g.Go(func() error {
			partial := registry.Aggregate(m, 0, func(_, v int) int { return v }, sum)
			if partial < 0 || partial > 500500 {
				return fmt.Errorf("partial aggregate %d out of range", partial)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := registry.Aggregate(m, 0, func(_, v int) int { return v }, sum); got != 500500 {
		t.Errorf("final aggregate = %d; want 500500", got)
	}
}

// TestAggregateCountsEachKeyOnce re-inserts existing keys during a traversal;
// the count must not include any key twice.
func TestAggregateCountsEachKeyOnce(t *testing.T) {
	t.Parallel()

	m := registry.NewMap[int, int]()
	for i := range 100 {
		m.Insert(i, i)
	}

	seen := make(map[int]int)
	m.Range(func(k, _ int) bool {
		seen[k]++
		m.Insert(k, -k) // overwrite while traversing
		return true
	})

	for k, n := range seen {
		if n != 1 {
			t.Errorf("key %d visited %d times", k, n)
		}
	}
	if len(seen) != 100 {
		t.Errorf("visited %d keys; want 100", len(seen))
	}
	if m.Size() != 100 {
		t.Errorf("Size() = %d after overwrites; want 100", m.Size())
	}
}

// ── Set ──────────────────────────────────────────────────────────────────────

func TestSetConcurrentInsert(t *testing.T) {
	t.Parallel()

	s := registry.NewSet[int]()

	var wg sync.WaitGroup
	for i := 1; i <= 1000; i++ {
		// Two goroutines insert the same value; the set keeps one.
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Insert(i)
			}()
		}
	}
	wg.Wait()

	if s.Size() != 1000 {
		t.Errorf("Size() = %d; want 1000", s.Size())
	}
	if got := registry.AggregateSet(s, 0, func(k int) int { return k }, sum); got != 500500 {
		t.Errorf("aggregate sum = %d; want 500500", got)
	}
	if !s.Contains(500) || s.Contains(1001) {
		t.Errorf("Contains reports wrong membership")
	}
}

func TestRangeStopsEarly(t *testing.T) {
	t.Parallel()

	s := registry.NewSet[string]()
	for _, v := range []string{"a", "b", "c"} {
		s.Insert(v)
	}

	visited := 0
	s.Range(func(string) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d values after returning false; want 1", visited)
	}
}
