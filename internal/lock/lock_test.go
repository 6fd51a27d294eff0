package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLockExcludes(t *testing.T) {
	t.Parallel()

	m := New("test", 0, nil)
	var (
		wg     sync.WaitGroup
		inside int
		peak   int
		mu     sync.Mutex
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background())
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			peak = max(peak, inside)
			mu.Unlock()

			time.Sleep(100 * time.Microsecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak holders = %d; want 1", peak)
	}
}

func TestLockTimeout(t *testing.T) {
	t.Parallel()

	m := New("test", 20*time.Millisecond, nil)
	unlock := m.MustLock()
	defer unlock()

	start := time.Now()
	_, err := m.Lock(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Lock() error = %v; want ErrTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v; want it to wrap context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("gave up after %s; want at least 20ms", elapsed)
	}
}

func TestLockCallerCancel(t *testing.T) {
	t.Parallel()

	m := New("test", 0, nil)
	unlock := m.MustLock()
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Lock(ctx)
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("Lock() error = %v; want ErrTimeout wrapping context.Canceled", err)
	}
}
