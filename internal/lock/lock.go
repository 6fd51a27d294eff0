// Package lock provides an exclusive lock whose acquisition can be bounded
// by a deadline, for the repositories' write paths.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when the lock could not be acquired before the
// deadline or the caller's context expired.
var ErrTimeout = errors.New("lock acquisition timed out")

// Mutex is a weight-one semaphore. Unlike sync.Mutex its Lock can give up.
type Mutex struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	name    string
	logger  hclog.Logger
}

// New returns an unlocked Mutex. A timeout of zero means wait until ctx is
// done. name identifies the lock in log lines.
func New(name string, timeout time.Duration, logger hclog.Logger) *Mutex {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Mutex{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
		name:    name,
		logger:  logger,
	}
}

// Lock acquires the mutex. The caller must call the returned unlock func
// exactly once, typically with defer.
//
// A free lock is taken without touching ctx. Otherwise the wait is logged at
// Trace and bounded by the configured timeout and ctx, whichever ends first.
func (m *Mutex) Lock(ctx context.Context) (unlock func(), err error) {
	if m.sem.TryAcquire(1) {
		return m.release, nil
	}

	m.logger.Trace("lock contended, waiting", "lock", m.name, "timeout", m.timeout)
	start := time.Now()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		waited := time.Since(start)
		m.logger.Warn("lock acquisition gave up", "lock", m.name, "waited", waited, "error", err)
		return nil, fmt.Errorf("%w: %s after %s: %w", ErrTimeout, m.name, waited.Round(time.Microsecond), err)
	}
	return m.release, nil
}

// MustLock waits without a deadline. It is for short read paths that have
// no way to report failure.
func (m *Mutex) MustLock() (unlock func()) {
	if !m.sem.TryAcquire(1) {
		// Background never expires, so Acquire cannot fail here.
		_ = m.sem.Acquire(context.Background(), 1)
	}
	return m.release
}

func (m *Mutex) release() { m.sem.Release(1) }
