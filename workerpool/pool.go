// Package workerpool runs jobs on a fixed number of goroutines. It is the
// scheduler the scenarios use to hammer the shared-state components from
// many workers at once, with graceful shutdown, context-based cancellation,
// atomic counters and structured logging.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Job is the unit of work submitted to the pool. The function receives the
// pool's context so it can respect cancellation.
type Job func(ctx context.Context) error

// Config holds pool construction parameters.
type Config struct {
	// Workers is the number of goroutines that consume jobs concurrently.
	Workers int

	// QueueSize is the capacity of the internal job channel. A value of 0
	// makes the channel unbuffered (submit blocks until a worker is free).
	QueueSize int

	// ShutdownTimeout is the maximum time Shutdown waits for in-flight jobs
	// to finish before cancelling them. Defaults to 30 s.
	ShutdownTimeout time.Duration

	// Logger receives lifecycle and failure events. Defaults to a null logger.
	Logger hclog.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = 30 * time.Second
	}
	if out.Logger == nil {
		out.Logger = hclog.NewNullLogger()
	}
	return out
}

// Metrics is a point-in-time copy of the pool counters.
type Metrics struct {
	Submitted int64 // total jobs ever enqueued
	Started   int64 // jobs a worker picked up
	Succeeded int64 // jobs that returned nil
	Failed    int64 // jobs that returned a non-nil error
	Dropped   int64 // jobs rejected after shutdown began
}

type counters struct {
	submitted, started, succeeded, failed, dropped atomic.Int64
}

// Pool is a fixed-size worker pool.
//
//	pool := workerpool.New(cfg)
//	pool.Submit(ctx, job) // blocks while the queue is full
//	pool.Shutdown()       // stop accepting, drain, cancel stragglers
//	pool.Err()            // every job failure, combined
type Pool struct {
	cfg      Config
	log      hclog.Logger
	jobs     chan Job
	wg       sync.WaitGroup
	counters counters

	workerCtx     context.Context
	cancelWorkers context.CancelFunc

	once sync.Once

	// closing is closed first by Shutdown and wakes any Submit blocked on a
	// full queue. closeMu keeps sends in Submit from racing close(jobs);
	// Submit never holds it past closing.
	closing chan struct{}
	closeMu sync.RWMutex

	errMu sync.Mutex
	errs  *multierror.Error // guarded by errMu
}

// New creates a Pool and starts its workers. Workers run until Shutdown.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	p := &Pool{
		cfg:           cfg,
		log:           cfg.Logger.Named("workerpool"),
		jobs:          make(chan Job, cfg.QueueSize),
		closing:       make(chan struct{}),
		workerCtx:     workerCtx,
		cancelWorkers: cancelWorkers,
	}

	p.log.Debug("starting", "workers", cfg.Workers, "queue", cfg.QueueSize, "shutdown_timeout", cfg.ShutdownTimeout)

	for i := range cfg.Workers {
		p.wg.Add(1)
		go p.runWorker(i)
	}

	return p
}

// Submit enqueues a job. It returns ErrPoolClosed once Shutdown has begun.
// While the queue is full it blocks, respecting the caller's context.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()

	select {
	case <-p.closing:
		p.counters.dropped.Add(1)
		return ErrPoolClosed
	default:
	}

	select {
	case p.jobs <- job:
		p.counters.submitted.Add(1)
		return nil
	case <-p.closing:
		p.counters.dropped.Add(1)
		return ErrPoolClosed
	case <-ctx.Done():
		p.counters.dropped.Add(1)
		return fmt.Errorf("submit cancelled: %w", ctx.Err())
	}
}

// Shutdown stops the pool gracefully:
//  1. Marks the pool as closed so no new jobs are accepted and blocked
//     Submit calls return ErrPoolClosed.
//  2. Closes the jobs channel so workers drain the queue and exit.
//  3. Waits up to ShutdownTimeout for workers to finish.
//  4. On timeout, cancels the worker context and waits for workers to exit.
//
// Shutdown is idempotent. It returns ErrShutdownTimeout if step 4 was needed.
func (p *Pool) Shutdown() error {
	var shutdownErr error

	p.once.Do(func() {
		p.log.Debug("shutdown initiated")

		close(p.closing)
		p.closeMu.Lock()
		close(p.jobs)
		p.closeMu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.log.Debug("shutdown complete")

		case <-time.After(p.cfg.ShutdownTimeout):
			p.log.Warn("shutdown timeout elapsed, cancelling workers", "timeout", p.cfg.ShutdownTimeout)
			p.cancelWorkers()
			<-done
			shutdownErr = ErrShutdownTimeout
		}
		p.cancelWorkers()
	})

	return shutdownErr
}

// Err returns every job failure seen so far combined into one error, or nil.
func (p *Pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.errs.ErrorOrNil()
}

// Metrics returns a snapshot of pool counters. Each field is read atomically
// but fields are not mutually consistent.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Submitted: p.counters.submitted.Load(),
		Started:   p.counters.started.Load(),
		Succeeded: p.counters.succeeded.Load(),
		Failed:    p.counters.failed.Load(),
		Dropped:   p.counters.dropped.Load(),
	}
}

func (p *Pool) recordFailure(err error) {
	p.counters.failed.Add(1)
	p.errMu.Lock()
	p.errs = multierror.Append(p.errs, err)
	p.errMu.Unlock()
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	log := p.log.With("worker", id)
	log.Trace("started")

	for job := range p.jobs {
		if err := p.workerCtx.Err(); err != nil {
			p.recordFailure(fmt.Errorf("job skipped: %w", err))
			continue
		}

		p.counters.started.Add(1)

		if err := job(p.workerCtx); err != nil {
			p.recordFailure(err)
			log.Debug("job failed", "error", err)
		} else {
			p.counters.succeeded.Add(1)
		}
	}

	log.Trace("exited")
}

// Sentinel errors returned by the pool.
var (
	ErrPoolClosed      = errors.New("worker pool is closed")
	ErrShutdownTimeout = errors.New("shutdown timeout elapsed; workers were cancelled")
)
