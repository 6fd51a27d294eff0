// Package scenario drives the shared-state components from many workers at
// once and checks the properties each one promises. The CLI prints the
// results; the tests assert on them.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/marcodamonte/sharedstate/config"
	"github.com/marcodamonte/sharedstate/workerpool"
)

// Result is the outcome of checking one property against one implementation.
type Result struct {
	Property string
	Impl     string
	Elapsed  time.Duration
	Err      error
}

func (r Result) OK() bool { return r.Err == nil }

func (r Result) String() string {
	status := "ok"
	if r.Err != nil {
		status = "FAIL: " + r.Err.Error()
	}
	return fmt.Sprintf("%-28s %-14s %8s  %s", r.Property, r.Impl, r.Elapsed.Round(time.Microsecond), status)
}

// Failed combines the errors of every failed result, or returns nil.
func Failed(results []Result) error {
	var errs *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s/%s: %w", r.Property, r.Impl, r.Err))
		}
	}
	return errs.ErrorOrNil()
}

// Runner holds what every scenario needs.
type Runner struct {
	Config config.Config
	Logger hclog.Logger
}

func (r Runner) logger() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger
}

func (r Runner) check(property, impl string, fn func() error) Result {
	start := time.Now()
	err := fn()
	res := Result{Property: property, Impl: impl, Elapsed: time.Since(start), Err: err}
	if err != nil {
		r.logger().Error("property violated", "property", property, "impl", impl, "error", err)
	} else {
		r.logger().Debug("property holds", "property", property, "impl", impl, "elapsed", res.Elapsed)
	}
	return res
}

// fanOut runs job n times on a fresh pool and waits for all of them. Job
// failures and a forced shutdown are both reported.
func (r Runner) fanOut(ctx context.Context, n int, job func(ctx context.Context, i int) error) error {
	pool := workerpool.New(workerpool.Config{
		Workers:   r.Config.Workers,
		QueueSize: r.Config.Workers,
		Logger:    r.logger(),
	})

	var submitErr error
	for i := range n {
		if err := pool.Submit(ctx, func(ctx context.Context) error { return job(ctx, i) }); err != nil {
			submitErr = err
			break
		}
	}

	var errs *multierror.Error
	if err := pool.Shutdown(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if submitErr != nil {
		errs = multierror.Append(errs, submitErr)
	}
	if err := pool.Err(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
