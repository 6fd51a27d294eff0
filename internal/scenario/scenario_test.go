package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcodamonte/sharedstate/config"
)

func testRunner() Runner {
	cfg := config.Default()
	cfg.Items = 2000
	cfg.Workers = 8
	cfg.Readers = 4
	return Runner{Config: cfg}
}

func requireAllOK(t *testing.T, results []Result) {
	t.Helper()
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, r := range results {
		if !r.OK() {
			t.Errorf("%s", r)
		}
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()
	requireAllOK(t, testRunner().Counters(context.Background()))
}

func TestRepositories(t *testing.T) {
	t.Parallel()
	requireAllOK(t, testRunner().Repositories(context.Background()))
}

func TestRegistries(t *testing.T) {
	t.Parallel()
	requireAllOK(t, testRunner().Registries(context.Background()))
}

func TestObservers(t *testing.T) {
	t.Parallel()
	requireAllOK(t, testRunner().Observers(context.Background()))
}

func TestUnderflowGuardHonoursConfiguredFloor(t *testing.T) {
	t.Parallel()

	r := testRunner()
	floor := int64(-3)
	r.Config.Floor = &floor
	for _, impl := range counterImpls {
		if err := r.underflowGuard(impl); err != nil {
			t.Errorf("%s: %v", impl.name, err)
		}
	}
}

func TestFailedCombinesErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	results := []Result{
		{Property: "a", Impl: "x"},
		{Property: "b", Impl: "y", Err: errBoom, Elapsed: time.Millisecond},
	}
	err := Failed(results)
	if !errors.Is(err, errBoom) {
		t.Errorf("Failed() = %v; want it to wrap errBoom", err)
	}
	if Failed(results[:1]) != nil {
		t.Error("Failed() on passing results should be nil")
	}
}

func TestFanOutReportsJobErrors(t *testing.T) {
	t.Parallel()

	errOdd := errors.New("odd")
	err := testRunner().fanOut(context.Background(), 10, func(_ context.Context, i int) error {
		if i%2 == 1 {
			return errOdd
		}
		return nil
	})
	if !errors.Is(err, errOdd) {
		t.Errorf("fanOut() = %v; want it to wrap errOdd", err)
	}
}
