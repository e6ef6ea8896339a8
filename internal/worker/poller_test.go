package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/repository"
)

// blockingRunner blocks its first cycle until released so tests can observe
// the in-flight gate.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) RunCycle(ctx context.Context) error {
	if r.calls.Add(1) == 1 {
		close(r.started)
		<-r.release
	}
	return nil
}

type errRunner struct {
	err   error
	calls atomic.Int32
}

func (r *errRunner) RunCycle(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func waitOrFail(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestPollerCoalescesOverlappingCycles(t *testing.T) {
	runner := newBlockingRunner()
	metrics := observability.NewMetrics()
	poller := NewPoller(runner, time.Hour, metrics, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	waitOrFail(t, runner.started, "first cycle to start")

	// First cycle is blocked in flight: a trigger must coalesce.
	if poller.TriggerNow(ctx) {
		t.Error("TriggerNow started a cycle while one was in flight")
	}
	if metrics.Snapshot()[observability.MetricCyclesCoalesced] != 1 {
		t.Error("coalesced counter not incremented")
	}

	close(runner.release)

	// Once the blocked cycle drains, triggering succeeds again.
	deadline := time.After(2 * time.Second)
	for !poller.TriggerNow(ctx) {
		select {
		case <-deadline:
			t.Fatal("TriggerNow never succeeded after the in-flight cycle finished")
		case <-time.After(10 * time.Millisecond):
		}
	}

	poller.Stop()
	poller.Wait()
}

func TestPollerSelfStopsOnStoreClosed(t *testing.T) {
	runner := &errRunner{err: repository.ErrStoreClosed}
	poller := NewPoller(runner, 10*time.Millisecond, observability.NewMetrics(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)

	done := make(chan struct{})
	go func() {
		poller.Wait()
		close(done)
	}()
	waitOrFail(t, done, "poller to stop itself")

	if runner.calls.Load() != 1 {
		t.Errorf("cycles run = %d, want 1 (detachment is fatal to the scheduler)", runner.calls.Load())
	}
	if poller.TriggerNow(ctx) {
		t.Error("TriggerNow started a cycle on a stopped poller")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	runner := &errRunner{}
	poller := NewPoller(runner, time.Hour, observability.NewMetrics(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)

	poller.Stop()
	poller.Stop()
	poller.Wait()

	if poller.TriggerNow(ctx) {
		t.Error("TriggerNow started a cycle after Stop")
	}
}

func TestPollerRunsFirstCycleImmediately(t *testing.T) {
	runner := &errRunner{}
	poller := NewPoller(runner, time.Hour, observability.NewMetrics(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle did not run immediately on start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	poller.Stop()
	poller.Wait()
}
