package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/repository"
)

// CycleRunner executes one poll cycle against the ticketing API.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Poller drives the monitor on a fixed cadence. At most one cycle is in
// flight at a time: a tick (or manual trigger) that fires while a cycle is
// still running is coalesced, not queued, so the state store never sees
// concurrent merges. Stop is safe to call at any time, including mid-cycle;
// the in-flight cycle completes but no new cycle starts.
type Poller struct {
	runner   CycleRunner
	interval time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger

	inFlight atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPoller constructs the scheduler.
func NewPoller(runner CycleRunner, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	return &Poller{
		runner:   runner,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the poll loop in its own goroutine. The first cycle runs
// immediately; subsequent cycles follow the configured cadence.
func (p *Poller) Start(ctx context.Context) {
	go p.loop(ctx)
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.doneCh)

	p.logger.Info("poller started", zap.Duration("interval", p.interval))
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.runOnce(ctx)
		case <-p.stopCh:
			p.logger.Info("poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("poller context cancelled")
			return
		}
	}
}

// TriggerNow runs a cycle outside the timer cadence, subject to the same
// coalescing gate. It reports whether a cycle actually started.
func (p *Poller) TriggerNow(ctx context.Context) bool {
	select {
	case <-p.stopCh:
		return false
	default:
	}
	return p.runOnce(ctx)
}

func (p *Poller) runOnce(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.Inc(observability.MetricCyclesCoalesced)
		p.logger.Debug("poll tick coalesced; previous cycle still in flight")
		return false
	}
	defer p.inFlight.Store(false)

	if err := p.runner.RunCycle(ctx); err != nil {
		if errors.Is(err, repository.ErrStoreClosed) {
			// Environment detachment: fatal to the scheduler only.
			p.logger.Warn("state store closed; poller stopping itself")
			p.Stop()
			return true
		}
		p.logger.Error("poll cycle failed", zap.Error(err))
	}
	return true
}

// Stop requests a clean shutdown. Safe to call repeatedly and from any
// goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Wait blocks until the poll loop has exited.
func (p *Poller) Wait() {
	<-p.doneCh
}
