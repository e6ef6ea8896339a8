package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/events"
	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/repository"
	"github.com/spec-kit/tat-monitor/internal/tat"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
)

// MonitorService runs the poll cycle: fetch pending tickets, reconcile each
// against its event history, rebuild snapshots, merge them into the state
// store, and emit the batch outcome. It also serves snapshot queries for
// the UI layer.
type MonitorService struct {
	source          ticketing.Source
	state           repository.StateRepository
	dispatcher      events.Dispatcher
	metrics         *observability.Metrics
	logger          *zap.Logger
	pendingFilter   ticketing.PendingFilter
	retentionCycles int
	now             func() time.Time
}

// MonitorDependencies bundles collaborators for the monitor service.
type MonitorDependencies struct {
	Source          ticketing.Source
	State           repository.StateRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	PendingFilter   ticketing.PendingFilter
	RetentionCycles int
	Now             func() time.Time
}

// NewMonitorService constructs the service.
func NewMonitorService(deps MonitorDependencies) *MonitorService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &MonitorService{
		source:          deps.Source,
		state:           deps.State,
		dispatcher:      deps.Dispatcher,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		pendingFilter:   deps.PendingFilter,
		retentionCycles: deps.RetentionCycles,
		now:             now,
	}
}

// RunCycle executes one poll cycle. Upstream failures are downgraded to
// "no data this cycle" and never propagate; only a closed state store is
// returned to the caller so the scheduler can stop itself.
func (s *MonitorService) RunCycle(ctx context.Context) error {
	now := s.now()

	tickets, err := s.source.FetchPendingTickets(ctx, s.pendingFilter)
	if err != nil {
		s.metrics.Inc(observability.MetricFetchErrors)
		s.logger.Warn("pending ticket fetch failed; skipping cycle", zap.Error(err))
		return nil
	}

	built := make(map[string]domain.Snapshot, len(tickets))
	pending := make(map[string]struct{}, len(tickets))
	skipped := 0
	for _, ticket := range tickets {
		pending[ticket.TicketID] = struct{}{}

		history, err := s.source.FetchTicketHistory(ctx, ticket.TicketID)
		if err != nil {
			s.metrics.Inc(observability.MetricFetchErrors)
			s.logger.Warn("history fetch failed; ticket skipped this cycle",
				zap.String("ticket_id", ticket.TicketID), zap.Error(err))
			skipped++
			continue
		}

		rec, err := tat.Reconcile(history, now)
		if err != nil {
			if errors.Is(err, tat.ErrNoAssignment) {
				// Not yet assigned: expected transient state, prior
				// snapshot (if any) stays untouched.
				skipped++
				continue
			}
			s.logger.Warn("reconciliation failed",
				zap.String("ticket_id", ticket.TicketID), zap.Error(err))
			skipped++
			continue
		}
		if rec.TimestampFallbacks > 0 {
			s.metrics.Add(observability.MetricTimestampFallbacks, int64(rec.TimestampFallbacks))
			s.logger.Warn("history events with unparseable timestamps normalized to now",
				zap.String("ticket_id", ticket.TicketID),
				zap.Int("count", rec.TimestampFallbacks))
		}
		if rec.Agent == domain.UnknownAgent {
			s.logger.Warn("assignee not extractable from assignment remark",
				zap.String("ticket_id", ticket.TicketID))
		}

		built[ticket.TicketID] = tat.BuildSnapshot(ticket, rec, now)
	}

	var overdue, dueSoon, onTrack int
	err = s.state.UpdateSnapshots(ctx, func(stored map[string]domain.Snapshot) {
		for id, snapshot := range built {
			stored[id] = snapshot
		}
		for id, snapshot := range stored {
			if _, isBuilt := built[id]; isBuilt {
				continue
			}
			if _, isPending := pending[id]; isPending {
				// Still pending but skipped this cycle: keep as-is.
				snapshot.MissedCycles = 0
			} else {
				snapshot.MissedCycles++
				if s.retentionCycles > 0 && snapshot.MissedCycles >= s.retentionCycles {
					delete(stored, id)
					continue
				}
			}
			stored[id] = snapshot
		}
		for _, snapshot := range stored {
			switch snapshot.Urgency {
			case domain.UrgencyOverdue:
				overdue++
			case domain.UrgencyDueSoon:
				dueSoon++
			default:
				onTrack++
			}
		}
	})
	if err != nil {
		if errors.Is(err, repository.ErrStoreClosed) {
			return err
		}
		s.logger.Warn("snapshot merge failed; state unchanged this cycle", zap.Error(err))
		return nil
	}

	s.metrics.Inc(observability.MetricCyclesRun)
	s.metrics.Add(observability.MetricTicketsProcessed, int64(len(built)))
	s.metrics.Add(observability.MetricTicketsSkipped, int64(skipped))

	s.publishEvent(ctx, events.Event{
		Type: events.EventPollCycleCompleted,
		Payload: events.PollCycleCompletedPayload{
			OverdueCount: overdue,
			DueSoonCount: dueSoon,
			OnTrackCount: onTrack,
			Processed:    len(built),
			Skipped:      skipped,
		},
	})
	return nil
}

// GroupedSnapshots returns tracked tickets bucketed by urgency, each bucket
// ascending by remaining hours (most pressed first).
func (s *MonitorService) GroupedSnapshots(ctx context.Context) (domain.GroupedSnapshots, error) {
	stored, err := s.state.GetSnapshots(ctx)
	if err != nil {
		return domain.GroupedSnapshots{}, err
	}

	grouped := domain.GroupedSnapshots{
		Overdue: []domain.Snapshot{},
		DueSoon: []domain.Snapshot{},
		OnTrack: []domain.Snapshot{},
	}
	for _, snapshot := range stored {
		switch snapshot.Urgency {
		case domain.UrgencyOverdue:
			grouped.Overdue = append(grouped.Overdue, snapshot)
		case domain.UrgencyDueSoon:
			grouped.DueSoon = append(grouped.DueSoon, snapshot)
		default:
			grouped.OnTrack = append(grouped.OnTrack, snapshot)
		}
	}
	sortByRemaining(grouped.Overdue)
	sortByRemaining(grouped.DueSoon)
	sortByRemaining(grouped.OnTrack)
	return grouped, nil
}

// PendingSummary counts tracked snapshots by urgency.
func (s *MonitorService) PendingSummary(ctx context.Context) (domain.PendingSummary, error) {
	stored, err := s.state.GetSnapshots(ctx)
	if err != nil {
		return domain.PendingSummary{}, err
	}
	summary := domain.PendingSummary{Total: len(stored)}
	for _, snapshot := range stored {
		switch snapshot.Urgency {
		case domain.UrgencyOverdue:
			summary.Overdue++
		case domain.UrgencyDueSoon:
			summary.DueSoon++
		default:
			summary.OnTrack++
		}
	}
	return summary, nil
}

func sortByRemaining(snapshots []domain.Snapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].RemainingHours != snapshots[j].RemainingHours {
			return snapshots[i].RemainingHours < snapshots[j].RemainingHours
		}
		return snapshots[i].TicketID < snapshots[j].TicketID
	})
}

func (s *MonitorService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
