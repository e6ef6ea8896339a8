package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/events"
	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/repository"
)

// dispositionTypeEscalated marks a close that went through escalation.
const dispositionTypeEscalated = "ESCALATED"

// AnalyticsService owns the append-only disposition log and the per-agent
// rollups derived from it on demand.
type AnalyticsService struct {
	state      repository.StateRepository
	archive    repository.DispositionArchiveRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	capacity   int
	now        func() time.Time
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	State      repository.StateRepository
	Archive    repository.DispositionArchiveRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Capacity   int
	Now        func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	capacity := deps.Capacity
	if capacity <= 0 {
		capacity = 500
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		state:      deps.State,
		archive:    deps.Archive,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		capacity:   capacity,
		now:        now,
	}
}

// RecordDisposition appends a disposition record for a tracked ticket.
// Disposing an untracked ticket is a warned no-op, not an error: the close
// simply is not observable for TAT purposes.
func (s *AnalyticsService) RecordDisposition(ctx context.Context, ticketID, dispositionType string) error {
	snapshots, err := s.state.GetSnapshots(ctx)
	if err != nil {
		return err
	}
	snapshot, ok := snapshots[ticketID]
	if !ok {
		s.metrics.Inc(observability.MetricUntrackedDispositions)
		s.logger.Warn("disposition for untracked ticket ignored",
			zap.String("ticket_id", ticketID),
			zap.String("disposition_type", dispositionType))
		return nil
	}

	now := s.now()
	tatHours := now.Sub(snapshot.AssignedAt).Hours()
	record := domain.DispositionRecord{
		ID:              uuid.NewString(),
		TicketID:        snapshot.TicketID,
		Subject:         snapshot.Subject,
		Category:        snapshot.SLACategory,
		Agent:           snapshot.AssignedTo,
		AssignedAt:      snapshot.AssignedAt,
		DisposedAt:      now,
		TATHours:        tatHours,
		DispositionType: dispositionType,
		IsEscalated:     snapshot.EscalationCount > 0 || strings.EqualFold(dispositionType, dispositionTypeEscalated),
		WasOverdue:      tatHours > snapshot.SLAHours,
	}

	err = s.state.UpdateDispositions(ctx, func(records []domain.DispositionRecord) []domain.DispositionRecord {
		records = append(records, record)
		if len(records) > s.capacity {
			records = records[len(records)-s.capacity:]
		}
		return records
	})
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Insert(ctx, &record); err != nil {
			s.metrics.Inc(observability.MetricArchiveFailures)
			s.logger.Warn("disposition archive insert failed", zap.Error(err),
				zap.String("ticket_id", record.TicketID))
		}
	}

	s.metrics.Inc(observability.MetricDispositionsRecorded)
	s.publishEvent(ctx, events.Event{
		Type: events.EventDispositionRecorded,
		Payload: events.DispositionRecordedPayload{
			TicketID:        record.TicketID,
			Agent:           record.Agent,
			DispositionType: record.DispositionType,
			WasOverdue:      record.WasOverdue,
		},
	})
	return nil
}

// ArchivedDispositions reads recent records back from the postgres archive.
// Without a configured archive the bounded in-store log is the only history.
func (s *AnalyticsService) ArchivedDispositions(ctx context.Context, limit int) ([]domain.DispositionRecord, error) {
	if s.archive == nil {
		return s.state.GetDispositions(ctx)
	}
	return s.archive.ListRecent(ctx, limit)
}

// AgentStats folds the disposition log for one agent. Agents with zero
// records get an all-zero rollup rather than an error.
func (s *AnalyticsService) AgentStats(ctx context.Context, agent string) (domain.AgentRollup, error) {
	records, err := s.state.GetDispositions(ctx)
	if err != nil {
		return domain.AgentRollup{}, err
	}
	for _, rollup := range rollupByAgent(records) {
		if rollup.Agent == agent {
			return rollup, nil
		}
	}
	return domain.AgentRollup{Agent: agent}, nil
}

// AllAgentStats folds the full disposition log, sorted by escalation rate
// descending so the worst performers surface first. The ordering is a
// user-facing contract.
func (s *AnalyticsService) AllAgentStats(ctx context.Context) ([]domain.AgentRollup, error) {
	records, err := s.state.GetDispositions(ctx)
	if err != nil {
		return nil, err
	}
	rollups := rollupByAgent(records)
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].EscalationRatePct != rollups[j].EscalationRatePct {
			return rollups[i].EscalationRatePct > rollups[j].EscalationRatePct
		}
		return rollups[i].Agent < rollups[j].Agent
	})
	return rollups, nil
}

// Summary combines the pending snapshot counts with the historical log and
// agent rollups for the UI layer.
func (s *AnalyticsService) Summary(ctx context.Context, pending domain.PendingSummary) (domain.MonitorSummary, error) {
	records, err := s.state.GetDispositions(ctx)
	if err != nil {
		return domain.MonitorSummary{}, err
	}

	historical := domain.HistoricalSummary{TotalDispositions: len(records)}
	var totalTAT float64
	for _, record := range records {
		totalTAT += record.TATHours
		if record.IsEscalated {
			historical.Escalated++
		}
		if record.WasOverdue {
			historical.Overdue++
		}
	}
	if len(records) > 0 {
		historical.AvgTATHours = roundHours(totalTAT / float64(len(records)))
	}

	rollups, err := s.AllAgentStats(ctx)
	if err != nil {
		return domain.MonitorSummary{}, err
	}
	return domain.MonitorSummary{
		Pending:    pending,
		Historical: historical,
		Agents:     rollups,
	}, nil
}

// ExportRows serializes the disposition log plus the agent rollups into a
// flat table: one row per disposition, a blank spacer, then a summary block
// with one row per agent.
func (s *AnalyticsService) ExportRows(ctx context.Context) ([][]string, error) {
	records, err := s.state.GetDispositions(ctx)
	if err != nil {
		return nil, err
	}
	rollups, err := s.AllAgentStats(ctx)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{
		"ticketId", "subject", "category", "agent", "assignedAt", "disposedAt",
		"tatHours", "dispositionType", "isEscalated", "wasOverdue",
	}}
	for _, record := range records {
		rows = append(rows, []string{
			record.TicketID,
			record.Subject,
			string(record.Category),
			record.Agent,
			record.AssignedAt.Format(time.RFC3339),
			record.DisposedAt.Format(time.RFC3339),
			formatHours(record.TATHours),
			record.DispositionType,
			strconv.FormatBool(record.IsEscalated),
			strconv.FormatBool(record.WasOverdue),
		})
	}

	rows = append(rows, []string{})
	rows = append(rows, []string{
		"agent", "totalTickets", "resolved", "escalated", "escalationRatePct",
		"avgTatHours", "overdueCount", "overdueRatePct",
	})
	for _, rollup := range rollups {
		rows = append(rows, []string{
			rollup.Agent,
			strconv.Itoa(rollup.TotalTickets),
			strconv.Itoa(rollup.ResolvedCount),
			strconv.Itoa(rollup.EscalatedCount),
			strconv.Itoa(rollup.EscalationRatePct),
			formatHours(rollup.AvgTATHours),
			strconv.Itoa(rollup.OverdueCount),
			strconv.Itoa(rollup.OverdueRatePct),
		})
	}
	return rows, nil
}

func rollupByAgent(records []domain.DispositionRecord) []domain.AgentRollup {
	byAgent := make(map[string]*domain.AgentRollup)
	totals := make(map[string]float64)
	order := []string{}
	for _, record := range records {
		rollup, ok := byAgent[record.Agent]
		if !ok {
			rollup = &domain.AgentRollup{Agent: record.Agent}
			byAgent[record.Agent] = rollup
			order = append(order, record.Agent)
		}
		rollup.TotalTickets++
		if record.IsEscalated {
			rollup.EscalatedCount++
		} else {
			rollup.ResolvedCount++
		}
		if record.WasOverdue {
			rollup.OverdueCount++
		}
		totals[record.Agent] += record.TATHours
	}

	rollups := make([]domain.AgentRollup, 0, len(order))
	for _, agent := range order {
		rollup := byAgent[agent]
		rollup.EscalationRatePct = ratePct(rollup.EscalatedCount, rollup.TotalTickets)
		rollup.OverdueRatePct = ratePct(rollup.OverdueCount, rollup.TotalTickets)
		rollup.AvgTATHours = roundHours(totals[agent] / float64(rollup.TotalTickets))
		rollups = append(rollups, *rollup)
	}
	return rollups
}

func ratePct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func roundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', 2, 64)
}

func (s *AnalyticsService) publishEvent(ctx context.Context, event events.Event) {
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
