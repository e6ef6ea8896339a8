package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/events"
	"github.com/spec-kit/tat-monitor/internal/observability"
	"github.com/spec-kit/tat-monitor/internal/repository"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
)

var testNow = time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

func newMonitorForTest(state *fakeState, source *fakeSource, dispatcher events.Dispatcher, metrics *observability.Metrics) *MonitorService {
	return NewMonitorService(MonitorDependencies{
		Source:          source,
		State:           state,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          zap.NewNop(),
		RetentionCycles: 2,
		Now:             func() time.Time { return testNow },
	})
}

func TestRunCycleBuildsSnapshotsAndPublishes(t *testing.T) {
	assignedAt := testNow.Add(-80 * time.Hour)
	source := &fakeSource{
		tickets: []ticketing.PendingTicket{{
			TicketID:  "TKT-1",
			TaskTitle: "Shortage loss not credited",
			Status:    "OPEN",
		}},
		histories: map[string][]ticketing.HistoryEvent{
			"TKT-1": assignmentHistory(t, assignedAt.Unix(), "assigned to Rahul Verma"),
		},
	}
	state := newFakeState()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var payload events.PollCycleCompletedPayload
	dispatcher.Subscribe(events.EventPollCycleCompleted, func(ctx context.Context, ev events.Event) error {
		payload = ev.Payload.(events.PollCycleCompletedPayload)
		return nil
	})

	svc := newMonitorForTest(state, source, dispatcher, metrics)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	snap, ok := state.snapshots["TKT-1"]
	if !ok {
		t.Fatal("snapshot for TKT-1 not stored")
	}
	if snap.Urgency != domain.UrgencyOverdue {
		t.Errorf("Urgency = %q, want %q", snap.Urgency, domain.UrgencyOverdue)
	}
	if snap.AssignedTo != "Rahul Verma" {
		t.Errorf("AssignedTo = %q, want %q", snap.AssignedTo, "Rahul Verma")
	}
	if payload.OverdueCount != 1 || payload.Processed != 1 || payload.Skipped != 0 {
		t.Errorf("payload = %+v, want overdue=1 processed=1 skipped=0", payload)
	}
	counters := metrics.Snapshot()
	if counters[observability.MetricCyclesRun] != 1 {
		t.Errorf("cycles run = %d, want 1", counters[observability.MetricCyclesRun])
	}
	if counters[observability.MetricTicketsProcessed] != 1 {
		t.Errorf("tickets processed = %d, want 1", counters[observability.MetricTicketsProcessed])
	}
}

func TestRunCycleFetchFailureKeepsState(t *testing.T) {
	state := newFakeState()
	state.snapshots["TKT-1"] = domain.Snapshot{TicketID: "TKT-1", Urgency: domain.UrgencyOnTrack}
	source := &fakeSource{listErr: errors.New("upstream down")}
	metrics := observability.NewMetrics()

	svc := newMonitorForTest(state, source, nil, metrics)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle should absorb fetch errors, got %v", err)
	}

	if _, ok := state.snapshots["TKT-1"]; !ok {
		t.Error("prior snapshot dropped on fetch failure")
	}
	counters := metrics.Snapshot()
	if counters[observability.MetricFetchErrors] != 1 {
		t.Errorf("fetch errors = %d, want 1", counters[observability.MetricFetchErrors])
	}
	if counters[observability.MetricCyclesRun] != 0 {
		t.Errorf("cycles run = %d, want 0 (cycle skipped)", counters[observability.MetricCyclesRun])
	}
}

func TestRunCycleHistoryErrorKeepsPriorSnapshot(t *testing.T) {
	state := newFakeState()
	state.snapshots["TKT-1"] = domain.Snapshot{TicketID: "TKT-1", Urgency: domain.UrgencyDueSoon}
	source := &fakeSource{
		tickets:     []ticketing.PendingTicket{{TicketID: "TKT-1", TaskTitle: "anything"}},
		historyErrs: map[string]error{"TKT-1": errors.New("timeout")},
	}
	metrics := observability.NewMetrics()

	svc := newMonitorForTest(state, source, nil, metrics)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	snap, ok := state.snapshots["TKT-1"]
	if !ok {
		t.Fatal("prior snapshot dropped when history fetch failed")
	}
	if snap.Urgency != domain.UrgencyDueSoon {
		t.Errorf("snapshot rebuilt despite skip: urgency %q", snap.Urgency)
	}
	if snap.MissedCycles != 0 {
		t.Errorf("MissedCycles = %d, want 0 (ticket still pending)", snap.MissedCycles)
	}
	if metrics.Snapshot()[observability.MetricTicketsSkipped] != 1 {
		t.Error("skipped counter not incremented")
	}
}

func TestRunCycleNoAssignmentSkips(t *testing.T) {
	state := newFakeState()
	source := &fakeSource{
		tickets: []ticketing.PendingTicket{{TicketID: "TKT-2", TaskTitle: "COD deposit slip"}},
		histories: map[string][]ticketing.HistoryEvent{
			"TKT-2": plainHistory(t, "CREATED", testNow.Add(-time.Hour).Unix()),
		},
	}
	metrics := observability.NewMetrics()

	svc := newMonitorForTest(state, source, nil, metrics)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if _, ok := state.snapshots["TKT-2"]; ok {
		t.Error("unassigned ticket must not be tracked")
	}
	if metrics.Snapshot()[observability.MetricTicketsSkipped] != 1 {
		t.Error("skipped counter not incremented")
	}
}

func TestRunCyclePrunesDepartedTickets(t *testing.T) {
	state := newFakeState()
	state.snapshots["TKT-GONE"] = domain.Snapshot{TicketID: "TKT-GONE", Urgency: domain.UrgencyOnTrack}
	source := &fakeSource{}
	metrics := observability.NewMetrics()

	svc := newMonitorForTest(state, source, nil, metrics)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	snap, ok := state.snapshots["TKT-GONE"]
	if !ok {
		t.Fatal("snapshot evicted too early")
	}
	if snap.MissedCycles != 1 {
		t.Fatalf("MissedCycles = %d, want 1", snap.MissedCycles)
	}

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if _, ok := state.snapshots["TKT-GONE"]; ok {
		t.Error("snapshot not evicted after retention cycles elapsed")
	}
}

func TestRunCycleStoreClosedPropagates(t *testing.T) {
	state := newFakeState()
	state.err = repository.ErrStoreClosed
	source := &fakeSource{}

	svc := newMonitorForTest(state, source, nil, observability.NewMetrics())
	err := svc.RunCycle(context.Background())
	if !errors.Is(err, repository.ErrStoreClosed) {
		t.Fatalf("err = %v, want ErrStoreClosed", err)
	}
}

func TestGroupedSnapshotsOrdering(t *testing.T) {
	state := newFakeState()
	state.snapshots["B"] = domain.Snapshot{TicketID: "B", Urgency: domain.UrgencyOverdue, RemainingHours: -2}
	state.snapshots["A"] = domain.Snapshot{TicketID: "A", Urgency: domain.UrgencyOverdue, RemainingHours: -8}
	state.snapshots["C"] = domain.Snapshot{TicketID: "C", Urgency: domain.UrgencyDueSoon, RemainingHours: 3}
	state.snapshots["D"] = domain.Snapshot{TicketID: "D", Urgency: domain.UrgencyOnTrack, RemainingHours: 40}
	state.snapshots["E"] = domain.Snapshot{TicketID: "E", Urgency: domain.UrgencyOnTrack, RemainingHours: 40}

	svc := newMonitorForTest(state, &fakeSource{}, nil, nil)
	grouped, err := svc.GroupedSnapshots(context.Background())
	if err != nil {
		t.Fatalf("GroupedSnapshots: %v", err)
	}

	if len(grouped.Overdue) != 2 || grouped.Overdue[0].TicketID != "A" || grouped.Overdue[1].TicketID != "B" {
		t.Errorf("overdue bucket = %+v, want [A B] by remaining ascending", ticketIDs(grouped.Overdue))
	}
	if len(grouped.DueSoon) != 1 || grouped.DueSoon[0].TicketID != "C" {
		t.Errorf("due-soon bucket = %+v, want [C]", ticketIDs(grouped.DueSoon))
	}
	// Equal remaining hours tie-break by ticket id.
	if len(grouped.OnTrack) != 2 || grouped.OnTrack[0].TicketID != "D" || grouped.OnTrack[1].TicketID != "E" {
		t.Errorf("on-track bucket = %+v, want [D E]", ticketIDs(grouped.OnTrack))
	}
}

func TestPendingSummaryCounts(t *testing.T) {
	state := newFakeState()
	state.snapshots["A"] = domain.Snapshot{TicketID: "A", Urgency: domain.UrgencyOverdue}
	state.snapshots["B"] = domain.Snapshot{TicketID: "B", Urgency: domain.UrgencyDueSoon}
	state.snapshots["C"] = domain.Snapshot{TicketID: "C", Urgency: domain.UrgencyOnTrack}
	state.snapshots["D"] = domain.Snapshot{TicketID: "D", Urgency: domain.UrgencyOnTrack}

	svc := newMonitorForTest(state, &fakeSource{}, nil, nil)
	summary, err := svc.PendingSummary(context.Background())
	if err != nil {
		t.Fatalf("PendingSummary: %v", err)
	}
	if summary.Total != 4 || summary.Overdue != 1 || summary.DueSoon != 1 || summary.OnTrack != 2 {
		t.Errorf("summary = %+v, want total=4 overdue=1 dueSoon=1 onTrack=2", summary)
	}
}

func ticketIDs(snapshots []domain.Snapshot) []string {
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		ids = append(ids, s.TicketID)
	}
	return ids
}
