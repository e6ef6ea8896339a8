package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
)

// fakeState is an in-memory StateRepository for service tests.
type fakeState struct {
	mu        sync.Mutex
	snapshots map[string]domain.Snapshot
	records   []domain.DispositionRecord
	err       error
}

func newFakeState() *fakeState {
	return &fakeState{snapshots: make(map[string]domain.Snapshot)}
}

func (f *fakeState) GetSnapshots(ctx context.Context) (map[string]domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.Snapshot, len(f.snapshots))
	for k, v := range f.snapshots {
		out[k] = v
	}
	return out, nil
}

func (f *fakeState) UpdateSnapshots(ctx context.Context, mutate func(map[string]domain.Snapshot)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	mutate(f.snapshots)
	return nil
}

func (f *fakeState) GetDispositions(ctx context.Context) ([]domain.DispositionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.DispositionRecord{}, f.records...), nil
}

func (f *fakeState) UpdateDispositions(ctx context.Context, mutate func([]domain.DispositionRecord) []domain.DispositionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = mutate(f.records)
	return nil
}

// fakeSource serves canned pending tickets and histories.
type fakeSource struct {
	tickets     []ticketing.PendingTicket
	histories   map[string][]ticketing.HistoryEvent
	listErr     error
	historyErrs map[string]error
}

func (f *fakeSource) FetchPendingTickets(ctx context.Context, filter ticketing.PendingFilter) ([]ticketing.PendingTicket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tickets, nil
}

func (f *fakeSource) FetchTicketHistory(ctx context.Context, ticketID string) ([]ticketing.HistoryEvent, error) {
	if err := f.historyErrs[ticketID]; err != nil {
		return nil, err
	}
	return f.histories[ticketID], nil
}

func assignmentHistory(t *testing.T, epoch int64, remark string) []ticketing.HistoryEvent {
	t.Helper()
	payload := fmt.Sprintf(`[{"action":%q,"createDate":%d,"remark":%q,"substatus":""}]`,
		ticketing.ActionManuallyAssigned, epoch, remark)
	var history []ticketing.HistoryEvent
	if err := json.Unmarshal([]byte(payload), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	return history
}

func plainHistory(t *testing.T, action string, epoch int64) []ticketing.HistoryEvent {
	t.Helper()
	payload := fmt.Sprintf(`[{"action":%q,"createDate":%d,"remark":"","substatus":""}]`, action, epoch)
	var history []ticketing.HistoryEvent
	if err := json.Unmarshal([]byte(payload), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	return history
}
