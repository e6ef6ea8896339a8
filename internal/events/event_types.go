package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPollCycleCompleted  EventType = "poll_cycle_completed"
	EventDispositionRecorded EventType = "disposition_recorded"
	EventMonitorDegraded     EventType = "monitor_degraded"
)

// Event represents a monitor event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PollCycleCompletedPayload carries the batch outcome of one poll cycle.
// OverdueCount feeds the badge/notification sink.
type PollCycleCompletedPayload struct {
	OverdueCount int `json:"overdue_count"`
	DueSoonCount int `json:"due_soon_count"`
	OnTrackCount int `json:"on_track_count"`
	Processed    int `json:"processed"`
	Skipped      int `json:"skipped"`
}

// DispositionRecordedPayload payload.
type DispositionRecordedPayload struct {
	TicketID        string `json:"ticket_id"`
	Agent           string `json:"agent"`
	DispositionType string `json:"disposition_type"`
	WasOverdue      bool   `json:"was_overdue"`
}

// MonitorDegradedPayload describes a non-fatal data-quality or upstream
// degradation.
type MonitorDegradedPayload struct {
	Reason string `json:"reason"`
}
