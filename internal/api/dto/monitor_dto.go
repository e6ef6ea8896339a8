package dto

import (
	"time"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued operator token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SnapshotResponse is the per-ticket view served to the UI layer.
type SnapshotResponse struct {
	TicketID        string     `json:"ticket_id"`
	Subject         string     `json:"subject"`
	Status          string     `json:"status"`
	SubstatusLabel  string     `json:"substatus_label"`
	AssignedTo      string     `json:"assigned_to"`
	AssignedAt      time.Time  `json:"assigned_at"`
	SLACategory     string     `json:"sla_category"`
	SLAHours        float64    `json:"sla_hours"`
	ElapsedHours    float64    `json:"elapsed_hours"`
	RemainingHours  float64    `json:"remaining_hours"`
	Urgency         string     `json:"urgency"`
	EscalationCount int        `json:"escalation_count"`
	LastEscalatedAt *time.Time `json:"last_escalated_at,omitempty"`
	ExternalURL     string     `json:"external_url"`
}

// GroupedSnapshotsResponse buckets snapshots by urgency.
type GroupedSnapshotsResponse struct {
	Overdue []SnapshotResponse `json:"overdue"`
	DueSoon []SnapshotResponse `json:"due_soon"`
	OnTrack []SnapshotResponse `json:"on_track"`
}

// RecordDispositionRequest is the write entry point payload.
type RecordDispositionRequest struct {
	TicketID        string `json:"ticket_id"`
	DispositionType string `json:"disposition_type"`
}

// SummaryResponse mirrors domain.MonitorSummary for the UI layer.
type SummaryResponse struct {
	Pending    domain.PendingSummary    `json:"pending"`
	Historical domain.HistoricalSummary `json:"historical"`
	Agents     []domain.AgentRollup     `json:"agents"`
}

// PollTriggerResponse reports whether a manual cycle actually started.
type PollTriggerResponse struct {
	Started bool `json:"started"`
}
