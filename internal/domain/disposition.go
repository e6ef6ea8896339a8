package domain

import "time"

// DispositionRecord is one closed/resolved ticket outcome. Records are
// append-only: created exactly once when the disposition signal is observed
// and never mutated afterwards. The bounded log of these records is the
// analytics source of truth.
type DispositionRecord struct {
	ID              string      `json:"id"`
	TicketID        string      `json:"ticket_id"`
	Subject         string      `json:"subject"`
	Category        SLACategory `json:"category"`
	Agent           string      `json:"agent"`
	AssignedAt      time.Time   `json:"assigned_at"`
	DisposedAt      time.Time   `json:"disposed_at"`
	TATHours        float64     `json:"tat_hours"`
	DispositionType string      `json:"disposition_type"`
	IsEscalated     bool        `json:"is_escalated"`
	WasOverdue      bool        `json:"was_overdue"`
}

// AgentRollup is a per-agent performance aggregate, recomputed on demand
// from the disposition log and never persisted as authoritative state.
type AgentRollup struct {
	Agent             string  `json:"agent"`
	TotalTickets      int     `json:"total_tickets"`
	ResolvedCount     int     `json:"resolved_count"`
	EscalatedCount    int     `json:"escalated_count"`
	EscalationRatePct int     `json:"escalation_rate_pct"`
	AvgTATHours       float64 `json:"avg_tat_hours"`
	OverdueCount      int     `json:"overdue_count"`
	OverdueRatePct    int     `json:"overdue_rate_pct"`
}

// PendingSummary counts currently tracked snapshots by urgency.
type PendingSummary struct {
	Total   int `json:"total"`
	Overdue int `json:"overdue"`
	DueSoon int `json:"due_soon"`
	OnTrack int `json:"on_track"`
}

// HistoricalSummary aggregates the disposition log.
type HistoricalSummary struct {
	TotalDispositions int     `json:"total_dispositions"`
	Escalated         int     `json:"escalated"`
	Overdue           int     `json:"overdue"`
	AvgTATHours       float64 `json:"avg_tat_hours"`
}

// MonitorSummary is the combined view served to the UI layer.
type MonitorSummary struct {
	Pending    PendingSummary    `json:"pending"`
	Historical HistoricalSummary `json:"historical"`
	Agents     []AgentRollup     `json:"agents"`
}
