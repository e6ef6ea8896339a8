package domain

import "time"

// Urgency enumerates how close a tracked ticket is to its SLA bound.
type Urgency string

const (
	UrgencyOverdue Urgency = "OVERDUE"
	UrgencyDueSoon Urgency = "DUE_SOON"
	UrgencyOnTrack Urgency = "ON_TRACK"
)

// SLACategory enumerates classification buckets for ticket subjects.
type SLACategory string

const (
	CategoryLossesDebits   SLACategory = "Losses & Debits"
	CategoryPayments       SLACategory = "Payments"
	CategoryCOD            SLACategory = "COD"
	CategoryOrdersPlanning SLACategory = "Orders & Planning"
	CategoryTechIssues     SLACategory = "Tech Issues"
	CategoryGeneral        SLACategory = "General"
)

// UnknownAgent is the sentinel assignee when the name cannot be extracted
// from an assignment remark.
const UnknownAgent = "Unknown"

// Snapshot is the current derived TAT state of one open ticket, keyed by the
// external ticket ID and overwritten in place on every poll cycle.
type Snapshot struct {
	TicketID        string      `json:"ticket_id"`
	Subject         string      `json:"subject"`
	Status          string      `json:"status"`
	Substatus       string      `json:"substatus"`
	SubstatusLabel  string      `json:"substatus_label"`
	AssignedTo      string      `json:"assigned_to"`
	AssignedAt      time.Time   `json:"assigned_at"`
	SLACategory     SLACategory `json:"sla_category"`
	SLAHours        float64     `json:"sla_hours"`
	ElapsedHours    float64     `json:"elapsed_hours"`
	RemainingHours  float64     `json:"remaining_hours"`
	Urgency         Urgency     `json:"urgency"`
	EscalationCount int         `json:"escalation_count"`
	LastEscalatedAt *time.Time  `json:"last_escalated_at,omitempty"`
	ExternalURL     string      `json:"external_url"`

	// Poll bookkeeping: when this snapshot was last refreshed and how many
	// consecutive cycles the ticket has been absent from the pending set.
	LastSeenAt   time.Time `json:"last_seen_at"`
	MissedCycles int       `json:"missed_cycles"`
}

// GroupedSnapshots buckets snapshots by urgency for the UI layer. Each
// bucket is sorted ascending by remaining hours.
type GroupedSnapshots struct {
	Overdue []Snapshot `json:"overdue"`
	DueSoon []Snapshot `json:"due_soon"`
	OnTrack []Snapshot `json:"on_track"`
}
