package tat

import (
	"time"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/sla"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
)

// BuildSnapshot composes classification, elapsed-time arithmetic, and
// urgency evaluation into a persisted per-ticket snapshot. Pure given a
// valid reconciliation; callers skip tickets that reconciled to
// ErrNoAssignment.
func BuildSnapshot(ticket ticketing.PendingTicket, rec Reconciliation, now time.Time) domain.Snapshot {
	classification := sla.Classify(ticket.TaskTitle)
	elapsed := now.Sub(rec.AssignedAt).Hours()
	assessment := sla.Evaluate(classification.Hours, elapsed)

	return domain.Snapshot{
		TicketID:        ticket.TicketID,
		Subject:         ticket.TaskTitle,
		Status:          ticket.Status,
		Substatus:       ticket.Substatus,
		SubstatusLabel:  ticket.SubstatusName,
		AssignedTo:      rec.Agent,
		AssignedAt:      rec.AssignedAt,
		SLACategory:     classification.Category,
		SLAHours:        classification.Hours,
		ElapsedHours:    elapsed,
		RemainingHours:  classification.Hours - elapsed,
		Urgency:         assessment.Status,
		EscalationCount: rec.EscalationCount,
		LastEscalatedAt: rec.LastEscalatedAt,
		ExternalURL:     ticket.TicketURL,
		LastSeenAt:      now,
		MissedCycles:    0,
	}
}
