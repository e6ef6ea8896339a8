package sla

import "github.com/spec-kit/tat-monitor/internal/domain"

// dueSoonFraction is the share of the SLA window that flips a ticket to
// DUE_SOON. Fixed for all categories.
const dueSoonFraction = 0.25

// Assessment is the urgency verdict for a tracked ticket. SortRank orders
// most-urgent first: OVERDUE=1, DUE_SOON=2, ON_TRACK=3.
type Assessment struct {
	Status   domain.Urgency
	SortRank int
}

// Evaluate derives urgency from the SLA bound and the hours elapsed since
// assignment. Pure and total. A remaining window exactly at the due-soon
// threshold still counts as ON_TRACK.
func Evaluate(slaHours, elapsedHours float64) Assessment {
	remaining := slaHours - elapsedHours
	switch {
	case remaining < 0:
		return Assessment{Status: domain.UrgencyOverdue, SortRank: 1}
	case remaining < dueSoonFraction*slaHours:
		return Assessment{Status: domain.UrgencyDueSoon, SortRank: 2}
	default:
		return Assessment{Status: domain.UrgencyOnTrack, SortRank: 3}
	}
}
