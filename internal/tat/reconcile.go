package tat

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/tat-monitor/internal/domain"
	"github.com/spec-kit/tat-monitor/internal/ticketing"
)

// ErrNoAssignment signals a history without any manual-assignment event.
// The ticket cannot be TAT-tracked yet; callers skip it for the cycle.
var ErrNoAssignment = errors.New("no manual assignment event in history")

// assigneePattern extracts the agent name from an assignment remark. The
// API carries no structured assignee field in the event, only free text, so
// extraction is best-effort with an Unknown fallback.
var assigneePattern = regexp.MustCompile(`(?i)assigned\s+to\s+([^,;.\n]+)`)

// Reconciliation is the authoritative assignment state derived from a
// ticket's event history rather than any single field.
type Reconciliation struct {
	AssignedAt      time.Time
	Agent           string
	EscalationCount int
	LastEscalatedAt *time.Time

	// TimestampFallbacks counts events whose createDate could not be
	// parsed and degraded to "now". Surfaced so data-quality loss is
	// observable.
	TimestampFallbacks int
}

type normalizedEvent struct {
	action    string
	at        time.Time
	remark    string
	substatus string
}

// Reconcile derives the assignment instant, assignee, and escalation state
// from a ticket's full event history. The ticket's raw creation time is not
// a valid SLA clock start: the clock starts at the moment of assignment to
// an agent, which may happen well after creation. The last manual-assignment
// event in chronological order wins.
func Reconcile(history []ticketing.HistoryEvent, now time.Time) (Reconciliation, error) {
	events := make([]normalizedEvent, 0, len(history))
	fallbacks := 0
	for _, ev := range history {
		at, ok := ev.CreateDate.Normalize(now)
		if !ok {
			fallbacks++
		}
		events = append(events, normalizedEvent{
			action:    ev.Action,
			at:        at,
			remark:    ev.Remark,
			substatus: ev.Substatus,
		})
	}

	// Delivery order is oldest-first by contract but not trusted.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].at.Before(events[j].at)
	})

	rec := Reconciliation{TimestampFallbacks: fallbacks}
	assigned := false
	for _, ev := range events {
		switch {
		case ev.action == ticketing.ActionManuallyAssigned:
			rec.AssignedAt = ev.at
			rec.Agent = extractAgent(ev.remark)
			assigned = true
		case ev.action == ticketing.ActionDisposed && ev.substatus == ticketing.SubstatusEscalated:
			rec.EscalationCount++
			at := ev.at
			rec.LastEscalatedAt = &at
		}
	}
	if !assigned {
		return Reconciliation{}, ErrNoAssignment
	}
	return rec, nil
}

func extractAgent(remark string) string {
	match := assigneePattern.FindStringSubmatch(remark)
	if match == nil {
		return domain.UnknownAgent
	}
	name := strings.TrimSpace(match[1])
	if name == "" {
		return domain.UnknownAgent
	}
	return name
}
