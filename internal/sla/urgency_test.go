package sla

import (
	"testing"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		sla     float64
		elapsed float64
		status  domain.Urgency
		rank    int
	}{
		{"fresh ticket on track", 72, 1, domain.UrgencyOnTrack, 3},
		{"exactly at threshold stays on track", 72, 54, domain.UrgencyOnTrack, 3},
		{"just inside threshold due soon", 72, 55, domain.UrgencyDueSoon, 2},
		{"past bound overdue", 72, 73, domain.UrgencyOverdue, 1},
		{"zero remaining still due soon", 24, 24, domain.UrgencyDueSoon, 2},
		{"short sla boundary", 12, 9, domain.UrgencyOnTrack, 3},
		{"short sla due soon", 12, 9.5, domain.UrgencyDueSoon, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.sla, tc.elapsed)
			if got.Status != tc.status {
				t.Errorf("Evaluate(%v, %v).Status = %q, want %q", tc.sla, tc.elapsed, got.Status, tc.status)
			}
			if got.SortRank != tc.rank {
				t.Errorf("Evaluate(%v, %v).SortRank = %d, want %d", tc.sla, tc.elapsed, got.SortRank, tc.rank)
			}
		})
	}
}
