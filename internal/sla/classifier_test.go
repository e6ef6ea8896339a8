package sla

import (
	"testing"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		subject  string
		category domain.SLACategory
		hours    float64
	}{
		{"empty subject defaults", "", domain.CategoryGeneral, 48},
		{"unmatched subject defaults", "please look into this", domain.CategoryGeneral, 48},
		{"shortage", "Shortage loss not credited", domain.CategoryLossesDebits, 72},
		{"hardstop", "Vehicle under HARDSTOP at hub", domain.CategoryLossesDebits, 72},
		{"payment pending fast-tracked", "Payment pending for last week", domain.CategoryPayments, 12},
		{"invoice not received fast-tracked", "Invoice not received for March", domain.CategoryPayments, 12},
		{"payment otherwise", "Payment reconciliation query", domain.CategoryPayments, 72},
		{"gst refund pending fast-tracked", "GST refund pending", domain.CategoryPayments, 12},
		{"gst otherwise", "GST mismatch in payout statement", domain.CategoryPayments, 72},
		{"cod", "COD deposit slip missing", domain.CategoryCOD, 24},
		{"pendency", "Cash pendency at branch", domain.CategoryCOD, 24},
		{"load planning", "Load planning not reflecting", domain.CategoryOrdersPlanning, 12},
		{"manifest", "Manifest count mismatch", domain.CategoryOrdersPlanning, 12},
		{"cms", "CMS login failing", domain.CategoryTechIssues, 24},
		{"bagging", "Bagging scanner inactive", domain.CategoryTechIssues, 24},
		{"case insensitive", "SHORTAGE IN DELIVERY", domain.CategoryLossesDebits, 72},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.subject)
			if got.Category != tc.category {
				t.Errorf("Classify(%q).Category = %q, want %q", tc.subject, got.Category, tc.category)
			}
			if got.Hours != tc.hours {
				t.Errorf("Classify(%q).Hours = %v, want %v", tc.subject, got.Hours, tc.hours)
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Matches both rule 1 (shortage) and rule 3 (cod); rule 1 must win.
	got := Classify("Shortage in COD deposit")
	if got.Category != domain.CategoryLossesDebits {
		t.Fatalf("Category = %q, want %q", got.Category, domain.CategoryLossesDebits)
	}
	if got.Hours != 72 {
		t.Fatalf("Hours = %v, want 72", got.Hours)
	}
}

func TestClassifyTotality(t *testing.T) {
	subjects := []string{"", " ", "!!!", "\n\t", "日本語の件名", "x"}
	valid := map[domain.SLACategory]bool{
		domain.CategoryLossesDebits:   true,
		domain.CategoryPayments:       true,
		domain.CategoryCOD:            true,
		domain.CategoryOrdersPlanning: true,
		domain.CategoryTechIssues:     true,
		domain.CategoryGeneral:        true,
	}
	for _, subject := range subjects {
		got := Classify(subject)
		if !valid[got.Category] {
			t.Errorf("Classify(%q) returned unknown category %q", subject, got.Category)
		}
		if got.Hours <= 0 {
			t.Errorf("Classify(%q) returned non-positive hours %v", subject, got.Hours)
		}
	}
}
