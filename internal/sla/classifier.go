package sla

import (
	"strings"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

// Classification pairs an SLA category with its allowed turn-around bound.
type Classification struct {
	Category domain.SLACategory
	Hours    float64
}

// rule maps trigger keywords to a category and SLA bound. When fastTerms is
// set and any of them also appears in the subject, fastHours replaces hours.
type rule struct {
	keywords  []string
	category  domain.SLACategory
	hours     float64
	fastTerms []string
	fastHours float64
}

// rules is the SLA policy table. Ordering matters: the first matching rule
// wins, so a subject mentioning both "shortage" and "cod" classifies as
// Losses & Debits.
var rules = []rule{
	{
		keywords: []string{"shortage", "loss", "debit", "hardstop"},
		category: domain.CategoryLossesDebits,
		hours:    72,
	},
	{
		keywords:  []string{"payment", "invoice", "payout", "gst"},
		category:  domain.CategoryPayments,
		hours:     72,
		fastTerms: []string{"not received", "pending"},
		fastHours: 12,
	},
	{
		keywords: []string{"cod", "deposit", "cash", "pendency"},
		category: domain.CategoryCOD,
		hours:    24,
	},
	{
		keywords: []string{"load", "volume", "manifest", "planning"},
		category: domain.CategoryOrdersPlanning,
		hours:    12,
	},
	{
		keywords: []string{"cms", "log-tool", "system", "tool", "bagging", "inactive"},
		category: domain.CategoryTechIssues,
		hours:    24,
	},
}

// defaultClassification covers empty and unmatched subjects.
var defaultClassification = Classification{Category: domain.CategoryGeneral, Hours: 48}

// Classify maps a free-text ticket subject to its SLA category and bound.
// It is total: every input, including the empty string, yields a category.
func Classify(subject string) Classification {
	lowered := strings.ToLower(subject)
	for _, r := range rules {
		if !containsAny(lowered, r.keywords) {
			continue
		}
		if len(r.fastTerms) > 0 && containsAny(lowered, r.fastTerms) {
			return Classification{Category: r.category, Hours: r.fastHours}
		}
		return Classification{Category: r.category, Hours: r.hours}
	}
	return defaultClassification
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
