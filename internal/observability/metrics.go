package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for the poll pipeline and the
// HTTP surface.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// Counter names recorded by the monitor.
const (
	MetricCyclesRun             = "poll_cycles_run"
	MetricCyclesCoalesced       = "poll_cycles_coalesced"
	MetricFetchErrors           = "fetch_errors"
	MetricTicketsProcessed      = "tickets_processed"
	MetricTicketsSkipped        = "tickets_skipped"
	MetricTimestampFallbacks    = "timestamp_fallbacks"
	MetricDispositionsRecorded  = "dispositions_recorded"
	MetricUntrackedDispositions = "untracked_dispositions"
	MetricArchiveFailures       = "archive_failures"
)

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Inc adds one to the named counter.
func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

// Add increments the named counter by delta.
func (m *Metrics) Add(name string, delta int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// RecordError increments a per-endpoint error counter.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := "http_errors|" + path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}
