package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchesTotal    atomic.Uint64
	fetchesFailed   atomic.Uint64
	entriesAppended atomic.Uint64

	// Fetch duration tracking
	lastFetchNs atomic.Int64
	fetchSumNs  atomic.Int64
	fetchCount  atomic.Uint64

	// Gauges
	wsClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records one upstream fetch attempt and its duration.
func (m *Metrics) RecordFetch(d time.Duration, ok bool) {
	m.fetchesTotal.Add(1)
	if !ok {
		m.fetchesFailed.Add(1)
	}
	m.lastFetchNs.Store(d.Nanoseconds())
	m.fetchSumNs.Add(d.Nanoseconds())
	m.fetchCount.Add(1)
}

// RecordEntryAppended records a user entry accepted into the store.
func (m *Metrics) RecordEntryAppended() {
	m.entriesAppended.Add(1)
}

// IncrementClients increments the live websocket client gauge.
func (m *Metrics) IncrementClients() {
	m.wsClients.Add(1)
}

// DecrementClients decrements the live websocket client gauge.
func (m *Metrics) DecrementClients() {
	m.wsClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FetchesTotal    uint64    `json:"fetches_total"`
	FetchesFailed   uint64    `json:"fetches_failed"`
	EntriesAppended uint64    `json:"entries_appended"`
	LastFetchNs     int64     `json:"last_fetch_ns"`
	AvgFetchNs      int64     `json:"avg_fetch_ns"`
	WSClients       int32     `json:"ws_clients"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgFetch int64
	count := m.fetchCount.Load()
	if count > 0 {
		avgFetch = m.fetchSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		FetchesTotal:    m.fetchesTotal.Load(),
		FetchesFailed:   m.fetchesFailed.Load(),
		EntriesAppended: m.entriesAppended.Load(),
		LastFetchNs:     m.lastFetchNs.Load(),
		AvgFetchNs:      avgFetch,
		WSClients:       m.wsClients.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetchesTotal.Store(0)
	m.fetchesFailed.Store(0)
	m.entriesAppended.Store(0)
	m.lastFetchNs.Store(0)
	m.fetchSumNs.Store(0)
	m.fetchCount.Store(0)
	m.wsClients.Store(0)
}
