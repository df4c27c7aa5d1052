package infra

import (
	"testing"
	"time"
)

func TestMetrics_RecordFetch(t *testing.T) {
	m := &Metrics{}

	m.RecordFetch(1000*time.Nanosecond, true)
	m.RecordFetch(2000*time.Nanosecond, true)
	m.RecordFetch(3000*time.Nanosecond, false)

	snap := m.Snapshot()

	if snap.FetchesTotal != 3 {
		t.Errorf("Expected 3 fetches, got %d", snap.FetchesTotal)
	}

	if snap.FetchesFailed != 1 {
		t.Errorf("Expected 1 failed fetch, got %d", snap.FetchesFailed)
	}

	if snap.LastFetchNs != 3000 {
		t.Errorf("Expected last fetch 3000ns, got %d", snap.LastFetchNs)
	}

	// Average duration: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgFetchNs != 2000 {
		t.Errorf("Expected avg fetch 2000ns, got %d", snap.AvgFetchNs)
	}
}

func TestMetrics_Clients(t *testing.T) {
	m := &Metrics{}

	m.IncrementClients()
	m.IncrementClients()
	m.IncrementClients()

	snap := m.Snapshot()
	if snap.WSClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.WSClients)
	}

	m.DecrementClients()
	snap = m.Snapshot()
	if snap.WSClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.WSClients)
	}
}

func TestMetrics_EntriesAppended(t *testing.T) {
	m := &Metrics{}

	m.RecordEntryAppended()
	m.RecordEntryAppended()

	if snap := m.Snapshot(); snap.EntriesAppended != 2 {
		t.Errorf("Expected 2 entries appended, got %d", snap.EntriesAppended)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordFetch(1000*time.Nanosecond, false)
	m.RecordEntryAppended()
	m.IncrementClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.FetchesTotal != 0 {
		t.Error("Expected 0 fetches after reset")
	}
	if snap.EntriesAppended != 0 {
		t.Error("Expected 0 entries after reset")
	}
	if snap.WSClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}
