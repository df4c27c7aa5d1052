package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

type fakeSource struct {
	records []domain.CoinRecord
	err     error
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context, limit int) ([]domain.CoinRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeStore struct {
	records []domain.CoinRecord
}

func (f *fakeStore) Load() []domain.CoinRecord {
	return f.records
}

func (f *fakeStore) Append(rec domain.CoinRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.Source = domain.SourceUser
	f.records = append(f.records, rec)
	return nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []domain.RefreshRecord
}

func (f *fakeLog) Record(ctx context.Context, entry domain.RefreshRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLog) Recent(ctx context.Context, n int) ([]domain.RefreshRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]domain.RefreshRecord, 0, n)
	for i := len(f.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

type fakeHub struct {
	snaps []Snapshot
}

func (f *fakeHub) Broadcast(snap Snapshot) {
	f.snaps = append(f.snaps, snap)
}

func TestDashboard_RefreshSuccess(t *testing.T) {
	source := &fakeSource{records: []domain.CoinRecord{
		liveRecord("BTC", 2.5, 1000),
		liveRecord("ETH", -1.2, 500),
	}}
	store := &fakeStore{records: []domain.CoinRecord{userRecord("DOGE", 0.3, 200)}}
	log := &fakeLog{}
	hub := &fakeHub{}

	d := NewDashboard(source, store, log, nil, hub, 5)
	snap := d.Refresh(context.Background())

	if snap.Warning != "" {
		t.Errorf("unexpected warning: %q", snap.Warning)
	}
	if len(snap.Table) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(snap.Table))
	}
	if snap.Table[0].Symbol != "BTC" || snap.Table[2].Symbol != "DOGE" {
		t.Errorf("unexpected row order: %s ... %s", snap.Table[0].Symbol, snap.Table[2].Symbol)
	}

	// Snapshot is remembered
	cur := d.Current()
	if len(cur.Table) != 3 {
		t.Errorf("Current() table has %d rows, want 3", len(cur.Table))
	}

	// History entry recorded
	if len(log.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(log.entries))
	}
	entry := log.entries[0]
	if !entry.OK || entry.LiveCount != 2 || entry.UserCount != 1 {
		t.Errorf("history entry = %+v", entry)
	}

	// Broadcast fired
	if len(hub.snaps) != 1 {
		t.Errorf("expected 1 broadcast, got %d", len(hub.snaps))
	}
}

func TestDashboard_RefreshFetchFailure(t *testing.T) {
	source := &fakeSource{err: domain.NewFetchError("status", errors.New("unexpected status code: 429"))}
	store := &fakeStore{records: []domain.CoinRecord{userRecord("DOGE", 0.3, 200)}}
	log := &fakeLog{}

	d := NewDashboard(source, store, log, nil, nil, 5)
	snap := d.Refresh(context.Background())

	if snap.Warning == "" {
		t.Error("expected a fallback warning")
	}
	if len(snap.Table) != 1 || snap.Table[0].Symbol != "DOGE" {
		t.Errorf("expected stored rows only, got %v", snap.Table)
	}

	if len(log.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(log.entries))
	}
	entry := log.entries[0]
	if entry.OK {
		t.Error("history entry should record the failure")
	}
	if entry.Cause == "" {
		t.Error("failure cause should be recorded")
	}
}

func TestDashboard_AddEntry(t *testing.T) {
	source := &fakeSource{records: []domain.CoinRecord{liveRecord("BTC", 2.5, 1000)}}
	store := &fakeStore{}
	hub := &fakeHub{}

	d := NewDashboard(source, store, nil, nil, hub, 5)

	rec := domain.CoinRecord{
		Name:   "MyCoin",
		Symbol: "MYC",
		Price:  decimal.NewFromFloat(1.5),
		Volume: decimal.NewFromInt(10),
	}
	snap, err := d.AddEntry(context.Background(), rec)
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(store.records))
	}
	if store.records[0].Source != domain.SourceUser {
		t.Error("stored record should carry the user source")
	}

	// Append triggers a refresh: live row plus the new user row
	if source.calls != 1 {
		t.Errorf("expected 1 fetch after append, got %d", source.calls)
	}
	if len(snap.Table) != 2 || snap.Table[1].Symbol != "MYC" {
		t.Errorf("new row missing from snapshot: %v", snap.Table)
	}
	if len(hub.snaps) != 1 {
		t.Errorf("expected broadcast after append, got %d", len(hub.snaps))
	}
}

func TestDashboard_AddEntryInvalid(t *testing.T) {
	source := &fakeSource{}
	store := &fakeStore{}

	d := NewDashboard(source, store, nil, nil, nil, 5)

	rec := domain.CoinRecord{Name: "Bad", Symbol: "  "}
	_, err := d.AddEntry(context.Background(), rec)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !domain.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	// No refresh, no stored record
	if source.calls != 0 {
		t.Errorf("rejected append should not trigger a fetch, got %d calls", source.calls)
	}
	if len(store.records) != 0 {
		t.Errorf("rejected append stored %d records", len(store.records))
	}
}

func TestDashboard_RecentRefreshes(t *testing.T) {
	source := &fakeSource{records: []domain.CoinRecord{liveRecord("BTC", 1.0, 10)}}
	log := &fakeLog{}

	d := NewDashboard(source, &fakeStore{}, log, nil, nil, 5)
	d.Refresh(context.Background())
	d.Refresh(context.Background())

	recent := d.RecentRefreshes(context.Background(), 5)
	if len(recent) != 2 {
		t.Errorf("expected 2 refresh entries, got %d", len(recent))
	}
}

func TestDashboard_RecentRefreshesWithoutHistory(t *testing.T) {
	d := NewDashboard(&fakeSource{}, &fakeStore{}, nil, nil, nil, 5)

	if got := d.RecentRefreshes(context.Background(), 5); len(got) != 0 {
		t.Errorf("expected no entries without a history store, got %d", len(got))
	}
}
