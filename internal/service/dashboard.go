package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/infra"
)

// FetchWarning is shown on the dashboard when the live fetch fails and the
// table falls back to stored entries.
const FetchWarning = "Live market data is unavailable. Showing saved entries only."

// Snapshot is the result of one refresh: the merged table, its stats, and a
// warning when the live fetch failed. Handed to templates, the CSV export
// and websocket clients.
type Snapshot struct {
	Table   []domain.CoinRecord `json:"table"`
	Stats   domain.SummaryStats `json:"stats"`
	Warning string              `json:"warning,omitempty"`
}

// Broadcaster pushes a fresh snapshot to connected clients.
type Broadcaster interface {
	Broadcast(snap Snapshot)
}

// IconSyncer caches icons for live records.
type IconSyncer interface {
	Sync(records []domain.CoinRecord)
}

// Dashboard orchestrates the fetch, merge, persist, push cycle and holds
// the latest snapshot. Refreshes happen on page load or append, never in
// the background.
type Dashboard struct {
	mu      sync.RWMutex
	current Snapshot

	source  domain.MarketSource
	store   domain.EntryStore
	history domain.RefreshLog
	icons   IconSyncer
	hub     Broadcaster
	limit   int
}

// NewDashboard wires the service. history, icons and hub may be nil; the
// core fetch-merge cycle works without them.
func NewDashboard(source domain.MarketSource, store domain.EntryStore, history domain.RefreshLog, icons IconSyncer, hub Broadcaster, limit int) *Dashboard {
	return &Dashboard{
		source:  source,
		store:   store,
		history: history,
		icons:   icons,
		hub:     hub,
		limit:   limit,
	}
}

// Refresh fetches live data, merges it with stored entries and publishes
// the resulting snapshot. A fetch failure degrades to stored entries with a
// warning; it never propagates as an error.
func (d *Dashboard) Refresh(ctx context.Context) Snapshot {
	fetchedAt := time.Now()

	live, err := d.source.Fetch(ctx, d.limit)
	infra.GlobalMetrics.RecordFetch(time.Since(fetchedAt), err == nil)

	var warning string
	if err != nil {
		slog.Warn("Market fetch failed, serving stored entries", slog.Any("error", err))
		live = nil
		warning = FetchWarning
	}

	stored := d.store.Load()
	table, stats := BuildView(live, stored, fetchedAt)

	snap := Snapshot{Table: table, Stats: stats, Warning: warning}

	d.mu.Lock()
	d.current = snap
	d.mu.Unlock()

	d.recordHistory(ctx, err, len(live), len(stored), stats)

	if d.icons != nil && len(live) > 0 {
		go d.icons.Sync(live)
	}
	if d.hub != nil {
		d.hub.Broadcast(snap)
	}

	return snap
}

// AddEntry persists a user row, then refreshes so the new row appears in
// the table and reaches connected clients. Validation and store failures
// leave the current snapshot untouched.
func (d *Dashboard) AddEntry(ctx context.Context, rec domain.CoinRecord) (Snapshot, error) {
	rec.Source = domain.SourceUser
	if err := d.store.Append(rec); err != nil {
		return d.Current(), err
	}

	infra.GlobalMetrics.RecordEntryAppended()
	slog.Info("User entry added", slog.String("symbol", rec.Symbol))

	return d.Refresh(ctx), nil
}

// Current returns the latest snapshot without refetching.
func (d *Dashboard) Current() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// RecentRefreshes returns the latest n refresh attempts, newest first.
// Without a history store it returns nothing.
func (d *Dashboard) RecentRefreshes(ctx context.Context, n int) []domain.RefreshRecord {
	if d.history == nil {
		return nil
	}

	entries, err := d.history.Recent(ctx, n)
	if err != nil {
		slog.Warn("Refresh history read failed", slog.Any("error", err))
		return nil
	}
	return entries
}

func (d *Dashboard) recordHistory(ctx context.Context, fetchErr error, liveCount, userCount int, stats domain.SummaryStats) {
	if d.history == nil {
		return
	}

	entry := domain.RefreshRecord{
		FetchedAt:   stats.LastUpdated,
		OK:          fetchErr == nil,
		LiveCount:   liveCount,
		UserCount:   userCount,
		TotalVolume: stats.TotalVolume.String(),
	}
	if fetchErr != nil {
		entry.Cause = fetchErr.Error()
	}
	if stats.AvgAvailable {
		entry.AvgChange24h = stats.AvgChange24h.String()
	}

	if err := d.history.Record(ctx, entry); err != nil {
		slog.Warn("Refresh history write failed", slog.Any("error", err))
	}
}
