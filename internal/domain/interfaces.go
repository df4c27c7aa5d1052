package domain

import "context"

// MarketSource defines the interface for live market-data providers.
type MarketSource interface {
	// Fetch returns the top-ranked coins, at most limit records, in upstream
	// order. A failed call returns a FetchError; callers fall back to an
	// empty live set instead of aborting.
	Fetch(ctx context.Context, limit int) ([]CoinRecord, error)
}

// EntryStore defines how user-added records are persisted between restarts.
type EntryStore interface {
	// Load returns all stored records in insertion order. A missing or
	// unreadable file yields an empty slice, never an error.
	Load() []CoinRecord

	// Append validates rec and rewrites the store with rec at the end.
	// Returns a ValidationError or StoreError; the previous contents are
	// untouched on failure.
	Append(rec CoinRecord) error
}

// RefreshLog records refresh attempts and serves the recent-attempts panel.
// Implementations are advisory; callers log write failures and keep going.
type RefreshLog interface {
	Record(ctx context.Context, entry RefreshRecord) error
	Recent(ctx context.Context, n int) ([]RefreshRecord, error)
}
