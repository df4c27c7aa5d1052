package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryStats aggregates the merged table for the dashboard header.
// Recomputed on every refresh, never persisted.
type SummaryStats struct {
	LastUpdated  time.Time       `json:"last_updated"` // Timestamp of the fetch attempt
	Count        int             `json:"count"`        // Rows in the merged table
	TotalVolume  decimal.Decimal `json:"total_volume"`
	AvgChange24h decimal.Decimal `json:"avg_change_24h"` // Rounded to 2 decimals
	AvgAvailable bool            `json:"avg_available"`  // false when the table is empty
	TopGainer    *CoinRecord     `json:"top_gainer,omitempty"`
	TopLoser     *CoinRecord     `json:"top_loser,omitempty"`
}
