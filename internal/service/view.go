package service

import (
	"time"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

// BuildView merges live and stored records and derives the header stats.
// The table is a plain concatenation: live rows in upstream order, then user
// rows in insertion order. No sorting, no dedup; a symbol present in both
// sets keeps both rows.
func BuildView(live, stored []domain.CoinRecord, fetchedAt time.Time) ([]domain.CoinRecord, domain.SummaryStats) {
	table := make([]domain.CoinRecord, 0, len(live)+len(stored))
	table = append(table, live...)
	table = append(table, stored...)

	stats := domain.SummaryStats{
		LastUpdated: fetchedAt,
		Count:       len(table),
		TotalVolume: decimal.Zero,
	}

	if len(table) == 0 {
		return table, stats
	}

	sum := decimal.Zero
	gainer, loser := 0, 0
	for i, rec := range table {
		stats.TotalVolume = stats.TotalVolume.Add(rec.Volume)
		sum = sum.Add(rec.Change24h)

		// Strict comparison keeps the first occurrence on ties
		if rec.Change24h.GreaterThan(table[gainer].Change24h) {
			gainer = i
		}
		if rec.Change24h.LessThan(table[loser].Change24h) {
			loser = i
		}
	}

	stats.AvgChange24h = sum.Div(decimal.NewFromInt(int64(len(table)))).Round(2)
	stats.AvgAvailable = true
	stats.TopGainer = &table[gainer]
	stats.TopLoser = &table[loser]

	return table, stats
}
