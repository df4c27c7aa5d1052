package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Source identifies where a coin record came from.
type Source string

const (
	// SourceLive marks records fetched from the market-data API for the current refresh.
	SourceLive Source = "live"
	// SourceUser marks records submitted through the add-entry form and persisted.
	SourceUser Source = "user"
)

// CoinRecord represents one row of market data shown on the dashboard.
// Live records are rebuilt on every fetch and never persisted; user records
// survive restarts through the entry store.
type CoinRecord struct {
	Symbol    string          `json:"symbol"`     // Uppercase convention (e.g. "BTC")
	Name      string          `json:"name"`       // Display name (e.g. "Bitcoin")
	Price     decimal.Decimal `json:"price"`      // Current price in the quote currency
	Change24h decimal.Decimal `json:"change_24h"` // 24h change (%), sign unconstrained
	Volume    decimal.Decimal `json:"volume"`     // 24h traded volume
	Source    Source          `json:"source"`     // "live" or "user"
	IconURL   string          `json:"-"`          // Upstream icon URL, live records only
}

// Validate checks the record invariants: non-empty symbol, non-negative
// price and volume. Change24h may carry any sign.
func (c CoinRecord) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return &ValidationError{Field: "symbol", Err: ErrEmptySymbol}
	}
	if c.Price.IsNegative() {
		return &ValidationError{Field: "price", Err: ErrNegativeAmount}
	}
	if c.Volume.IsNegative() {
		return &ValidationError{Field: "volume", Err: ErrNegativeAmount}
	}
	return nil
}

// ChangeDirection returns "positive", "negative", or "neutral" for display styling.
// Value receiver so templates can call it on table rows directly.
func (c CoinRecord) ChangeDirection() string {
	if c.Change24h.IsPositive() {
		return "positive"
	}
	if c.Change24h.IsNegative() {
		return "negative"
	}
	return "neutral"
}
