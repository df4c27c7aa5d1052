package domain

import "github.com/shopspring/decimal"

// Risk buckets derived from 24h movement. The dashboard uses them as quick
// visual cues next to each row; they carry no trading semantics.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var (
	riskHighThreshold   = decimal.NewFromInt(10)
	riskMediumThreshold = decimal.NewFromInt(3)
)

// RiskLevel classifies a record by the magnitude of its 24h change:
// >= 10% is high, >= 3% is medium, anything below is low.
// Value receiver so templates can call it on table rows directly.
func (c CoinRecord) RiskLevel() string {
	abs := c.Change24h.Abs()
	switch {
	case abs.GreaterThanOrEqual(riskHighThreshold):
		return RiskHigh
	case abs.GreaterThanOrEqual(riskMediumThreshold):
		return RiskMedium
	default:
		return RiskLow
	}
}
