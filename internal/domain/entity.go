package domain

import (
	"time"
)

// RefreshRecord is the persisted log line for one refresh attempt.
// Failed fetches are recorded too; Cause is empty on success.
type RefreshRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FetchedAt    time.Time `gorm:"index" json:"fetched_at"`
	OK           bool      `json:"ok"`
	Cause        string    `json:"cause,omitempty"`
	LiveCount    int       `json:"live_count"`
	UserCount    int       `json:"user_count"`
	TotalVolume  string    `json:"total_volume"`   // Decimal string
	AvgChange24h string    `json:"avg_change_24h"` // Decimal string, empty when unavailable
	CreatedAt    time.Time `json:"created_at"`
}
