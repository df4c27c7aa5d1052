package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cryptodash/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// History persists one row per refresh attempt in a local SQLite file.
// It feeds the "recent refreshes" panel; callers treat write failures as
// advisory and keep serving.
type History struct {
	db *gorm.DB
}

// NewHistory opens (or creates) the database file and migrates the schema.
func NewHistory(dbPath string) (*History, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.RefreshRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &History{db: db}, nil
}

// Record inserts one refresh attempt, failed fetches included.
func (h *History) Record(ctx context.Context, entry domain.RefreshRecord) error {
	return h.db.WithContext(ctx).Create(&entry).Error
}

// Recent returns the latest n refresh attempts, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]domain.RefreshRecord, error) {
	var entries []domain.RefreshRecord
	err := h.db.WithContext(ctx).
		Order("fetched_at desc, id desc").
		Limit(n).
		Find(&entries).Error
	return entries, err
}
