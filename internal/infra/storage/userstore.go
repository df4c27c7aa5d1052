package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

// persistedEntry is the on-disk shape of one user-added row. Source is not
// stored; everything in this file is a user record by definition. Decimal
// fields marshal as strings and accept bare numbers from older files.
type persistedEntry struct {
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
	Volume    decimal.Decimal `json:"volume"`
}

// UserStore persists user-added coin records as a JSON array in one file.
// Appends rewrite the whole file through a temp file and a rename, so a
// crash mid-write leaves the previous contents intact.
type UserStore struct {
	path string
	mu   sync.Mutex
}

// NewUserStore creates a store backed by the given file path. The file is
// created on first append.
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Load returns all stored records in insertion order. A missing file is a
// normal first run; an unreadable or corrupt file logs a warning and yields
// an empty slice so the dashboard keeps serving.
func (s *UserStore) Load() []domain.CoinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *UserStore) loadLocked() []domain.CoinRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("User entry file unreadable, starting empty",
				slog.String("path", s.path),
				slog.Any("error", err),
			)
		}
		return nil
	}

	var entries []persistedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("User entry file corrupt, starting empty",
			slog.String("path", s.path),
			slog.Any("error", err),
		)
		return nil
	}

	records := make([]domain.CoinRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, domain.CoinRecord{
			Symbol:    strings.ToUpper(e.Symbol),
			Name:      e.Name,
			Price:     e.Price,
			Change24h: e.Change24h,
			Volume:    e.Volume,
			Source:    domain.SourceUser,
		})
	}
	return records
}

// Append validates rec and rewrites the file with rec at the end. On any
// failure the previous contents stay untouched.
func (s *UserStore) Append(rec domain.CoinRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadLocked()
	entries := make([]persistedEntry, 0, len(current)+1)
	for _, r := range current {
		entries = append(entries, persistedEntry{
			Name:      r.Name,
			Symbol:    r.Symbol,
			Price:     r.Price,
			Change24h: r.Change24h,
			Volume:    r.Volume,
		})
	}
	entries = append(entries, persistedEntry{
		Name:      rec.Name,
		Symbol:    strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Price:     rec.Price,
		Change24h: rec.Change24h,
		Volume:    rec.Volume,
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return domain.NewStoreError("marshal", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.NewStoreError("write", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(dir, ".user_entries-*.json")
	if err != nil {
		return domain.NewStoreError("write", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return domain.NewStoreError("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.NewStoreError("write", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return domain.NewStoreError("rename", err)
	}

	return nil
}
