package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

func newTestStore(t *testing.T) (*UserStore, string) {
	path := filepath.Join(t.TempDir(), "user_added_data.json")
	return NewUserStore(path), path
}

func TestUserStore_AppendAndLoad(t *testing.T) {
	s, _ := newTestStore(t)

	first := domain.CoinRecord{
		Name:      "MyCoin",
		Symbol:    "myc",
		Price:     decimal.NewFromFloat(1.25),
		Change24h: decimal.NewFromFloat(-3.5),
		Volume:    decimal.NewFromInt(1000),
		Source:    domain.SourceUser,
	}
	second := domain.CoinRecord{
		Name:   "OtherCoin",
		Symbol: "OTH",
		Price:  decimal.NewFromInt(42),
		Volume: decimal.NewFromInt(7),
	}

	if err := s.Append(first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(second); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := s.Load()
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	// Insertion order, symbols upper-cased, source stamped
	if got[0].Symbol != "MYC" {
		t.Errorf("expected symbol MYC, got %s", got[0].Symbol)
	}
	if got[0].Source != domain.SourceUser {
		t.Errorf("expected user source, got %s", got[0].Source)
	}
	if !got[0].Price.Equal(decimal.NewFromFloat(1.25)) {
		t.Errorf("Price = %s, want 1.25", got[0].Price)
	}
	if !got[0].Change24h.Equal(decimal.NewFromFloat(-3.5)) {
		t.Errorf("Change24h = %s, want -3.5", got[0].Change24h)
	}
	if got[1].Name != "OtherCoin" {
		t.Errorf("expected OtherCoin second, got %s", got[1].Name)
	}
}

func TestUserStore_MissingFile(t *testing.T) {
	s, _ := newTestStore(t)

	if got := s.Load(); len(got) != 0 {
		t.Errorf("expected empty load from missing file, got %d records", len(got))
	}
}

func TestUserStore_CorruptFile(t *testing.T) {
	s, path := newTestStore(t)

	if err := os.WriteFile(path, []byte("{not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := s.Load(); len(got) != 0 {
		t.Errorf("expected empty load from corrupt file, got %d records", len(got))
	}

	// A later append replaces the corrupt file with a valid one
	rec := domain.CoinRecord{Name: "Fresh", Symbol: "FRS", Price: decimal.NewFromInt(1)}
	if err := s.Append(rec); err != nil {
		t.Fatalf("Append over corrupt file failed: %v", err)
	}

	got := s.Load()
	if len(got) != 1 || got[0].Symbol != "FRS" {
		t.Errorf("expected single fresh record, got %v", got)
	}
}

func TestUserStore_LegacyNumericValues(t *testing.T) {
	s, path := newTestStore(t)

	// Older files stored bare JSON numbers instead of decimal strings
	legacy := `[{"name": "Legacy", "symbol": "lgc", "price": 12.5, "change24h": -1, "volume": 90000}]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	got := s.Load()
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Symbol != "LGC" {
		t.Errorf("expected symbol LGC, got %s", got[0].Symbol)
	}
	if !got[0].Price.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("Price = %s, want 12.5", got[0].Price)
	}
}

func TestUserStore_InvalidRecordLeavesFileUntouched(t *testing.T) {
	s, path := newTestStore(t)

	valid := domain.CoinRecord{Name: "Keep", Symbol: "KPR", Price: decimal.NewFromInt(5)}
	if err := s.Append(valid); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	invalid := domain.CoinRecord{Name: "Bad", Symbol: "   "}
	err = s.Append(invalid)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !domain.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmptySymbol) {
		t.Errorf("expected ErrEmptySymbol, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("file changed after rejected append")
	}
}

func TestUserStore_NegativePriceRejected(t *testing.T) {
	s, _ := newTestStore(t)

	rec := domain.CoinRecord{Name: "Neg", Symbol: "NEG", Price: decimal.NewFromInt(-3)}
	if err := s.Append(rec); !errors.Is(err, domain.ErrNegativeAmount) {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestUserStore_NoTempFileLeftBehind(t *testing.T) {
	s, path := newTestStore(t)

	rec := domain.CoinRecord{Name: "Tmp", Symbol: "TMP", Price: decimal.NewFromInt(1)}
	if err := s.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	files, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name(), ".user_entries-") {
			t.Errorf("temp file left behind: %s", f.Name())
		}
	}
}

func TestUserStore_RoundTripExactness(t *testing.T) {
	s, _ := newTestStore(t)

	rec := domain.CoinRecord{
		Name:      "Precise",
		Symbol:    "PRC",
		Price:     decimal.RequireFromString("0.000000123456789"),
		Change24h: decimal.RequireFromString("99.99"),
		Volume:    decimal.RequireFromString("123456789123456789"),
	}
	if err := s.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := s.Load()
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if !got[0].Price.Equal(rec.Price) {
		t.Errorf("Price round-trip: %s != %s", got[0].Price, rec.Price)
	}
	if !got[0].Volume.Equal(rec.Volume) {
		t.Errorf("Volume round-trip: %s != %s", got[0].Volume, rec.Volume)
	}
}
