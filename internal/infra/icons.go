package infra

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"cryptodash/internal/domain"
)

// IconCache downloads and caches coin icons for the dashboard table.
// Icons live under the configured data directory and are served as static
// files; everything here is best effort and never blocks a refresh result.
type IconCache struct {
	dir    string
	client *http.Client
}

// NewIconCache creates the cache directory and an HTTP client for icon
// downloads.
func NewIconCache(cfg *Config) (*IconCache, error) {
	dir := cfg.IconDirPath()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconCache{
		dir: dir,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Dir returns the cache directory, served by the HTTP layer at /icons/.
func (c *IconCache) Dir() string {
	return c.dir
}

// FileName returns the cached icon file name for a symbol, or "" when the
// symbol contains no usable characters.
func (c *IconCache) FileName(symbol string) string {
	safe := sanitizeSymbol(symbol)
	if safe == "" {
		return ""
	}
	return strings.ToLower(safe) + ".png"
}

// Has reports whether an icon for the symbol is already cached.
func (c *IconCache) Has(symbol string) bool {
	name := c.FileName(symbol)
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dir, name))
	return err == nil
}

// Download fetches iconURL for a symbol if not cached yet.
// Returns the local file path on success.
// Images are resized to 24x24 pixels for consistent UI display.
func (c *IconCache) Download(symbol, iconURL string) (string, error) {
	// Security: Sanitize symbol to prevent path traversal
	name := c.FileName(symbol)
	if name == "" {
		return "", fmt.Errorf("invalid symbol: %s", symbol)
	}

	filePath := filepath.Join(c.dir, name)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	resp, err := c.client.Get(iconURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize to 24x24 with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, 24, 24, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// Sync downloads icons for every record that carries an icon URL, at most
// four downloads in flight. Failures are logged and skipped.
func (c *IconCache) Sync(records []domain.CoinRecord) {
	sem := make(chan struct{}, 4)
	var wg sync.WaitGroup

	for _, rec := range records {
		if rec.IconURL == "" || c.Has(rec.Symbol) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(symbol, iconURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := c.Download(symbol, iconURL); err != nil {
				slog.Debug("Icon download failed",
					slog.String("symbol", symbol),
					slog.Any("error", err),
				)
			}
		}(rec.Symbol, rec.IconURL)
	}

	wg.Wait()
}

func sanitizeSymbol(symbol string) string {
	res := make([]rune, 0, len(symbol))
	for _, r := range symbol {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			res = append(res, r)
		}
	}
	return string(res)
}
