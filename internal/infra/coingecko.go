package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

// marketRow is one element of the CoinGecko /coins/markets response.
// Required fields are pointers so an absent key is distinguishable from a
// zero value; price_change_percentage_24h is genuinely nullable upstream.
type marketRow struct {
	ID            string   `json:"id"`
	Symbol        *string  `json:"symbol"`
	Name          *string  `json:"name"`
	Image         string   `json:"image"`
	CurrentPrice  *float64 `json:"current_price"`
	TotalVolume   *float64 `json:"total_volume"`
	Change24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapRank int      `json:"market_cap_rank"`
}

// CoinGeckoClient fetches top-ranked market data from the CoinGecko API.
// One request per Fetch call, no retry, no caching; a failed call is the
// caller's signal to fall back to stored records.
type CoinGeckoClient struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
}

// NewCoinGeckoClient creates a client from the API section of the config.
func NewCoinGeckoClient(cfg *Config) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		vsCurrency: cfg.API.VsCurrency,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout(),
		},
	}
}

// Fetch returns at most limit coins ordered by market cap descending.
func (c *CoinGeckoClient) Fetch(ctx context.Context, limit int) ([]domain.CoinRecord, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", fmt.Sprintf("%d", limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	reqURL := c.baseURL + "/coins/markets?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewFetchError("request", err)
	}

	// Browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewFetchError("status", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError("decode", err)
	}

	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, domain.NewFetchError("decode", err)
	}

	records := make([]domain.CoinRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, domain.NewFetchError("schema", fmt.Errorf("row %d (%s): %w", i, row.ID, err))
		}
		records = append(records, rec)
	}

	slog.Debug("Market data fetched",
		slog.Int("count", len(records)),
		slog.Duration("duration", time.Since(start)),
	)

	return records, nil
}

// toRecord converts a wire row into a domain record. Missing required
// fields fail; a null 24h change maps to zero (upstream reports null for
// newly listed coins).
func (r marketRow) toRecord() (domain.CoinRecord, error) {
	if r.Name == nil {
		return domain.CoinRecord{}, fmt.Errorf("%w: name", domain.ErrMissingField)
	}
	if r.Symbol == nil {
		return domain.CoinRecord{}, fmt.Errorf("%w: symbol", domain.ErrMissingField)
	}
	if r.CurrentPrice == nil {
		return domain.CoinRecord{}, fmt.Errorf("%w: current_price", domain.ErrMissingField)
	}
	if r.TotalVolume == nil {
		return domain.CoinRecord{}, fmt.Errorf("%w: total_volume", domain.ErrMissingField)
	}

	change := decimal.Zero
	if r.Change24h != nil {
		change = decimal.NewFromFloat(*r.Change24h)
	}

	return domain.CoinRecord{
		Symbol:    strings.ToUpper(*r.Symbol),
		Name:      *r.Name,
		Price:     decimal.NewFromFloat(*r.CurrentPrice),
		Change24h: change,
		Volume:    decimal.NewFromFloat(*r.TotalVolume),
		Source:    domain.SourceLive,
		IconURL:   r.Image,
	}, nil
}
