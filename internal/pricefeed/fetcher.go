package pricefeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Price is one quoted asset.
type Price struct {
	Symbol    string    `json:"symbol"`
	USD       float64   `json:"usd"`
	Change24h float64   `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher retrieves current prices for the tracked assets.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Price, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]Price, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]Price, error) {
	return f(ctx)
}

// coinIDs maps platform symbols onto the external API's asset identifiers.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"LTC":  "litecoin",
	"USDT": "tether",
}

// HTTPFetcher pulls USD prices from a CoinGecko-compatible endpoint.
type HTTPFetcher struct {
	baseURL string
	http    *http.Client
}

// NewHTTPFetcher creates an HTTP price fetcher.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.coingecko.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch requests all tracked assets in one call.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Price, error) {
	ids := make([]string, 0, len(coinIDs))
	for _, id := range coinIDs {
		ids = append(ids, id)
	}
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		f.baseURL, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price api returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read price response: %w", err)
	}
	return parsePrices(body, time.Now())
}

func parsePrices(body []byte, now time.Time) ([]Price, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("price api returned invalid json")
	}
	root := gjson.ParseBytes(body)

	var prices []Price
	for symbol, id := range coinIDs {
		entry := root.Get(id)
		if !entry.Exists() {
			continue
		}
		prices = append(prices, Price{
			Symbol:    symbol,
			USD:       entry.Get("usd").Float(),
			Change24h: entry.Get("usd_24h_change").Float(),
			FetchedAt: now,
		})
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price api returned no tracked assets")
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Symbol < prices[j].Symbol
	})
	return prices, nil
}
