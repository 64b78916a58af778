package prices

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/TobiSchelling/TickerScout/internal/config"
)

// Bar is one trading day of OHLCV data.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Series is a daily price history for one symbol, ordered by date.
type Series struct {
	Symbol   string
	Ticker   string
	Provider string
	Bars     []Bar
}

// Closes returns the closing prices in date order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Provider returns daily bars for a provider-specific ticker.
type Provider interface {
	Name() string
	DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
}

// New returns the provider named in cfg.
func New(cfg config.Prices, timeout time.Duration) (Provider, error) {
	opts := []Option{WithTimeout(timeout)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	switch cfg.Provider {
	case "yahoo", "":
		return NewYahoo(opts...), nil
	case "eodhd":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("eodhd provider needs an API key in $%s", cfg.APIKeyEnv)
		}
		return NewEODHD(key, opts...), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Provider)
	}
}

// Fetcher maps watchlist symbols to provider tickers and retrieves a fixed
// window of daily bars.
type Fetcher struct {
	provider Provider
	suffix   string
	days     int
	now      func() time.Time
}

// NewFetcher creates a fetcher over provider. Tickers are symbol+suffix and
// the window is the last days calendar days.
func NewFetcher(provider Provider, suffix string, days int) *Fetcher {
	return &Fetcher{provider: provider, suffix: suffix, days: days, now: time.Now}
}

// Ticker returns the provider ticker for symbol.
func (f *Fetcher) Ticker(symbol string) string {
	return symbol + f.suffix
}

// ProviderName returns the name of the underlying provider.
func (f *Fetcher) ProviderName() string {
	return f.provider.Name()
}

// Fetch retrieves the price window for symbol.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) (*Series, error) {
	to := f.now()
	from := to.AddDate(0, 0, -f.days)
	ticker := f.Ticker(symbol)

	bars, err := f.provider.DailyBars(ctx, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w", ticker, err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &Series{
		Symbol:   symbol,
		Ticker:   ticker,
		Provider: f.provider.Name(),
		Bars:     bars,
	}, nil
}
