package prices

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	eodhdBaseURL   = "https://eodhd.com/api"
	eodhdRateLimit = 10
)

// EODHD reads end-of-day bars from eodhd.com.
type EODHD struct {
	client
	apiKey string
}

// NewEODHD creates an EODHD provider.
func NewEODHD(apiKey string, opts ...Option) *EODHD {
	limiter := rate.NewLimiter(rate.Limit(eodhdRateLimit), eodhdRateLimit)
	return &EODHD{client: newClient("eodhd", eodhdBaseURL, limiter, opts), apiKey: apiKey}
}

func (e *EODHD) Name() string { return "eodhd" }

type eodRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// DailyBars returns the daily bars for ticker between from and to.
func (e *EODHD) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("fmt", "json")
	params.Set("api_token", e.apiKey)

	var rows []eodRow
	if err := e.getJSON(ctx, "/eod/"+url.PathEscape(ticker), params, &rows); err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	return bars, nil
}
