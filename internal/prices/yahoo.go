package prices

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo reads daily bars from the Yahoo Finance chart API.
type Yahoo struct {
	client
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(opts ...Option) *Yahoo {
	return &Yahoo{client: newClient("yahoo", yahooBaseURL, rate.NewLimiter(rate.Inf, 1), opts)}
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API. Missing values
// arrive as JSON null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// DailyBars returns the daily bars for ticker between from and to.
func (y *Yahoo) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))

	var chart yahooChart
	if err := y.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", ticker)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars (holidays, halted days)
		}
		day := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		bars = append(bars, Bar{
			Date:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: int64(at(quote.Volume, i)),
		})
	}
	return bars, nil
}
