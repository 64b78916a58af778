package prices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/TickerScout/internal/config"
)

type fakeProvider struct {
	bars      []Bar
	err       error
	gotTicker string
	gotFrom   time.Time
	gotTo     time.Time
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) DailyBars(_ context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	p.gotTicker, p.gotFrom, p.gotTo = ticker, from, to
	return p.bars, p.err
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestFetcherWindowAndOrder(t *testing.T) {
	p := &fakeProvider{bars: []Bar{
		{Date: day(3), Close: 3},
		{Date: day(1), Close: 1},
		{Date: day(2), Close: 2},
	}}
	f := NewFetcher(p, ".TO", 30)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	s, err := f.Fetch(context.Background(), "NGD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.gotTicker != "NGD.TO" {
		t.Errorf("expected ticker NGD.TO, got %q", p.gotTicker)
	}
	if !p.gotFrom.Equal(now.AddDate(0, 0, -30)) || !p.gotTo.Equal(now) {
		t.Errorf("unexpected window %v - %v", p.gotFrom, p.gotTo)
	}
	if s.Symbol != "NGD" || s.Ticker != "NGD.TO" || s.Provider != "fake" {
		t.Errorf("unexpected series header %+v", s)
	}
	closes := s.Closes()
	if len(closes) != 3 || closes[0] != 1 || closes[2] != 3 {
		t.Errorf("expected ascending closes, got %v", closes)
	}
}

func TestFetcherPropagatesError(t *testing.T) {
	f := NewFetcher(&fakeProvider{err: errors.New("boom")}, ".TO", 30)
	if _, err := f.Fetch(context.Background(), "NGD"); err == nil {
		t.Error("expected provider error to propagate")
	}
}

func TestYahooDailyBars(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"gmtoffset":-14400},
			"timestamp":[1760448600,1760535000,1760621400],
			"indicators":{"quote":[{
				"open":[10.0,null,11.0],
				"high":[10.5,null,11.5],
				"low":[9.5,null,10.5],
				"close":[10.2,null,11.2],
				"volume":[1000,null,2000]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahoo(WithBaseURL(srv.URL))
	bars, err := y.DailyBars(context.Background(), "NGD.TO", day(1), day(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/NGD.TO" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotInterval != "1d" {
		t.Errorf("expected interval 1d, got %q", gotInterval)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
	if bars[1].Close != 11.2 || bars[1].Volume != 2000 {
		t.Errorf("unexpected bar %+v", bars[1])
	}
	if bars[0].Date.Hour() != 0 {
		t.Errorf("expected date truncated to midnight, got %v", bars[0].Date)
	}
}

func TestYahooAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(WithBaseURL(srv.URL))
	_, err := y.DailyBars(context.Background(), "ZZZ.TO", day(1), day(15))
	if err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Errorf("expected delisted error, got %v", err)
	}
}

func TestEODHDDailyBars(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"path": r.URL.Path, "from": q.Get("from"), "to": q.Get("to"),
			"order": q.Get("order"), "api_token": q.Get("api_token"),
		}
		w.Write([]byte(`[
			{"date":"2026-10-01","open":1,"high":2,"low":0.5,"close":1.5,"adjusted_close":1.5,"volume":300},
			{"date":"2026-10-02","open":1.5,"high":2.5,"low":1,"close":2,"adjusted_close":2,"volume":400}
		]`))
	}))
	defer srv.Close()

	e := NewEODHD("secret", WithBaseURL(srv.URL))
	bars, err := e.DailyBars(context.Background(), "NGD.TO", day(1), day(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery["path"] != "/eod/NGD.TO" {
		t.Errorf("unexpected path %q", gotQuery["path"])
	}
	if gotQuery["from"] != "2026-10-01" || gotQuery["to"] != "2026-10-15" {
		t.Errorf("unexpected window %s - %s", gotQuery["from"], gotQuery["to"])
	}
	if gotQuery["order"] != "a" || gotQuery["api_token"] != "secret" {
		t.Errorf("unexpected params %v", gotQuery)
	}
	if len(bars) != 2 || !bars[1].Date.Equal(day(2)) || bars[1].Volume != 400 {
		t.Errorf("unexpected bars %+v", bars)
	}
}

func TestEODHDStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewEODHD("bad", WithBaseURL(srv.URL))
	_, err := e.DailyBars(context.Background(), "NGD.TO", day(1), day(15))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Provider != "eodhd" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := New(config.Prices{Provider: "yahoo"}, 0)
	if err != nil || p.Name() != "yahoo" {
		t.Errorf("expected yahoo provider, got %v, %v", p, err)
	}

	t.Setenv("TEST_EODHD_KEY", "")
	if _, err := New(config.Prices{Provider: "eodhd", APIKeyEnv: "TEST_EODHD_KEY"}, 0); err == nil {
		t.Error("expected error without api key")
	}

	t.Setenv("TEST_EODHD_KEY", "k")
	p, err = New(config.Prices{Provider: "eodhd", APIKeyEnv: "TEST_EODHD_KEY"}, time.Second)
	if err != nil || p.Name() != "eodhd" {
		t.Errorf("expected eodhd provider, got %v, %v", p, err)
	}

	if _, err := New(config.Prices{Provider: "bloomberg"}, 0); err == nil {
		t.Error("expected error for unknown provider")
	}
}
