package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/TobiSchelling/TickerScout/internal/config"
	"github.com/TobiSchelling/TickerScout/internal/database"
	"github.com/TobiSchelling/TickerScout/internal/prices"
	"github.com/TobiSchelling/TickerScout/internal/recommend"
	"github.com/TobiSchelling/TickerScout/internal/report"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	if body, ok := f.pages[pageURL]; ok {
		return body, nil
	}
	return "", fmt.Errorf("%s: 404 Not Found", pageURL)
}

type fakeProvider struct {
	closes map[string][]float64
	err    error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) DailyBars(_ context.Context, ticker string, from, _ time.Time) ([]prices.Bar, error) {
	if p.err != nil {
		return nil, p.err
	}
	var bars []prices.Bar
	for i, c := range p.closes[ticker] {
		bars = append(bars, prices.Bar{Date: from.AddDate(0, 0, i+1), Close: c, Volume: int64(100 * (i + 1))})
	}
	return bars, nil
}

const listingURL = "https://example.test/news-releases/news-releases-list/?page=1&pagesize=25"

func recentDate(t *testing.T, ago time.Duration) string {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	return time.Now().Add(-ago).In(loc).Format("Jan 02, 2006, 15:04") + " ET"
}

func articlePage(title, date, body string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><p class="mb-no">%s</p>`+
		`<div class="col-lg-10 col-lg-offset-1"><p>%s</p></div></body></html>`, title, date, body)
}

func newsSite(t *testing.T) *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{
		listingURL: `<div class="card"><a href="/news-releases/gold.html">Gold</a></div>` +
			`<div class="card"><a href="/news-releases/old.html">Old</a></div>` +
			`<div class="card"><a href="/news-releases/other.html">Other</a></div>`,
		"https://example.test/news-releases/gold.html": articlePage("New Gold update",
			recentDate(t, 2*time.Hour), "New Gold (TSX: NGD) and OceanaGold (TSX: OGC) report."),
		"https://example.test/news-releases/old.html": articlePage("Old news",
			recentDate(t, 40*24*time.Hour), "Aris Mining (TSX: ARIS) from long ago."),
		"https://example.test/news-releases/other.html": articlePage("Unrelated",
			recentDate(t, time.Hour), "Barrick (TSX: ABX) is not on the watchlist."),
	}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	cfg.Source.BaseURL = "https://example.test"
	cfg.Source.Pages = 1
	cfg.Output.Dir = t.TempDir()
	cfg.Output.PDF = true
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, site *fakeFetcher, provider *fakeProvider, db *database.DB) *Pipeline {
	t.Helper()
	writer, err := report.NewWriter(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	return New(cfg, db, site, prices.NewFetcher(provider, cfg.Prices.Suffix, cfg.Prices.LookbackDays), writer)
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	db := openTestDB(t)
	provider := &fakeProvider{closes: map[string][]float64{
		"NGD.TO": {100, 102, 105, 110},
		"OGC.TO": {100, 95, 90},
	}}
	p := newTestPipeline(t, cfg, newsSite(t), provider, db)

	r := p.Run(context.Background(), Options{})
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(r.Symbols, ",") != "NGD,OGC" {
		t.Errorf("expected NGD,OGC, got %v", r.Symbols)
	}
	if r.Articles != 2 {
		t.Errorf("expected 2 articles in window, got %d", r.Articles)
	}
	if len(r.Recommendations) != 2 || r.Recommendations[0].Label != recommend.Buy || r.Recommendations[1].Label != recommend.Sell {
		t.Errorf("unexpected recommendations %+v", r.Recommendations)
	}

	for _, name := range []string{
		report.ArticlesFile, "NGD_30day_data.csv", "NGD_30day_trend.png", "NGD_recommendation.txt",
		"OGC_recommendation.txt", report.SummaryMarkdownFile, report.SummaryHTMLFile, report.DigestFile,
	} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}

	var names []string
	for _, s := range r.Steps {
		names = append(names, s.Name)
	}
	if want := "Collect,Extract,Analyze NGD,Analyze OGC,Report"; strings.Join(names, ",") != want {
		t.Errorf("expected steps %s, got %s", want, strings.Join(names, ","))
	}
	if r.Steps[2].Summary != "NGD Recommendation: BUY (10.00%)" {
		t.Errorf("unexpected analyze summary %q", r.Steps[2].Summary)
	}

	run, err := db.GetRun(r.RunID)
	if err != nil || run == nil {
		t.Fatalf("expected archived run, got %v, %v", run, err)
	}
	if run.Status != "ok" || run.Articles != 2 || run.Candidates != 3 {
		t.Errorf("unexpected archived run %+v", run)
	}
	recs, _ := db.GetRecommendationsForRun(r.RunID)
	if len(recs) != 2 || recs[0].BarCount != 4 {
		t.Errorf("unexpected archived recommendations %+v", recs)
	}
	mentions, _ := db.GetMentionsForRun(r.RunID)
	if len(mentions) != 2 {
		t.Errorf("expected 2 archived mentions, got %d", len(mentions))
	}
}

func TestRunNoSymbols(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watchlist.Symbols = []string{"ZZZ"}
	p := newTestPipeline(t, cfg, newsSite(t), &fakeProvider{}, nil)

	r := p.Run(context.Background(), Options{})
	if err := r.Err(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if r.Steps[1].Summary != report.NoSymbolsMessage {
		t.Errorf("unexpected extract summary %q", r.Steps[1].Summary)
	}
	if len(r.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(r.Recommendations))
	}
}

func TestRunListingFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	db := openTestDB(t)
	p := newTestPipeline(t, cfg, &fakeFetcher{}, &fakeProvider{}, db)

	r := p.Run(context.Background(), Options{})
	if r.Err() == nil {
		t.Fatal("expected listing failure")
	}
	if len(r.Steps) != 1 {
		t.Errorf("expected run to stop after collect, got %d steps", len(r.Steps))
	}
	run, _ := db.GetRun(r.RunID)
	if run == nil || run.Status != "failed" {
		t.Errorf("expected failed run in archive, got %+v", run)
	}
}

func TestRunPriceFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg, newsSite(t), &fakeProvider{err: errors.New("yahoo: status 429")}, nil)

	r := p.Run(context.Background(), Options{})
	if r.Err() == nil {
		t.Fatal("expected price failure")
	}
	if last := r.Steps[len(r.Steps)-1]; last.Name != "Analyze NGD" {
		t.Errorf("expected failure at Analyze NGD, got %s", last.Name)
	}
}

func TestRunInsufficientDataIsFatal(t *testing.T) {
	cfg := testConfig(t)
	provider := &fakeProvider{closes: map[string][]float64{"NGD.TO": {100}}}
	p := newTestPipeline(t, cfg, newsSite(t), provider, nil)

	r := p.Run(context.Background(), Options{})
	if !errors.Is(r.Err(), recommend.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", r.Err())
	}
}

func TestRunCollectOnly(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(t, cfg, newsSite(t), &fakeProvider{err: errors.New("must not be called")}, nil)

	r := p.Run(context.Background(), Options{CollectOnly: true})
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Steps) != 2 {
		t.Errorf("expected collect and extract only, got %d steps", len(r.Steps))
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, report.ArticlesFile)); err != nil {
		t.Errorf("expected %s: %v", report.ArticlesFile, err)
	}
}

func TestAnalyze(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.PDF = false
	provider := &fakeProvider{closes: map[string][]float64{"IAU.TO": {100, 101, 99, 100}}}
	p := newTestPipeline(t, cfg, &fakeFetcher{}, provider, nil)

	r := p.Analyze(context.Background(), []string{" iau "})
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Recommendations) != 1 || r.Recommendations[0].Label != recommend.Hold {
		t.Errorf("unexpected recommendations %+v", r.Recommendations)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "IAU_recommendation.txt"))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "Change: 0.00%") {
		t.Errorf("unexpected report %q", data)
	}
}

func TestDryRun(t *testing.T) {
	cfg := testConfig(t)
	site := &fakeFetcher{}
	p := newTestPipeline(t, cfg, site, &fakeProvider{err: errors.New("no network")}, nil)

	r := p.DryRun(Options{Pages: 3, DaysBack: 7})
	if len(r.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(r.Steps))
	}
	for _, s := range r.Steps {
		if !strings.HasPrefix(s.Summary, "[dry-run]") {
			t.Errorf("expected dry-run summary, got %q", s.Summary)
		}
	}
	if !strings.Contains(r.Steps[0].Summary, "3 listing page(s)") || !strings.Contains(r.Steps[0].Summary, "last 7 days") {
		t.Errorf("unexpected collect summary %q", r.Steps[0].Summary)
	}
	if !strings.Contains(r.Steps[1].Summary, "IAU, NGD, OGC, ARIS") {
		t.Errorf("unexpected extract summary %q", r.Steps[1].Summary)
	}
}
