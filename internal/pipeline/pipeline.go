package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TobiSchelling/TickerScout/internal/collect"
	"github.com/TobiSchelling/TickerScout/internal/config"
	"github.com/TobiSchelling/TickerScout/internal/database"
	"github.com/TobiSchelling/TickerScout/internal/fetch"
	"github.com/TobiSchelling/TickerScout/internal/prices"
	"github.com/TobiSchelling/TickerScout/internal/recommend"
	"github.com/TobiSchelling/TickerScout/internal/report"
	"github.com/TobiSchelling/TickerScout/internal/symbols"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a pipeline run.
type Result struct {
	RunID           int64
	Articles        int
	Symbols         []string
	Recommendations []*recommend.Recommendation
	Files           []string
	Steps           []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

func (r *Result) add(step StepResult) bool {
	r.Steps = append(r.Steps, step)
	return step.Err == nil
}

// Options override the configured collection window for one run.
type Options struct {
	DaysBack    int
	Pages       int
	CollectOnly bool
}

// Pipeline runs collect, extract and analyze in sequence.
type Pipeline struct {
	cfg     *config.Config
	db      *database.DB
	fetcher fetch.Fetcher
	prices  *prices.Fetcher
	writer  *report.Writer
	now     func() time.Time
}

// New creates a pipeline from explicit collaborators. db may be nil to
// disable archiving.
func New(cfg *config.Config, db *database.DB, fetcher fetch.Fetcher, priceFetcher *prices.Fetcher, writer *report.Writer) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		db:      db,
		fetcher: fetcher,
		prices:  priceFetcher,
		writer:  writer,
		now:     time.Now,
	}
}

// NewFromConfig wires the HTTP fetcher, price provider and report writer
// described by cfg.
func NewFromConfig(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	timeout := time.Duration(cfg.Source.TimeoutSeconds) * time.Second
	fetcher := fetch.NewHTTPFetcher(timeout,
		fetch.WithRateLimit(cfg.Source.RequestsPerSecond),
		fetch.WithUserAgent(cfg.Source.UserAgent),
	)

	provider, err := prices.New(cfg.Prices, timeout)
	if err != nil {
		return nil, err
	}

	writer, err := report.NewWriter(cfg.GetOutputDir())
	if err != nil {
		return nil, err
	}

	return New(cfg, db, fetcher, prices.NewFetcher(provider, cfg.Prices.Suffix, cfg.Prices.LookbackDays), writer), nil
}

// Run executes collect and extract, then analyzes every matched symbol.
// The first failing step ends the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{}
	collector := collect.NewCollector(p.cfg, p.fetcher, opts.DaysBack, opts.Pages)
	daysBack, pages := p.window(opts)

	a := p.startArchive(daysBack, pages)
	r.RunID = a.runID

	collected, step := p.runCollect(ctx, collector, r)
	if !r.add(step) {
		a.finish("", r.Err())
		return r
	}
	a.recordCounts(collected)

	extraction, step := p.runExtract(collected)
	r.add(step)
	r.Articles = len(collected.Articles)
	r.Symbols = extraction.Symbols
	a.recordMentions(extraction)

	if !opts.CollectOnly {
		for _, sym := range extraction.Symbols {
			rec, step := p.runAnalyze(ctx, sym, r)
			if !r.add(step) {
				a.finish("", r.Err())
				return r
			}
			a.recordRecommendation(rec)
		}
	}

	summary := &report.Summary{
		GeneratedAt:     p.now(),
		LookbackDays:    daysBack,
		Collected:       collected,
		Extraction:      extraction,
		Recommendations: r.Recommendations,
	}
	if !opts.CollectOnly {
		r.add(p.runReport(summary, r))
	}
	a.finish(summary.Markdown(), r.Err())
	return r
}

// Analyze skips collection and analyzes the given symbols directly.
func (p *Pipeline) Analyze(ctx context.Context, syms []string) *Result {
	r := &Result{}
	a := p.startArchive(0, 0)
	r.RunID = a.runID

	for _, raw := range syms {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" {
			continue
		}
		r.Symbols = append(r.Symbols, sym)
		rec, step := p.runAnalyze(ctx, sym, r)
		if !r.add(step) {
			a.finish("", r.Err())
			return r
		}
		a.recordRecommendation(rec)
	}

	summary := &report.Summary{
		GeneratedAt:     p.now(),
		Extraction:      &symbols.Extraction{Symbols: r.Symbols},
		Recommendations: r.Recommendations,
	}
	r.add(p.runReport(summary, r))
	a.finish(summary.Markdown(), r.Err())
	return r
}

// DryRun reports what Run would do without touching the network.
func (p *Pipeline) DryRun(opts Options) *Result {
	r := &Result{}
	collector := collect.NewCollector(p.cfg, p.fetcher, opts.DaysBack, opts.Pages)
	daysBack, _ := p.window(opts)
	urls := collector.ListingURLs()

	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("[dry-run] Would scan %d listing page(s) starting at %s for articles from the last %d days",
			len(urls), urls[0], daysBack),
	})

	wl := p.cfg.Watchlist
	r.Steps = append(r.Steps, StepResult{
		Name: "Extract",
		Summary: fmt.Sprintf("[dry-run] Watchlist (%s): %s, max %d citations per article",
			wl.Exchange, strings.Join(wl.Symbols, ", "), wl.MaxPerArticle),
	})

	if !opts.CollectOnly {
		r.Steps = append(r.Steps, StepResult{
			Name: "Analyze",
			Summary: fmt.Sprintf("[dry-run] Would fetch %d days of daily bars per symbol from %s (ticker suffix %q)",
				p.cfg.Prices.LookbackDays, p.cfg.Prices.Provider, p.cfg.Prices.Suffix),
		})
		r.Steps = append(r.Steps, StepResult{
			Name:    "Report",
			Summary: fmt.Sprintf("[dry-run] Would write reports to %s", p.cfg.GetOutputDir()),
		})
	}
	return r
}

func (p *Pipeline) window(opts Options) (daysBack, pages int) {
	daysBack, pages = opts.DaysBack, opts.Pages
	if daysBack <= 0 {
		daysBack = p.cfg.Source.LookbackDays
	}
	if pages <= 0 {
		pages = p.cfg.Source.Pages
	}
	return daysBack, pages
}

func (p *Pipeline) runCollect(ctx context.Context, collector *collect.Collector, r *Result) (*collect.Result, StepResult) {
	log.Println("Step 1/3: Collecting articles...")
	collected, err := collector.Collect(ctx)
	if err != nil {
		return nil, StepResult{Name: "Collect", Err: err}
	}

	path, err := p.writer.WriteArticles(collected.Articles)
	if err != nil {
		return nil, StepResult{Name: "Collect", Err: err}
	}
	r.Files = append(r.Files, path)

	return collected, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Parsed %d articles in window from %d candidates (%d pages)",
			len(collected.Articles), len(collected.Outcomes), collected.PagesScanned),
	}
}

func (p *Pipeline) runExtract(collected *collect.Result) (*symbols.Extraction, StepResult) {
	log.Println("Step 2/3: Extracting symbols...")
	wl := p.cfg.Watchlist
	extraction := symbols.NewExtractor(wl.Exchange, wl.Symbols, wl.MaxPerArticle).Extract(collected.Articles)

	if len(extraction.Symbols) == 0 {
		return extraction, StepResult{Name: "Extract", Summary: report.NoSymbolsMessage}
	}
	return extraction, StepResult{
		Name: "Extract",
		Summary: fmt.Sprintf("Found %d symbol(s) in %d article(s): %s",
			len(extraction.Symbols), len(extraction.Mentions), strings.Join(extraction.Symbols, ", ")),
	}
}

func (p *Pipeline) runAnalyze(ctx context.Context, symbol string, r *Result) (*analysis, StepResult) {
	log.Printf("Step 3/3: Analyzing %s...", symbol)
	name := "Analyze " + symbol

	series, err := p.prices.Fetch(ctx, symbol)
	if err != nil {
		return nil, StepResult{Name: name, Err: err}
	}

	rec, err := recommend.Evaluate(symbol, series.Closes(), p.cfg.Recommendation.ThresholdPct)
	if err != nil {
		return nil, StepResult{Name: name, Err: fmt.Errorf("%s (%d bars): %w", series.Ticker, len(series.Bars), err)}
	}

	writers := []func() (string, error){
		func() (string, error) { return p.writer.WritePrices(series) },
		func() (string, error) { return p.writer.WriteChart(series) },
		func() (string, error) { return p.writer.WriteRecommendation(rec) },
	}
	for _, write := range writers {
		path, err := write()
		if err != nil {
			return nil, StepResult{Name: name, Err: err}
		}
		r.Files = append(r.Files, path)
	}

	r.Recommendations = append(r.Recommendations, rec)
	return &analysis{series: series, rec: rec}, StepResult{Name: name, Summary: rec.SummaryLine()}
}

func (p *Pipeline) runReport(summary *report.Summary, r *Result) StepResult {
	var written []string
	if p.cfg.Output.Summary {
		paths, err := p.writer.WriteSummary(summary)
		if err != nil {
			return StepResult{Name: "Report", Err: err}
		}
		written = append(written, paths...)
	}
	if p.cfg.Output.PDF {
		path, err := p.writer.WriteDigest(summary)
		if err != nil {
			return StepResult{Name: "Report", Err: err}
		}
		written = append(written, path)
	}
	r.Files = append(r.Files, written...)

	if len(written) == 0 {
		return StepResult{Name: "Report", Summary: "Summary output disabled"}
	}
	return StepResult{Name: "Report", Summary: fmt.Sprintf("Wrote %d file(s) to %s", len(written), p.writer.Dir())}
}
