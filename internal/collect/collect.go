package collect

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/TobiSchelling/TickerScout/internal/config"
	"github.com/TobiSchelling/TickerScout/internal/fetch"
)

// Result holds the results of a collection run.
type Result struct {
	Articles     []Article
	Outcomes     []Outcome
	PagesScanned int
	Cutoff       time.Time
}

// SkipCounts tallies skipped outcomes by reason.
func (r *Result) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, o := range r.Outcomes {
		if !o.Parsed() {
			counts[o.Skip]++
		}
	}
	return counts
}

// Collector scrapes press releases from the configured source.
type Collector struct {
	fetcher  fetch.Fetcher
	parser   *ArticleParser
	src      config.Source
	daysBack int
	pages    int
	now      func() time.Time
}

// NewCollector creates a collector. Non-positive daysBack or pages fall back
// to the configured values.
func NewCollector(cfg *config.Config, fetcher fetch.Fetcher, daysBack, pages int) *Collector {
	if daysBack <= 0 {
		daysBack = cfg.Source.LookbackDays
	}
	if pages <= 0 {
		pages = cfg.Source.Pages
	}
	return &Collector{
		fetcher:  fetcher,
		parser:   NewArticleParser(cfg.Source),
		src:      cfg.Source,
		daysBack: daysBack,
		pages:    pages,
		now:      time.Now,
	}
}

// ListingURL returns the URL of listing page n (1-based).
func (c *Collector) ListingURL(page int) string {
	return fmt.Sprintf("%s%s?page=%d&pagesize=%d", c.src.BaseURL, c.src.ListingPath, page, c.src.PageSize)
}

// ListingURLs returns every listing URL the collector would visit.
func (c *Collector) ListingURLs() []string {
	if c.src.Mode == "rss" {
		return []string{c.src.FeedURL}
	}
	urls := make([]string, 0, c.pages)
	for page := 1; page <= c.pages; page++ {
		urls = append(urls, c.ListingURL(page))
	}
	return urls
}

// Collect walks the listing pages and parses every linked article. A failed
// listing fetch aborts the run; failed articles are recorded as skipped.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Cutoff: c.now().AddDate(0, 0, -c.daysBack)}

	if c.src.Mode == "rss" {
		log.Printf("Reading feed %s", c.src.FeedURL)
		text, err := c.fetcher.Fetch(ctx, c.src.FeedURL)
		if err != nil {
			return nil, fmt.Errorf("fetching feed: %w", err)
		}
		links, missing, err := ParseFeedLinks(text)
		if err != nil {
			return nil, err
		}
		r.PagesScanned = 1
		c.recordMissing(r, missing)
		for _, link := range links {
			c.record(r, c.collectArticle(ctx, link, r.Cutoff))
		}
		return r, nil
	}

	base, err := url.Parse(c.src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	for page := 1; page <= c.pages; page++ {
		fmt.Printf("Scraping page %d...\n", page)
		text, err := c.fetcher.Fetch(ctx, c.ListingURL(page))
		if err != nil {
			return nil, fmt.Errorf("fetching listing page %d: %w", page, err)
		}
		links, missing, err := ParseListing(text, base, c.src.Selectors.Card)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		r.PagesScanned++
		c.recordMissing(r, missing)
		for _, link := range links {
			c.record(r, c.collectArticle(ctx, link, r.Cutoff))
		}
	}

	log.Printf("Collection complete: %d pages, %d candidates, %d articles in window",
		r.PagesScanned, len(r.Outcomes), len(r.Articles))
	return r, nil
}

func (c *Collector) collectArticle(ctx context.Context, link string, cutoff time.Time) Outcome {
	text, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return skipped(link, SkipFetchError, err)
	}

	article, reason := c.parser.Parse(text, link)
	if article == nil || reason == SkipNoDate || reason == SkipBadDate {
		return skipped(link, reason, nil)
	}
	if article.PublishedAt.Before(cutoff) {
		return skipped(link, SkipOutOfWindow, nil)
	}
	if reason != "" {
		return skipped(link, reason, nil)
	}
	return parsed(article)
}

func (c *Collector) record(r *Result, o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Parsed() {
		r.Articles = append(r.Articles, *o.Article)
	}
}

func (c *Collector) recordMissing(r *Result, n int) {
	for i := 0; i < n; i++ {
		r.Outcomes = append(r.Outcomes, skipped("", SkipNoLink, nil))
	}
}
