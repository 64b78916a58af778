package symbols

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/TobiSchelling/TickerScout/internal/collect"
)

// Mention records the watchlist symbols cited by one article.
type Mention struct {
	Article collect.Article
	Symbols []string
}

// Extraction is the outcome of scanning a set of articles.
type Extraction struct {
	Mentions []Mention
	Symbols  []string // deduplicated, sorted
}

// Extractor finds exchange citations such as "(TSX: ABX)" in article bodies.
type Extractor struct {
	pattern   *regexp.Regexp
	watchlist map[string]bool
	max       int
}

// NewExtractor builds an extractor for citations on exchange, keeping at most
// maxPerArticle citations per article and only symbols in watchlist.
func NewExtractor(exchange string, watchlist []string, maxPerArticle int) *Extractor {
	wl := make(map[string]bool, len(watchlist))
	for _, s := range watchlist {
		wl[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	pattern := regexp.MustCompile(fmt.Sprintf(`\(%s:\s*([A-Z]+)\)`, regexp.QuoteMeta(exchange)))
	return &Extractor{pattern: pattern, watchlist: wl, max: maxPerArticle}
}

// Cited returns the first max citations in body in order of appearance,
// duplicates included, before any watchlist filtering.
func (e *Extractor) Cited(body string) []string {
	matches := e.pattern.FindAllStringSubmatch(body, e.max)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Article returns the distinct watchlist symbols cited in a single body.
func (e *Extractor) Article(body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sym := range e.Cited(body) {
		if e.watchlist[sym] && !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// Extract scans every article. Articles citing no watchlist symbol are left
// out of Mentions.
func (e *Extractor) Extract(articles []collect.Article) *Extraction {
	x := &Extraction{}
	union := make(map[string]bool)
	for _, a := range articles {
		syms := e.Article(a.Body)
		if len(syms) == 0 {
			continue
		}
		x.Mentions = append(x.Mentions, Mention{Article: a, Symbols: syms})
		for _, s := range syms {
			union[s] = true
		}
	}

	for s := range union {
		x.Symbols = append(x.Symbols, s)
	}
	sort.Strings(x.Symbols)
	return x
}

// ArticlesFor returns the mentions that cite symbol.
func (x *Extraction) ArticlesFor(symbol string) []Mention {
	var out []Mention
	for _, m := range x.Mentions {
		for _, s := range m.Symbols {
			if s == symbol {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
