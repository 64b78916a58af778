package collect

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/TobiSchelling/TickerScout/internal/config"
)

// ParseListing returns the resolved article links found in a listing page,
// one per card, and the number of cards that had no usable link.
func ParseListing(pageHTML string, base *url.URL, cardSelector string) (links []string, missing int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing listing: %w", err)
	}

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			missing++
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			missing++
			return
		}
		links = append(links, resolved.String())
	})

	return links, missing, nil
}

// ArticleParser extracts an Article from an article page.
type ArticleParser struct {
	Selectors           config.Selectors
	DateLayout          string
	DateSuffix          string
	Location            *time.Location
	ReadabilityFallback bool
}

// NewArticleParser builds a parser from the source configuration.
func NewArticleParser(src config.Source) *ArticleParser {
	loc, err := time.LoadLocation(src.Timezone)
	if err != nil || src.Timezone == "" {
		loc = time.UTC
	}
	return &ArticleParser{
		Selectors:           src.Selectors,
		DateLayout:          src.DateLayout,
		DateSuffix:          src.DateSuffix,
		Location:            loc,
		ReadabilityFallback: src.ReadabilityFallback,
	}
}

// Parse extracts an article from pageHTML. A non-empty SkipReason means the
// article must be dropped. PublishedAt is populated whenever the date parsed,
// even if the body is missing, so callers can apply the window check first.
func (p *ArticleParser) Parse(pageHTML, pageURL string) (*Article, SkipReason) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, SkipNoBody
	}

	a := &Article{URL: pageURL}

	dateSel := doc.Find(p.Selectors.Date).First()
	if dateSel.Length() == 0 {
		return a, SkipNoDate
	}
	published, err := p.parseDate(dateSel.Text())
	if err != nil {
		return a, SkipBadDate
	}
	a.PublishedAt = published

	titleSelector := p.Selectors.Title
	if titleSelector == "" {
		titleSelector = "h1"
	}
	title := doc.Find(titleSelector).First().Text()
	title = strings.TrimSpace(title)
	if i := strings.Index(title, "\n"); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	a.Title = title

	body := nodeText(doc.Find(p.Selectors.Body).First())
	if body == "" && p.ReadabilityFallback {
		body = readableText(pageHTML, pageURL)
	}
	if body == "" {
		return a, SkipNoBody
	}
	a.Body = body

	return a, ""
}

func (p *ArticleParser) parseDate(raw string) (time.Time, error) {
	s := raw
	if p.DateSuffix != "" {
		s = strings.ReplaceAll(s, p.DateSuffix, "")
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	if p.DateLayout != "" {
		if t, err := time.ParseInLocation(p.DateLayout, s, loc); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(s, loc)
}

// nodeText joins the trimmed text nodes under sel with single spaces,
// skipping script and style content.
func nodeText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func readableText(pageHTML, pageURL string) string {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(pageHTML), parsedURL)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(article.TextContent), " ")
}
