package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/TickerScout/internal/collect"
	"github.com/TobiSchelling/TickerScout/internal/recommend"
	"github.com/TobiSchelling/TickerScout/internal/symbols"
)

const (
	SummaryMarkdownFile = "summary.md"
	SummaryHTMLFile     = "summary.html"
	NoSymbolsMessage    = "No relevant stock symbols found in recent news."
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Summary describes a finished run.
type Summary struct {
	GeneratedAt     time.Time
	LookbackDays    int
	Collected       *collect.Result
	Extraction      *symbols.Extraction
	Recommendations []*recommend.Recommendation
}

// Markdown renders the run summary.
func (s *Summary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# TickerScout run %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04"))
	if s.Collected != nil {
		fmt.Fprintf(&b, "Articles published since %s (%d days).\n\n",
			s.Collected.Cutoff.Format("2006-01-02 15:04 MST"), s.LookbackDays)

		b.WriteString("## Articles\n\n")
		fmt.Fprintf(&b, "- Pages scanned: %d\n", s.Collected.PagesScanned)
		fmt.Fprintf(&b, "- Candidates: %d\n", len(s.Collected.Outcomes))
		fmt.Fprintf(&b, "- Parsed in window: %d\n", len(s.Collected.Articles))

		counts := s.Collected.SkipCounts()
		reasons := make([]string, 0, len(counts))
		for r := range counts {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(&b, "- Skipped (%s): %d\n", r, counts[collect.SkipReason(r)])
		}
		b.WriteString("\n")
	}

	if s.Extraction == nil || len(s.Extraction.Symbols) == 0 {
		b.WriteString(NoSymbolsMessage + "\n")
		return b.String()
	}

	b.WriteString("## Mentions\n\n")
	b.WriteString("| Symbol | Date | Article |\n|---|---|---|\n")
	for _, sym := range s.Extraction.Symbols {
		for _, m := range s.Extraction.ArticlesFor(sym) {
			fmt.Fprintf(&b, "| %s | %s | [%s](%s) |\n", sym, m.Article.Date(), cell(m.Article.Title), m.Article.URL)
		}
	}
	b.WriteString("\n")

	if len(s.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		b.WriteString("| Symbol | Start | End | Change | Slope | Recommendation |\n|---|---|---|---|---|---|\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "| %s | $%.2f | $%.2f | %.2f%% | %.4f | **%s** |\n",
				r.Symbol, r.StartPrice, r.EndPrice, r.PctChange, r.Slope, r.Label)
		}
		b.WriteString("\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "![%s trend](%s)\n\n", r.Symbol, ChartFile(r.Symbol))
		}
	}
	return b.String()
}

// RenderMarkdown converts Markdown to an HTML fragment.
func RenderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

var summaryPage = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; }
img { max-width: 100%; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// WriteSummary writes summary.md and its HTML rendering.
func (w *Writer) WriteSummary(s *Summary) ([]string, error) {
	text := s.Markdown()
	mdPath := w.Path(SummaryMarkdownFile)
	if err := os.WriteFile(mdPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mdPath, err)
	}

	body, err := RenderMarkdown(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = summaryPage.Execute(&buf, map[string]any{
		"Title": "TickerScout " + s.GeneratedAt.Format("2006-01-02"),
		"Body":  template.HTML(body), //nolint: gosec
	})
	if err != nil {
		return nil, fmt.Errorf("rendering summary page: %w", err)
	}
	htmlPath := w.Path(SummaryHTMLFile)
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", htmlPath, err)
	}
	return []string{mdPath, htmlPath}, nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
