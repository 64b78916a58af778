package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TobiSchelling/TickerScout/internal/collect"
	"github.com/TobiSchelling/TickerScout/internal/prices"
	"github.com/TobiSchelling/TickerScout/internal/recommend"
)

const ArticlesFile = "parsed_news.csv"

// DataFile is the price export for symbol.
func DataFile(symbol string) string { return symbol + "_30day_data.csv" }

// ChartFile is the trend chart for symbol.
func ChartFile(symbol string) string { return symbol + "_30day_trend.png" }

// RecommendationFile is the text report for symbol.
func RecommendationFile(symbol string) string { return symbol + "_recommendation.txt" }

// Writer writes run artifacts into a single directory.
type Writer struct {
	dir string
}

// NewWriter creates dir if needed and returns a writer for it.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the full path of name inside the output directory.
func (w *Writer) Path(name string) string { return filepath.Join(w.dir, name) }

// WriteArticles exports the parsed articles as title,date,link,content.
func (w *Writer) WriteArticles(articles []collect.Article) (string, error) {
	rows := [][]string{{"title", "date", "link", "content"}}
	for _, a := range articles {
		rows = append(rows, []string{a.Title, a.Date(), a.URL, a.Body})
	}
	path := w.Path(ArticlesFile)
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WritePrices exports a price series.
func (w *Writer) WritePrices(s *prices.Series) (string, error) {
	rows := [][]string{{"Date", "Open", "High", "Low", "Close", "Volume", "Symbol"}}
	for _, b := range s.Bars {
		rows = append(rows, []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
			s.Symbol,
		})
	}
	path := w.Path(DataFile(s.Symbol))
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRecommendation writes the text report for r.
func (w *Writer) WriteRecommendation(r *recommend.Recommendation) (string, error) {
	path := w.Path(RecommendationFile(r.Symbol))
	if err := os.WriteFile(path, []byte(r.Report()), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
