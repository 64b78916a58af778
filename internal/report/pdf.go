package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/TobiSchelling/TickerScout/internal/recommend"
)

const DigestFile = "digest.pdf"

// WriteDigest writes a PDF with a cover page and one page per
// recommendation, embedding the chart when it exists.
func (w *Writer) WriteDigest(s *Summary) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "TickerScout digest", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, s.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(s.Recommendations) == 0 {
		pdf.MultiCell(0, 5, NoSymbolsMessage, "", "L", false)
	}
	for _, r := range s.Recommendations {
		pdf.CellFormat(0, 6, r.SummaryLine(), "", 1, "L", false, 0, "")
	}

	for _, r := range s.Recommendations {
		w.digestPage(pdf, r)
	}

	path := w.Path(DigestFile)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) digestPage(pdf *fpdf.Fpdf, r *recommend.Recommendation) {
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, r.Symbol, "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	for _, line := range strings.Split(strings.TrimRight(r.Report(), "\n"), "\n") {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	chart := w.Path(ChartFile(r.Symbol))
	if _, err := os.Stat(chart); err == nil {
		pdf.ImageOptions(chart, 15, pdf.GetY(), 180, 0, false,
			fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}
}
