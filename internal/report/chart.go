package report

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/TobiSchelling/TickerScout/internal/prices"
)

var (
	volumeColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	closeColor  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

// WriteChart renders volume (top) and close price (bottom) for the series
// into <SYMBOL>_30day_trend.png.
func (w *Writer) WriteChart(s *prices.Series) (string, error) {
	if len(s.Bars) == 0 {
		return "", fmt.Errorf("no bars to chart for %s", s.Symbol)
	}

	volume := make(plotter.XYs, len(s.Bars))
	closes := make(plotter.XYs, len(s.Bars))
	for i, b := range s.Bars {
		x := float64(b.Date.Unix())
		volume[i] = plotter.XY{X: x, Y: float64(b.Volume)}
		closes[i] = plotter.XY{X: x, Y: b.Close}
	}

	top, err := linePlot(fmt.Sprintf("%s - Volume (30 Days)", s.Symbol), "Volume", volume, volumeColor)
	if err != nil {
		return "", err
	}
	bottom, err := linePlot(fmt.Sprintf("%s - Daily Close Price (30 Days)", s.Symbol), "Close Price (CAD)", closes, closeColor)
	if err != nil {
		return "", err
	}
	bottom.X.Label.Text = "Date"

	img := vgimg.New(12*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 1,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
		PadY: vg.Millimeter * 4,
	}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	path := w.Path(ChartFile(s.Symbol))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

func linePlot(title, yLabel string, data plotter.XYs, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02"}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(data)
	if err != nil {
		return nil, fmt.Errorf("building %q: %w", title, err)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}
