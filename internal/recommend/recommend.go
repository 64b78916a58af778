package recommend

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when fewer than two closes are available.
var ErrInsufficientData = errors.New("insufficient price data: need at least 2 closes")

// DefaultThresholdPct is the percentage move a trend must exceed.
const DefaultThresholdPct = 2.0

type Label string

const (
	Buy  Label = "BUY"
	Sell Label = "SELL"
	Hold Label = "HOLD"
)

// Recommendation is the verdict for one symbol over its price window.
type Recommendation struct {
	Symbol     string
	StartPrice float64
	EndPrice   float64
	PctChange  float64
	Slope      float64
	Label      Label
}

// Slope returns the least-squares slope of values against their index.
func Slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// PctChange returns the percentage change from first to last.
func PctChange(first, last float64) float64 {
	return (last - first) / first * 100
}

// Classify maps a trend to a label. Both the slope sign and the percentage
// move must agree for BUY or SELL.
func Classify(slope, pct, threshold float64) Label {
	switch {
	case slope > 0 && pct > threshold:
		return Buy
	case slope < 0 && pct < -threshold:
		return Sell
	default:
		return Hold
	}
}

// Evaluate computes the recommendation for a series of closes.
func Evaluate(symbol string, closes []float64, threshold float64) (*Recommendation, error) {
	if len(closes) < 2 {
		return nil, ErrInsufficientData
	}
	first, last := closes[0], closes[len(closes)-1]
	if first == 0 {
		return nil, fmt.Errorf("%s: first close is zero", symbol)
	}

	r := &Recommendation{
		Symbol:     symbol,
		StartPrice: first,
		EndPrice:   last,
		PctChange:  PctChange(first, last),
		Slope:      Slope(closes),
	}
	r.Label = Classify(r.Slope, r.PctChange, threshold)
	return r, nil
}

// SummaryLine is the one-line console form.
func (r *Recommendation) SummaryLine() string {
	return fmt.Sprintf("%s Recommendation: %s (%.2f%%)", r.Symbol, r.Label, r.PctChange)
}

// Report is the text written to <SYMBOL>_recommendation.txt.
func (r *Recommendation) Report() string {
	return fmt.Sprintf("Stock: %s\nStart Price: $%.2f\nEnd Price: $%.2f\nChange: %.2f%%\nSlope: %.4f\nRecommendation: %s\n",
		r.Symbol, r.StartPrice, r.EndPrice, r.PctChange, r.Slope, r.Label)
}
