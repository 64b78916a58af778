package recommend

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		label  Label
		pct    float64
	}{
		{"rising", []float64{100, 102, 105, 110}, Buy, 10.0},
		{"falling", []float64{100, 95, 90}, Sell, -10.0},
		{"flat", []float64{100, 101, 99, 100}, Hold, 0.0},
		{"small rise", []float64{100, 100.5, 101}, Hold, 1.0},
		{"rise against slope", []float64{100, 130, 120, 90, 103}, Hold, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Evaluate("NGD", tt.closes, DefaultThresholdPct)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Label != tt.label {
				t.Errorf("expected %s, got %s (slope %.4f, pct %.2f)", tt.label, r.Label, r.Slope, r.PctChange)
			}
			if math.Abs(r.PctChange-tt.pct) > 1e-9 {
				t.Errorf("expected pct %.2f, got %.4f", tt.pct, r.PctChange)
			}
		})
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	for _, closes := range [][]float64{nil, {100}} {
		if _, err := Evaluate("NGD", closes, DefaultThresholdPct); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData for %v, got %v", closes, err)
		}
	}
}

func TestSlope(t *testing.T) {
	if got := Slope([]float64{1, 3, 5, 7}); math.Abs(got-2) > 1e-12 {
		t.Errorf("expected slope 2, got %v", got)
	}
	if got := Slope([]float64{5, 5, 5}); got != 0 {
		t.Errorf("expected slope 0, got %v", got)
	}
	// 100,102,105,110: x̄=1.5, ȳ=104.25, Σ(x-x̄)(y-ȳ)=16.5, Σ(x-x̄)²=5
	if got := Slope([]float64{100, 102, 105, 110}); math.Abs(got-3.3) > 1e-9 {
		t.Errorf("expected slope 3.3, got %v", got)
	}
}

func TestClassifyThreshold(t *testing.T) {
	if Classify(1, 2.0, 2.0) != Hold {
		t.Error("expected exactly-threshold move to HOLD")
	}
	if Classify(1, 2.01, 2.0) != Buy {
		t.Error("expected BUY just above threshold")
	}
	if Classify(-1, -2.01, 2.0) != Sell {
		t.Error("expected SELL just below negative threshold")
	}
	if Classify(1, 0.5, 0) != Buy {
		t.Error("expected BUY with zero threshold")
	}
}

func TestReport(t *testing.T) {
	r, err := Evaluate("OGC", []float64{100, 95, 90}, DefaultThresholdPct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Stock: OGC\nStart Price: $100.00\nEnd Price: $90.00\nChange: -10.00%\nSlope: -5.0000\nRecommendation: SELL\n"
	if got := r.Report(); got != want {
		t.Errorf("unexpected report:\n%s\nwant:\n%s", got, want)
	}
	if got := r.SummaryLine(); got != "OGC Recommendation: SELL (-10.00%)" {
		t.Errorf("unexpected summary line %q", got)
	}
}

func TestReportChangeMatchesPct(t *testing.T) {
	r, err := Evaluate("IAU", []float64{3.17, 3.29, 3.41}, DefaultThresholdPct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var change string
	for _, line := range strings.Split(r.Report(), "\n") {
		if strings.HasPrefix(line, "Change: ") {
			change = line
		}
	}
	if want := fmt.Sprintf("Change: %.2f%%", r.PctChange); change != want {
		t.Errorf("expected %q, got %q", want, change)
	}
}
