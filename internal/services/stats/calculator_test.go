package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"SipPulse/internal/domain/models"
)

func barsFromCloses(closes []float64) []models.DailyBar {
	out := make([]models.DailyBar, len(closes))
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.DailyBar{
			Symbol: "SENSEX",
			Date:   day,
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestComputeDayStatsPctChange(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 97, 101, 99, 95})
	stats, err := ComputeDayStats(bars, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != len(bars) {
		t.Fatalf("expected %d stats, got %d", len(bars), len(stats))
	}
	if stats[0].HasReturn {
		t.Fatalf("first day must have no return")
	}
	want := []float64{0, -0.02, -1.0 / 98, 4.0 / 97, -2.0 / 101, -4.0 / 99}
	for i := 1; i < len(want); i++ {
		if !stats[i].HasReturn {
			t.Fatalf("return undefined at %d", i)
		}
		if !almostEqual(stats[i].PctChange, want[i]) {
			t.Fatalf("pct[%d] = %v, want %v", i, stats[i].PctChange, want[i])
		}
	}
}

func TestComputeDayStatsDrawdown(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 97, 101, 99, 95})
	stats, err := ComputeDayStats(bars, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(stats[5].Drawdown, (95.0-101.0)/101.0) {
		t.Fatalf("drawdown[5] = %v, want %v", stats[5].Drawdown, (95.0-101.0)/101.0)
	}
	for i := range stats {
		if stats[i].Drawdown > 0 {
			t.Fatalf("drawdown[%d] positive: %v", i, stats[i].Drawdown)
		}
	}
}

func TestDrawdownMonotoneOnDescendingRun(t *testing.T) {
	bars := barsFromCloses([]float64{120, 110, 105, 100, 90, 85})
	stats, err := ComputeDayStats(bars, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(stats); i++ {
		if stats[i].Drawdown > stats[i-1].Drawdown {
			t.Fatalf("drawdown increased at %d: %v -> %v", i, stats[i-1].Drawdown, stats[i].Drawdown)
		}
	}
}

func TestVolatilityWindowWarmup(t *testing.T) {
	bars := barsFromCloses([]float64{100, 102, 99, 101, 103})
	window := 2
	stats, err := ComputeDayStats(bars, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats[1].HasVol {
		t.Fatalf("volatility should be undefined before window fills")
	}
	if !stats[2].HasVol {
		t.Fatalf("volatility should be defined once window fills")
	}
	// sample stddev of two returns is |r2-r1|/sqrt(2)
	r1 := stats[1].PctChange
	r2 := stats[2].PctChange
	want := math.Abs(r2-r1) / math.Sqrt2
	if !almostEqual(stats[2].Volatility, want) {
		t.Fatalf("vol[2] = %v, want %v", stats[2].Volatility, want)
	}
}

func TestComputeDayStatsTooShort(t *testing.T) {
	_, err := ComputeDayStats(barsFromCloses([]float64{100}), 20)
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestComputeDayStatsGap(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98})
	bars[1].Open = 99 // opens below prior close
	stats, err := ComputeDayStats(bars, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stats[1].HasGap {
		t.Fatalf("gap undefined at index 1")
	}
	if !almostEqual(stats[1].Gap, -0.01) {
		t.Fatalf("gap = %v, want -0.01", stats[1].Gap)
	}
	if !stats[1].GapDown {
		t.Fatalf("expected gap-down flag")
	}
}
