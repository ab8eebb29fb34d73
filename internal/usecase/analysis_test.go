package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"SipPulse/internal/domain/models"
)

type sliceSource struct {
	bars   []models.DailyBar
	issues []models.RowIssue
	err    error
}

func (s *sliceSource) Load(context.Context) ([]models.DailyBar, []models.RowIssue, error) {
	return s.bars, s.issues, s.err
}

func yearOfBars(t *testing.T) []models.DailyBar {
	t.Helper()
	var bars []models.DailyBar
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC) // a Monday
	close := 60000.0
	i := 0
	for len(bars) < 250 {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			// deterministic zig-zag with periodic deep drops
			switch {
			case i%23 == 0:
				close *= 0.97
			case i%2 == 0:
				close *= 1.004
			default:
				close *= 0.998
			}
			bars = append(bars, models.DailyBar{
				Symbol: "SENSEX", Date: day,
				Open: close * 0.999, High: close * 1.008, Low: close * 0.991, Close: close,
			})
			i++
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func testParams() models.AnalysisParams {
	p := models.DefaultAnalysisParams()
	p.MinSamplesPerGroup = 2
	return p
}

func TestAnalysisRunProducesAllDimensions(t *testing.T) {
	uc := NewAnalysisUseCase(testParams(), nil, nil)
	report, err := uc.Run(context.Background(), &sliceSource{bars: yearOfBars(t)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	wantDims := []string{"weekday", "day", "week", "month", "weekofmonth"}
	if len(report.Reports) != len(wantDims) {
		t.Fatalf("got %d dimension reports, want %d", len(report.Reports), len(wantDims))
	}
	for i, dim := range wantDims {
		if report.Reports[i].Dimension != dim {
			t.Fatalf("report %d = %q, want %q", i, report.Reports[i].Dimension, dim)
		}
	}
	if report.BarCount != 250 || report.Symbol != "SENSEX" {
		t.Fatalf("unexpected header: %+v", report)
	}
	if report.PanicDays == 0 {
		t.Fatalf("expected some panic days")
	}
	weekday := report.Report("weekday")
	if weekday == nil || len(weekday.Groups) != 5 {
		t.Fatalf("weekday report incomplete: %+v", weekday)
	}
	for i, g := range weekday.Groups {
		if g.Rank != i+1 {
			t.Fatalf("weekday rank at %d = %d", i, g.Rank)
		}
	}
}

func TestAnalysisDeterministic(t *testing.T) {
	bars := yearOfBars(t)
	uc := NewAnalysisUseCase(testParams(), nil, nil)
	a, err := uc.Analyze(context.Background(), bars)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := uc.Analyze(context.Background(), bars)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	a.GeneratedAt, b.GeneratedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input produced different reports")
	}
}

func TestAnalysisIssuesBecomeWarnings(t *testing.T) {
	src := &sliceSource{
		bars:   yearOfBars(t),
		issues: []models.RowIssue{{Row: 7, Reason: "unparseable date"}},
	}
	uc := NewAnalysisUseCase(testParams(), nil, nil)
	report, err := uc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("warnings = %v", report.Warnings)
	}
}

func TestAnalysisInsufficientData(t *testing.T) {
	uc := NewAnalysisUseCase(testParams(), nil, nil)
	_, err := uc.Run(context.Background(), &sliceSource{bars: yearOfBars(t)[:1]})
	var insErr *models.InsufficientDataError
	if !errors.As(err, &insErr) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestAnalysisRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.Weights.Drop = 0.9
	uc := NewAnalysisUseCase(p, nil, nil)
	_, err := uc.Run(context.Background(), &sliceSource{bars: yearOfBars(t)})
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestAnalysisMinSamplesNeverRanked(t *testing.T) {
	p := testParams()
	p.MinSamplesPerGroup = 30
	uc := NewAnalysisUseCase(p, nil, nil)
	report, err := uc.Analyze(context.Background(), yearOfBars(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	months := report.Report("month")
	if months == nil {
		t.Fatalf("no month report")
	}
	for _, g := range months.Groups {
		if g.SampleCount < 30 {
			t.Fatalf("under-sampled group ranked: %+v", g)
		}
	}
	if len(months.Excluded) == 0 {
		t.Fatalf("expected excluded month groups with floor 30")
	}
	for _, e := range months.Excluded {
		for _, g := range months.Groups {
			if g.Key == e.Key {
				t.Fatalf("group %v both ranked and excluded", g.Key)
			}
		}
	}
}
