package calendar

import (
	"math"
	"testing"
	"time"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
	"SipPulse/internal/services/stats"
)

// three full trading weeks, Mon-Fri
func weeksOfBars(weeks int) []models.DailyBar {
	var out []models.DailyBar
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	close := 100.0
	for w := 0; w < weeks; w++ {
		for d := 0; d < 5; d++ {
			// Mondays fall, other days recover a little
			if day.Weekday() == time.Monday {
				close *= 0.97
			} else {
				close *= 1.005
			}
			out = append(out, models.DailyBar{
				Symbol: "SENSEX", Date: day,
				Open: close, High: close * 1.01, Low: close * 0.99, Close: close,
			})
			day = day.AddDate(0, 0, 1)
		}
		day = day.AddDate(0, 0, 2) // skip weekend
	}
	return out
}

func TestAggregateWeekday(t *testing.T) {
	bars := weeksOfBars(6)
	ds, err := stats.ComputeDayStats(bars, 5)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	stats.Classify(ds, 0.02, 1.0)

	groups, excluded, err := Aggregate(bars, ds, domrepo.DimWeekday, 3)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(excluded) != 0 {
		t.Fatalf("unexpected exclusions: %v", excluded)
	}
	if len(groups) != 5 {
		t.Fatalf("expected 5 weekday groups, got %d", len(groups))
	}

	var monday *models.GroupStats
	for i := range groups {
		if groups[i].Key.Ord == int(time.Monday) {
			monday = &groups[i]
		}
	}
	if monday == nil {
		t.Fatalf("no Monday group")
	}
	if monday.AvgDrop >= 0 {
		t.Fatalf("Mondays should average negative, got %v", monday.AvgDrop)
	}
	// every Monday after the first drops 3% and is a panic day
	if monday.PanicRatio < 0.5 {
		t.Fatalf("Monday panic ratio too low: %v", monday.PanicRatio)
	}
	for i := range groups {
		if groups[i].Key.Ord != int(time.Monday) && groups[i].AvgDrop < monday.AvgDrop {
			t.Fatalf("weekday %d averages below Monday", groups[i].Key.Ord)
		}
	}
}

func TestAggregateMinSamplesExcluded(t *testing.T) {
	bars := weeksOfBars(1) // 5 days: each ISO-week group is tiny
	ds, err := stats.ComputeDayStats(bars, 2)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	stats.Classify(ds, 0.02, 1.0)

	groups, excluded, err := Aggregate(bars, ds, domrepo.DimWeekday, 2)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected every 1-sample weekday group excluded, got %d ranked", len(groups))
	}
	if len(excluded) != 5 {
		t.Fatalf("expected 5 excluded groups, got %d", len(excluded))
	}
	for _, e := range excluded {
		if e.Reason == "" {
			t.Fatalf("exclusion without reason: %+v", e)
		}
	}
}

func TestAggregateFirstDayIgnoredInAverages(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.DailyBar{
		{Symbol: "S", Date: day, Open: 100, High: 100, Low: 100, Close: 100},
		{Symbol: "S", Date: day.AddDate(0, 0, 7), Open: 98, High: 98, Low: 98, Close: 98},
		{Symbol: "S", Date: day.AddDate(0, 0, 14), Open: 96, High: 96, Low: 96, Close: 96},
	}
	ds, err := stats.ComputeDayStats(bars, 20)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	stats.Classify(ds, 0.02, 1.0)

	groups, _, err := Aggregate(bars, ds, domrepo.DimWeekday, 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected one Monday group, got %d", len(groups))
	}
	g := groups[0]
	if g.SampleCount != 3 {
		t.Fatalf("sample count = %d, want 3", g.SampleCount)
	}
	want := (ds[1].PctChange + ds[2].PctChange) / 2 // first day excluded
	if math.Abs(g.AvgDrop-want) > 1e-9 {
		t.Fatalf("avg drop = %v, want %v", g.AvgDrop, want)
	}
}

func TestWeekOfMonth(t *testing.T) {
	cases := map[int]int{1: 1, 7: 1, 8: 2, 14: 2, 15: 3, 28: 4, 29: 5, 31: 5}
	for day, want := range cases {
		d := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
		if got := WeekOfMonth(d); got != want {
			t.Fatalf("week of month for day %d = %d, want %d", day, got, want)
		}
	}
}

func TestKeyForISOWeekKeepsYear(t *testing.T) {
	a, err := KeyFor(domrepo.DimISOWeek, time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	b, err := KeyFor(domrepo.DimISOWeek, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if a == b {
		t.Fatalf("same ISO week of different years must not collide: %v", a)
	}
}
