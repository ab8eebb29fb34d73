package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SipPulse/internal/domain/models"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

const goodCSV = `Date,Open,High,Low,Close
2021-03-01,100,101,99,100.5
2021-03-02,100.5,102,100,101.2
2021-03-03,101.2,101.5,98,98.4
`

func TestCSVBarSourceLoad(t *testing.T) {
	src := NewCSVBarSource(writeCSV(t, goodCSV), "SENSEX", true)
	bars, issues, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	b := bars[0]
	if b.Symbol != "SENSEX" || b.Open != 100 || b.High != 101 || b.Low != 99 || b.Close != 100.5 {
		t.Fatalf("unexpected first bar: %+v", b)
	}
	want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if !b.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", b.Date, want)
	}
}

func TestCSVBarSourceColumnOrder(t *testing.T) {
	csv := `Close,Low,High,Open,Date
100.5,99,101,100,2021-03-01
`
	src := NewCSVBarSource(writeCSV(t, csv), "S", true)
	bars, _, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bars[0].Open != 100 || bars[0].Close != 100.5 {
		t.Fatalf("column mapping broken: %+v", bars[0])
	}
}

func TestCSVBarSourceStrictAborts(t *testing.T) {
	csv := `Date,Open,High,Low,Close
2021-03-01,100,101,99,100.5
2021-03-02,not-a-number,102,100,101.2
`
	src := NewCSVBarSource(writeCSV(t, csv), "S", true)
	_, _, err := src.Load(context.Background())
	var rowErr *models.MalformedRowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
	if rowErr.Row != 2 {
		t.Fatalf("row = %d, want 2", rowErr.Row)
	}
}

func TestCSVBarSourceLenientSkips(t *testing.T) {
	csv := `Date,Open,High,Low,Close
2021-03-01,100,101,99,100.5
bad-date,100,101,99,100.5
2021-03-02,100,101,99,-5
2021-03-03,100.5,102,100,101.2
`
	src := NewCSVBarSource(writeCSV(t, csv), "S", false)
	bars, issues, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(issues), issues)
	}
	if issues[0].Row != 2 || issues[1].Row != 3 {
		t.Fatalf("unexpected issue rows: %v", issues)
	}
}

func TestCSVBarSourceRejectsDuplicateAndBackwardDates(t *testing.T) {
	csv := `Date,Open,High,Low,Close
2021-03-02,100,101,99,100.5
2021-03-02,100,101,99,100.7
2021-03-01,100,101,99,100.2
`
	src := NewCSVBarSource(writeCSV(t, csv), "S", false)
	bars, issues, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(issues), issues)
	}
}

func TestCSVBarSourceMissingHeader(t *testing.T) {
	csv := `Date,Open,High,Close
2021-03-01,100,101,100.5
`
	src := NewCSVBarSource(writeCSV(t, csv), "S", true)
	_, _, err := src.Load(context.Background())
	if err == nil {
		t.Fatalf("expected header error")
	}
}
