package repository

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"SipPulse/internal/domain/models"
)

func TestCSVReportWriter(t *testing.T) {
	dir := t.TempDir()
	report := &models.AnalysisReport{
		Symbol: "SENSEX",
		Reports: []models.RankedReport{
			{
				Dimension: "weekday",
				Groups: []models.GroupStats{
					{
						Key:            models.GroupKey{Ord: 1, Label: "Monday"},
						SampleCount:    42,
						AvgDrop:        -0.012,
						PanicRatio:     0.25,
						AvgVolatility:  0.011,
						CompositeScore: 0.0737,
						Rank:           1,
						DropProb:       0.6,
						AvgDrawdown:    -0.05,
						AvgSipScore:    1.4,
					},
				},
				Excluded: []models.ExcludedGroup{
					{Key: models.GroupKey{Ord: 6, Label: "Saturday"}, SampleCount: 2, Reason: "only 2 samples, need 5"},
				},
			},
		},
	}

	w := NewCSVReportWriter(dir, nil)
	if err := w.Write(report); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "weekday.csv"))
	if err != nil {
		t.Fatalf("open ranked: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read ranked: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header+1", len(rows))
	}
	if rows[0][0] != "group_key" || rows[0][6] != "rank" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Monday" || rows[1][1] != "42" || rows[1][6] != "1" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
	if rows[1][2] != "-0.012" {
		t.Fatalf("avg_drop = %q", rows[1][2])
	}

	ef, err := os.Open(filepath.Join(dir, "weekday_excluded.csv"))
	if err != nil {
		t.Fatalf("open excluded: %v", err)
	}
	defer ef.Close()
	erows, err := csv.NewReader(ef).ReadAll()
	if err != nil {
		t.Fatalf("read excluded: %v", err)
	}
	if len(erows) != 2 || erows[1][0] != "Saturday" || erows[1][2] != "only 2 samples, need 5" {
		t.Fatalf("unexpected excluded rows: %v", erows)
	}
}

func TestCSVReportWriterNoExcludedFile(t *testing.T) {
	dir := t.TempDir()
	report := &models.AnalysisReport{
		Symbol:  "S",
		Reports: []models.RankedReport{{Dimension: "month"}},
	}
	if err := NewCSVReportWriter(dir, nil).Write(report); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "month_excluded.csv")); !os.IsNotExist(err) {
		t.Fatalf("excluded file should not exist when nothing was excluded")
	}
}
