package repository

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"SipPulse/internal/domain/models"
	"SipPulse/internal/domain/repository"
	applogger "SipPulse/pkg/logger"
)

// CSVReportWriter writes one ranked CSV per dimension into a directory,
// plus a sibling <dimension>_excluded.csv whenever groups fell below
// the sample floor.
type CSVReportWriter struct {
	dir string
	l   *applogger.Logger
}

func NewCSVReportWriter(dir string, l *applogger.Logger) repository.ReportWriter {
	return &CSVReportWriter{dir: dir, l: l}
}

var rankedHeader = []string{
	"group_key", "sample_count", "avg_drop", "panic_day_ratio",
	"avg_volatility", "composite_score", "rank",
	"drop_prob", "avg_drawdown", "sip_score",
}

func (w *CSVReportWriter) Write(report *models.AnalysisReport) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, r := range report.Reports {
		if err := w.writeRanked(r); err != nil {
			return err
		}
		if len(r.Excluded) > 0 {
			if err := w.writeExcluded(r); err != nil {
				return err
			}
		}
	}
	if w.l != nil {
		w.l.Info("reports written",
			applogger.String("dir", w.dir),
			applogger.String("symbol", report.Symbol),
			applogger.Int("dimensions", len(report.Reports)),
		)
	}
	return nil
}

func (w *CSVReportWriter) writeRanked(r models.RankedReport) error {
	path := filepath.Join(w.dir, r.Dimension+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(rankedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range r.Groups {
		rec := []string{
			g.Key.Label,
			strconv.Itoa(g.SampleCount),
			fmtFloat(g.AvgDrop),
			fmtFloat(g.PanicRatio),
			fmtFloat(g.AvgVolatility),
			fmtFloat(g.CompositeScore),
			strconv.Itoa(g.Rank),
			fmtFloat(g.DropProb),
			fmtFloat(g.AvgDrawdown),
			fmtFloat(g.AvgSipScore),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func (w *CSVReportWriter) writeExcluded(r models.RankedReport) error {
	path := filepath.Join(w.dir, r.Dimension+"_excluded.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"group_key", "sample_count", "reason"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range r.Excluded {
		rec := []string{e.Key.Label, strconv.Itoa(e.SampleCount), e.Reason}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
