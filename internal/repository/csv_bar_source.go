package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"SipPulse/internal/domain/models"
	"SipPulse/internal/domain/repository"
	xhttp "SipPulse/pkg/http"
	applogger "SipPulse/pkg/logger"
	"SipPulse/pkg/util"
)

// CSVBarSource loads daily bars from a CSV file or an http(s) URL.
// In strict mode the first bad row aborts the load with a
// MalformedRowError; otherwise bad rows are skipped and reported as
// RowIssues so a run over a long vendor export still completes.
type CSVBarSource struct {
	location string
	symbol   string
	strict   bool
	client   *xhttp.Client
	l        *applogger.Logger
}

// BarSourceOption configures CSVBarSource.
type BarSourceOption func(*CSVBarSource)

// WithHTTPClient overrides the client used for URL locations.
func WithHTTPClient(c *xhttp.Client) BarSourceOption {
	return func(s *CSVBarSource) { s.client = c }
}

// WithSourceLogger injects a structured logger.
func WithSourceLogger(l *applogger.Logger) BarSourceOption {
	return func(s *CSVBarSource) { s.l = l }
}

// NewCSVBarSource creates a CSV bar source for a file path or URL.
func NewCSVBarSource(location, symbol string, strict bool, opts ...BarSourceOption) repository.BarSource {
	s := &CSVBarSource{
		location: location,
		symbol:   symbol,
		strict:   strict,
		client:   xhttp.NewClient(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CSVBarSource) Load(ctx context.Context) ([]models.DailyBar, []models.RowIssue, error) {
	r, closeFn, err := s.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()

	bars, issues, err := s.parse(r)
	if err != nil {
		return nil, nil, err
	}
	if s.l != nil {
		s.l.Info("csv bars loaded",
			applogger.String("location", s.location),
			applogger.String("symbol", s.symbol),
			applogger.Int("rows", len(bars)),
			applogger.Int("skipped", len(issues)),
		)
	}
	return bars, issues, nil
}

func (s *CSVBarSource) open(ctx context.Context) (io.Reader, func(), error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		var buf bytes.Buffer
		err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    s.location,
		}, &buf)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch csv: %w", err)
		}
		return &buf, func() {}, nil
	}
	f, err := os.Open(s.location)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// column indexes resolved from the header row
type csvLayout struct {
	date, open, high, low, close int
}

func resolveLayout(header []string) (csvLayout, error) {
	lay := csvLayout{date: -1, open: -1, high: -1, low: -1, close: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "day":
			lay.date = i
		case "open":
			lay.open = i
		case "high":
			lay.high = i
		case "low":
			lay.low = i
		case "close", "adj close", "price":
			if lay.close == -1 {
				lay.close = i
			}
		}
	}
	if lay.date == -1 || lay.open == -1 || lay.high == -1 || lay.low == -1 || lay.close == -1 {
		return lay, fmt.Errorf("csv header missing required columns (need date, open, high, low, close): %v", header)
	}
	return lay, nil
}

func (s *CSVBarSource) parse(r io.Reader) ([]models.DailyBar, []models.RowIssue, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	lay, err := resolveLayout(header)
	if err != nil {
		return nil, nil, err
	}

	var bars []models.DailyBar
	var issues []models.RowIssue
	rowNum := 0 // 1-based over data rows, header excluded
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			if s.strict {
				return nil, nil, &models.MalformedRowError{Row: rowNum, Cause: err}
			}
			issues = append(issues, models.RowIssue{Row: rowNum, Reason: err.Error()})
			continue
		}

		bar, reason := s.parseRow(rec, lay)
		if reason == "" && len(bars) > 0 {
			prev := bars[len(bars)-1]
			if !bar.Date.After(prev.Date) {
				if bar.Date.Equal(prev.Date) {
					reason = "duplicate date " + bar.Date.Format("2006-01-02")
				} else {
					reason = "out-of-order date " + bar.Date.Format("2006-01-02")
				}
			}
		}
		if reason != "" {
			if s.strict {
				return nil, nil, &models.MalformedRowError{Row: rowNum, Cause: fmt.Errorf("%s", reason)}
			}
			issues = append(issues, models.RowIssue{Row: rowNum, Reason: reason})
			continue
		}
		bars = append(bars, bar)
	}
	return bars, issues, nil
}

// parseRow converts a record into a bar, returning a non-empty reason
// when the row is unusable.
func (s *CSVBarSource) parseRow(rec []string, lay csvLayout) (models.DailyBar, string) {
	need := lay.date
	for _, i := range []int{lay.open, lay.high, lay.low, lay.close} {
		if i > need {
			need = i
		}
	}
	if len(rec) <= need {
		return models.DailyBar{}, fmt.Sprintf("short row: %d fields", len(rec))
	}

	date, ok := util.ParseDate(rec[lay.date])
	if !ok {
		return models.DailyBar{}, "unparseable date " + strconv.Quote(rec[lay.date])
	}
	fields := [4]float64{}
	for i, idx := range []int{lay.open, lay.high, lay.low, lay.close} {
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(rec[idx]), ",", ""), 64)
		if err != nil {
			return models.DailyBar{}, "unparseable number " + strconv.Quote(rec[idx])
		}
		if v <= 0 {
			return models.DailyBar{}, fmt.Sprintf("non-positive price %v", v)
		}
		fields[i] = v
	}
	bar := models.DailyBar{
		Symbol: s.symbol,
		Date:   date,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
	}
	if bar.High < bar.Low {
		return models.DailyBar{}, fmt.Sprintf("high %v below low %v", bar.High, bar.Low)
	}
	return bar, ""
}
