package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
	"SipPulse/internal/services/calendar"
	"SipPulse/internal/services/rank"
	"SipPulse/internal/services/stats"
	applogger "SipPulse/pkg/logger"
)

// AnalysisUseCase runs the full pipeline over one bar series: derived
// stats, panic classification, then one aggregation+ranking per
// calendar dimension.
type AnalysisUseCase struct {
	params  models.AnalysisParams
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewAnalysisUseCase(params models.AnalysisParams, metrics domrepo.Metrics, l *applogger.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{params: params, metrics: metrics, l: l}
}

// Params returns the configured analysis parameters.
func (uc *AnalysisUseCase) Params() models.AnalysisParams { return uc.params }

// Run executes the pipeline. Dimensions are independent once the
// per-day stats exist, so they aggregate concurrently; the derived
// stats themselves are sequential (each day's volatility and drawdown
// depend on prior days).
func (uc *AnalysisUseCase) Run(ctx context.Context, source domrepo.BarSource) (*models.AnalysisReport, error) {
	if err := uc.params.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	bars, issues, err := source.Load(ctx)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("load")
		}
		return nil, err
	}
	report, err := uc.Analyze(ctx, bars)
	if err != nil {
		return nil, err
	}
	for _, is := range issues {
		report.Warnings = append(report.Warnings, fmt.Sprintf("row %d skipped: %s", is.Row, is.Reason))
	}

	if uc.metrics != nil {
		uc.metrics.RecordLatency("analysis", time.Since(start).Seconds())
	}
	if uc.l != nil {
		uc.l.Info("analysis complete",
			applogger.String("symbol", report.Symbol),
			applogger.Int("bars", report.BarCount),
			applogger.Int("panic_days", report.PanicDays),
			applogger.Int("skipped_rows", len(issues)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return report, nil
}

// Analyze runs the pipeline over an already-loaded series.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, bars []models.DailyBar) (*models.AnalysisReport, error) {
	if err := uc.params.Validate(); err != nil {
		return nil, err
	}

	ds, err := stats.ComputeDayStats(bars, uc.params.VolatilityWindow)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("compute")
		}
		return nil, err
	}
	stats.Classify(ds, uc.params.DropThreshold, uc.params.VolatilityThreshold)
	panicDays := stats.CountPanicDays(ds)

	report := &models.AnalysisReport{
		Symbol:      bars[0].Symbol,
		From:        bars[0].Day(),
		To:          bars[len(bars)-1].Day(),
		BarCount:    len(bars),
		PanicDays:   panicDays,
		Params:      uc.params,
		GeneratedAt: time.Now().UTC(),
	}
	if uc.metrics != nil {
		uc.metrics.RecordPanicDays(report.Symbol, panicDays)
	}

	type item struct {
		dim domrepo.Dimension
		rep models.RankedReport
		err error
	}
	dims := domrepo.AllDimensions()
	ch := make(chan item, len(dims))
	var wg sync.WaitGroup

	for _, dim := range dims {
		wg.Add(1)
		go func(dim domrepo.Dimension) {
			defer wg.Done()
			rep, err := uc.runDimension(bars, ds, dim)
			ch <- item{dim, rep, err}
		}(dim)
	}
	go func() { wg.Wait(); close(ch) }()

	byDim := make(map[domrepo.Dimension]models.RankedReport, len(dims))
	for it := range ch {
		if it.err != nil {
			if uc.metrics != nil {
				uc.metrics.RecordError("aggregate")
			}
			return nil, fmt.Errorf("dimension %s: %w", it.dim, it.err)
		}
		byDim[it.dim] = it.rep
	}
	// deterministic report order regardless of goroutine completion
	for _, dim := range dims {
		report.Reports = append(report.Reports, byDim[dim])
	}
	return report, nil
}

func (uc *AnalysisUseCase) runDimension(bars []models.DailyBar, ds []models.DayStats, dim domrepo.Dimension) (models.RankedReport, error) {
	groups, excluded, err := calendar.Aggregate(bars, ds, dim, uc.params.MinSamplesPerGroup)
	if err != nil {
		return models.RankedReport{}, err
	}
	ranked, err := rank.Rank(groups, uc.params.Weights)
	if err != nil {
		return models.RankedReport{}, err
	}
	return models.RankedReport{
		Dimension: string(dim),
		Groups:    ranked,
		Excluded:  excluded,
	}, nil
}
