package usecase

import (
	"context"
	"time"

	domrepo "SipPulse/internal/domain/repository"
	pkgcache "SipPulse/pkg/cache"
	applogger "SipPulse/pkg/logger"
	"SipPulse/pkg/queue"
	"SipPulse/pkg/util"
)

// AnalyzeJobType is the queue message type for background analysis runs.
const AnalyzeJobType = "analyze"

// AnalyzePayload is the queued request: recompute the report for a
// symbol and range and optionally export it as CSV.
type AnalyzePayload struct {
	Symbol string `json:"symbol"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	OutDir string `json:"out_dir,omitempty"`
}

// AnalyzeJob runs queued analysis requests. Results land in the report
// cache; an OutDir additionally writes the CSV files.
type AnalyzeJob struct {
	rankings *RankingsUseCase
	writerFn func(dir string) domrepo.ReportWriter
	locks    pkgcache.Service
	l        *applogger.Logger
}

func NewAnalyzeJob(rankings *RankingsUseCase, writerFn func(dir string) domrepo.ReportWriter, locks pkgcache.Service, l *applogger.Logger) *AnalyzeJob {
	return &AnalyzeJob{rankings: rankings, writerFn: writerFn, locks: locks, l: l}
}

func (j *AnalyzeJob) Name() string { return "analysis.analyze" }
func (j *AnalyzeJob) Type() string { return AnalyzeJobType }

func (j *AnalyzeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AnalyzePayload](payload)
	if err != nil {
		return err
	}

	to := util.ParseDateDefault(p.To, util.Day(time.Now()))
	from := util.ParseDateDefault(p.From, to.AddDate(-10, 0, 0))

	// Identical requests queued back to back would recompute the same
	// report; hold an advisory lock on the range while one run is active.
	if j.locks != nil {
		key := pkgcache.GenerateKeyWithParams("analyze", p.Symbol,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
		if ok, lockErr := j.locks.TryLock(ctx, key, 10*time.Minute); lockErr == nil {
			if !ok {
				if j.l != nil {
					j.l.Info("duplicate analyze skipped", applogger.String("symbol", p.Symbol))
				}
				return nil
			}
			defer func() { _ = j.locks.Unlock(context.Background(), key) }()
		}
	}

	report, err := j.rankings.GetReport(ctx, p.Symbol, from, to)
	if err != nil {
		if j.l != nil {
			j.l.Error("queued analysis failed",
				applogger.String("symbol", p.Symbol),
				applogger.Error(err),
			)
		}
		return err
	}
	if p.OutDir != "" && j.writerFn != nil {
		if err := j.writerFn(p.OutDir).Write(report); err != nil {
			return err
		}
	}
	if j.l != nil {
		j.l.Info("queued analysis done",
			applogger.String("symbol", p.Symbol),
			applogger.Int("bars", report.BarCount),
			applogger.Int("panic_days", report.PanicDays),
		)
	}
	return nil
}

var _ queue.Job = (*AnalyzeJob)(nil)
