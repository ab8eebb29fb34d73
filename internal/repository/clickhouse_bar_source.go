package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SipPulse/internal/domain/models"
	"SipPulse/internal/domain/repository"
	pkgch "SipPulse/pkg/clickhouse"
	applogger "SipPulse/pkg/logger"
)

const barsTable = "sippulse.daily_bars"

// ClickHouseBarSource adapts the warehouse into a BarSource so the
// analysis pipeline can run over ingested history instead of a CSV
// export. Stored bars were validated on ingest, so Load never reports
// row issues.
type ClickHouseBarSource struct {
	db     *sql.DB
	l      *applogger.Logger
	symbol string
	from   time.Time
	to     time.Time
}

func NewClickHouseBarSource(ch *pkgch.Client, symbol string, from, to time.Time) *ClickHouseBarSource {
	return &ClickHouseBarSource{db: ch.DB(), symbol: symbol, from: from, to: to}
}

// SetLogger injects a structured logger.
func (s *ClickHouseBarSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseBarSource) Load(ctx context.Context) ([]models.DailyBar, []models.RowIssue, error) {
	start := time.Now()
	const q = `
        SELECT symbol, day, open, high, low, close
        FROM ` + barsTable + ` FINAL
        WHERE symbol = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, q, s.symbol, s.from, s.to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_bars query error",
				applogger.String("symbol", s.symbol),
				applogger.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyBar, 0, 1024)
	for rows.Next() {
		var b models.DailyBar
		var day time.Time
		if err := rows.Scan(&b.Symbol, &day, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse load_bars scan error",
					applogger.String("symbol", s.symbol),
					applogger.Error(err),
				)
			}
			return nil, nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = day.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_bars rows error",
				applogger.String("symbol", s.symbol),
				applogger.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load_bars ok",
			applogger.String("symbol", s.symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil, nil
}

// verify interface
var _ repository.BarSource = (*ClickHouseBarSource)(nil)
