package repository

import (
	"context"
	"time"

	"SipPulse/internal/domain/models"
)

// QuoteStream is a live price feed for index symbols.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher sends completed daily bars to a message backend.
type Publisher interface {
	Publish(ctx context.Context, b *models.DailyBar) error
	PublishBatch(ctx context.Context, bars []*models.DailyBar) error
	Close() error
}

// BarStore persists and queries daily bars.
type BarStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, b *models.DailyBar) error
	StoreBatch(ctx context.Context, bars []*models.DailyBar) error
	Bars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DailyBar, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// BarSource supplies an ordered daily series to the analysis pipeline,
// plus the per-row issues encountered while loading it (lenient mode).
type BarSource interface {
	Load(ctx context.Context) ([]models.DailyBar, []models.RowIssue, error)
}

// ReportWriter exports a finished analysis run.
type ReportWriter interface {
	Write(report *models.AnalysisReport) error
}

// Metrics records pipeline and ingest observability signals.
type Metrics interface {
	RecordBarStored(backend, symbol string)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordPanicDays(symbol string, n int)
}
