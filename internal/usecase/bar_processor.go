package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SipPulse/internal/domain/models"
	drepo "SipPulse/internal/domain/repository"
	"SipPulse/pkg/util"
)

// BarProcessor folds live quotes into one daily bar per symbol and
// routes each completed bar to the configured backend. A bar completes
// when the first quote of the next UTC day arrives, or on Flush.
type BarProcessor struct {
	pub     drepo.Publisher
	store   drepo.BarStore
	metrics drepo.Metrics
	backend string

	mu   sync.Mutex
	open map[string]*models.DailyBar
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	pub drepo.Publisher,
	store drepo.BarStore,
	metrics drepo.Metrics,
	backend string,
) *BarProcessor {
	return &BarProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		open:    make(map[string]*models.DailyBar),
	}
}

// Process folds one quote. It emits at most one completed bar (the
// previous day's) per call.
func (p *BarProcessor) Process(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}
	day := util.Day(time.Unix(q.Timestamp, 0))

	p.mu.Lock()
	cur := p.open[q.Symbol]
	var completed *models.DailyBar
	switch {
	case cur == nil:
		p.open[q.Symbol] = newBar(q.Symbol, day, q.Price)
	case cur.Date.Equal(day):
		fold(cur, q.Price)
	case day.After(cur.Date):
		completed = cur
		p.open[q.Symbol] = newBar(q.Symbol, day, q.Price)
	default:
		// late quote for an already-emitted day; drop it
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.RecordError("late_quote")
		}
		return nil
	}
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.RecordLastClose(q.Symbol, q.Price)
	}
	if completed == nil {
		return nil
	}
	return p.emit(ctx, completed)
}

// ProcessBar routes an already-formed bar, bypassing folding. Used by
// batch backfills.
func (p *BarProcessor) ProcessBar(ctx context.Context, b *models.DailyBar) error {
	if b == nil {
		return fmt.Errorf("bar is nil")
	}
	return p.emit(ctx, b)
}

// ProcessBarBatch routes a batch of bars.
func (p *BarProcessor) ProcessBarBatch(ctx context.Context, bars []*models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, bars)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, bars)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, b := range bars {
		p.metrics.RecordBarStored(p.backend, b.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Flush emits every open bar. Called on shutdown so the current day is
// not lost.
func (p *BarProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := make([]*models.DailyBar, 0, len(p.open))
	for _, b := range p.open {
		pending = append(pending, b)
	}
	p.open = make(map[string]*models.DailyBar)
	p.mu.Unlock()

	return p.ProcessBarBatch(ctx, pending)
}

func (p *BarProcessor) emit(ctx context.Context, b *models.DailyBar) error {
	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, b)
	case "clickhouse":
		err = p.store.Store(ctx, b)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process bar: %w", err)
	}

	p.metrics.RecordBarStored(p.backend, b.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// Close flushes open bars and closes underlying resources if available.
func (p *BarProcessor) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Flush(ctx)
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

func newBar(symbol string, day time.Time, price float64) *models.DailyBar {
	return &models.DailyBar{
		Symbol: symbol, Date: day,
		Open: price, High: price, Low: price, Close: price,
	}
}

func fold(b *models.DailyBar, price float64) {
	if price > b.High {
		b.High = price
	}
	if price < b.Low {
		b.Low = price
	}
	b.Close = price
}
