package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SipPulse/internal/domain/models"
	"SipPulse/internal/domain/repository"
	pkgkafka "SipPulse/pkg/kafka"
)

// ClickHouseBarStore implements BarStore for ClickHouse.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarStore creates ClickHouse bar storage.
func NewClickHouseBarStore(db *sql.DB, table string) repository.BarStore {
	return &ClickHouseBarStore{db: db, table: table}
}

func (s *ClickHouseBarStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseBarStore) Store(ctx context.Context, b *models.DailyBar) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, day, open, high, low, close) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, b.Symbol, b.Day(), b.Open, b.High, b.Low, b.Close)
	return err
}

func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, bars []*models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, b.Symbol, b.Day(), b.Open, b.High, b.Low, b.Close)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, day, open, high, low, close) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// Bars returns the stored bars for symbol in [from, to], oldest first.
// The analysis pipeline depends on the ascending order.
func (s *ClickHouseBarStore) Bars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DailyBar, error) {
	q := fmt.Sprintf("SELECT symbol, day, open, high, low, close FROM %s FINAL WHERE symbol = ? AND day >= ? AND day <= ? ORDER BY day ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.DailyBar
	for rows.Next() {
		var b models.DailyBar
		var day time.Time
		if err := rows.Scan(&b.Symbol, &day, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, err
		}
		b.Date = day.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return nil // Managed by pkg
}

// KafkaBarPublisher implements Publisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates Kafka bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func barPayload(b *models.DailyBar) map[string]interface{} {
	return map[string]interface{}{
		"symbol": b.Symbol,
		"d":      b.Day().Format("2006-01-02"),
		"o":      b.Open,
		"h":      b.High,
		"l":      b.Low,
		"c":      b.Close,
	}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, b *models.DailyBar) error {
	return p.producer.Publish(ctx, p.topic, []byte(b.Symbol), barPayload(b))
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, bars []*models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(b.Symbol),
			Value: barPayload(b),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
