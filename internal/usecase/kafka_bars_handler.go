package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
	pkgkafka "SipPulse/pkg/kafka"
	"SipPulse/pkg/util"
)

// KafkaBarsHandler consumes bar messages and writes them to storage.
type KafkaBarsHandler struct {
	topic   string
	storage domrepo.BarStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, storage domrepo.BarStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, d, o, h, l, c}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		D      string  `json:"d"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	day, ok := util.ParseDate(m.D)
	if !ok {
		h.metrics.RecordError("consumer_bad_date")
		return fmt.Errorf("bad bar date %q", m.D)
	}

	start := time.Now()
	err := h.storage.Store(ctx, &models.DailyBar{
		Symbol: m.Symbol,
		Date:   day,
		Open:   m.O,
		High:   m.H,
		Low:    m.L,
		Close:  m.C,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarStored("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
