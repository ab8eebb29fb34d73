package usecase

import (
	"context"
	"fmt"
	"time"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
)

// BarsUseCase provides business logic for retrieving stored bars.
type BarsUseCase struct {
	store domrepo.BarStore
}

func NewBarsUseCase(store domrepo.BarStore) *BarsUseCase {
	return &BarsUseCase{store: store}
}

type GetBarsParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetBarsResult struct {
	Symbol string
	From   time.Time
	To     time.Time
	Count  int
	Bars   []models.DailyBar
}

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 5000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	bars, err := uc.store.Bars(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}

	return &GetBarsResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(bars),
		Bars:   bars,
	}, nil
}
