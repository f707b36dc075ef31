package usecase

import (
	"context"

	"DepthView/internal/domain/models"
	drepo "DepthView/internal/domain/repository"
)

// Tickers serves the instrument picker overview. Caching lives in the
// History implementation, so this stays a thin pass-through.
type Tickers struct {
	history drepo.History
}

// NewTickers creates a new Tickers usecase.
func NewTickers(history drepo.History) *Tickers {
	return &Tickers{history: history}
}

// Overview returns the combined premium-index and 24h ticker rows.
func (u *Tickers) Overview(ctx context.Context) ([]models.TickerOverview, error) {
	return u.history.TickerOverview(ctx)
}
