package repository

import (
	"context"

	"DepthView/internal/domain/models"
)

// MarketStream is the live streaming side of the exchange: one connection per
// instrument, decoded into typed events at the boundary.
type MarketStream interface {
	Connect(ctx context.Context, symbol string) error
	Reconnect(ctx context.Context) error
	Events(ctx context.Context) (<-chan models.MarketEvent, <-chan error)
	Close() error
	IsConnected() bool
}

// History is the request/response side of the exchange, used for backfill
// seeding and periodic polls.
type History interface {
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.RawCandle, error)
	DepthSnapshot(ctx context.Context, symbol string, limit int) (*models.DepthSnapshot, error)
	AggTrades(ctx context.Context, symbol string, startTime, endTime int64, limit int) ([]models.Trade, error)
	OpenInterest(ctx context.Context, symbol string) (*models.OpenInterestPoint, error)
	OpenInterestHist(ctx context.Context, symbol, period string, limit int) ([]models.OpenInterestPoint, error)
	SymbolFilters(ctx context.Context, symbol string) (*models.SymbolFilters, error)
	TickerOverview(ctx context.Context) ([]models.TickerOverview, error)
}

type Metrics interface {
	RecordEvent(stream string)
	RecordError(kind string)
	RecordFrameSkip()
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
