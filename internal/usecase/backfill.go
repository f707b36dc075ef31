package usecase

import (
	"context"
	"fmt"

	drepo "DepthView/internal/domain/repository"
	"DepthView/internal/market"
	"DepthView/pkg/config"
	"DepthView/pkg/logger"
)

// Backfill seeds the market state for a symbol from the REST API: exchange
// filters, recent candles, a book snapshot and the historical open interest
// series. Historical trades are paged separately because they are slow.
type Backfill struct {
	history drepo.History
	coord   *market.Coordinator
	cfg     *config.Config
	log     *logger.Logger
}

// NewBackfill creates a new Backfill.
func NewBackfill(history drepo.History, coord *market.Coordinator, cfg *config.Config, log *logger.Logger) *Backfill {
	return &Backfill{history: history, coord: coord, cfg: cfg, log: log}
}

// Seed loads the fast seed data for symbol. Filters are best effort, candles
// are required, the rest degrades to empty series on failure.
func (b *Backfill) Seed(ctx context.Context, symbol string) error {
	if filters, err := b.history.SymbolFilters(ctx, symbol); err != nil {
		b.log.Warn("backfill: symbol filters", logger.Error(err))
	} else {
		b.coord.SetSymbolFilters(filters)
	}

	klines, err := b.history.Klines(ctx, symbol, b.cfg.Binance.KlineInterval, b.cfg.Binance.BackfillKlines)
	if err != nil {
		return fmt.Errorf("seed klines: %w", err)
	}
	b.coord.SeedCandles(klines)

	if snap, err := b.history.DepthSnapshot(ctx, symbol, b.cfg.Binance.DepthLimit); err != nil {
		b.log.Warn("backfill: depth snapshot", logger.Error(err))
	} else {
		b.coord.ApplyBookSnapshot(snap)
	}

	if hist, err := b.history.OpenInterestHist(ctx, symbol, b.cfg.Binance.OIHistPeriod, b.cfg.Binance.OIHistLimit); err != nil {
		b.log.Warn("backfill: open interest hist", logger.Error(err))
	} else {
		b.coord.SeedOpenInterest(hist)
	}

	b.log.Info("backfill: seeded",
		logger.String("symbol", symbol),
		logger.Int("candles", len(klines)))
	return nil
}

// SeedTrades pages historical aggregate trades through the seeded candle
// windows so closed candles carry footprint data. It aborts quietly when the
// active symbol changes underneath it.
func (b *Backfill) SeedTrades(ctx context.Context, symbol string) {
	candles := b.coord.CandleRange(0, 1<<62)
	limit := b.cfg.Binance.TradePageLimit

	for _, c := range candles {
		if ctx.Err() != nil || b.coord.Symbol() != symbol {
			return
		}
		start := c.OpenTime
		for {
			trades, err := b.history.AggTrades(ctx, symbol, start, c.CloseTime, limit)
			if err != nil {
				b.log.Warn("backfill: agg trades",
					logger.Int64("open_time", c.OpenTime), logger.Error(err))
				return
			}
			if len(trades) == 0 {
				break
			}
			if b.coord.Symbol() != symbol {
				return
			}
			b.coord.RouteTradesAt(c.OpenTime, trades)
			if len(trades) < limit {
				break
			}
			start = trades[len(trades)-1].Time + 1
		}
	}
	b.log.Info("backfill: trades seeded", logger.String("symbol", symbol))
}
