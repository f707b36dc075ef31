package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"DepthView/internal/domain/models"
	drepo "DepthView/internal/domain/repository"
	"DepthView/internal/market"
	"DepthView/pkg/config"
	"DepthView/pkg/logger"
)

// Collector runs the ingestion side of one instrument session: it seeds state
// through Backfill, consumes the live stream, and drives the periodic REST
// polls. Trades are buffered and flushed on each depth frame so book, trade
// and sentiment state advance together.
type Collector struct {
	stream   drepo.MarketStream
	history  drepo.History
	coord    *market.Coordinator
	backfill *Backfill
	cfg      *config.Config
	log      *logger.Logger
	metrics  drepo.Metrics

	mu     sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending []models.Trade
}

// NewCollector creates a new Collector.
func NewCollector(stream drepo.MarketStream, history drepo.History, coord *market.Coordinator, backfill *Backfill, cfg *config.Config, log *logger.Logger, metrics drepo.Metrics) *Collector {
	return &Collector{
		stream:   stream,
		history:  history,
		coord:    coord,
		backfill: backfill,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
	}
}

// IsConnected reports whether the live stream is up.
func (c *Collector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start begins the session for the configured symbol. ctx is the process
// lifetime; instrument switches derive fresh session contexts from it.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parent = ctx
	return c.startSession(strings.ToLower(c.cfg.Binance.Symbol))
}

// Switch tears the current session down and brings up symbol in its place:
// cancel, wait for ingestion to drain, reset state, reseed, reconnect.
func (c *Collector) Switch(symbol string) error {
	symbol = strings.ToLower(symbol)
	c.mu.Lock()
	defer c.mu.Unlock()
	if symbol == c.coord.Symbol() {
		return nil
	}
	c.stopSession()
	c.coord.Reset(symbol)
	c.log.Info("collector: switching instrument", logger.String("symbol", symbol))
	return c.startSession(symbol)
}

// Stop ends the active session. Safe to call more than once.
func (c *Collector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSession()
	return nil
}

// startSession seeds and connects; caller holds c.mu.
func (c *Collector) startSession(symbol string) error {
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.pending = c.pending[:0]

	if err := c.backfill.Seed(ctx, symbol); err != nil {
		cancel()
		return err
	}
	if err := c.stream.Connect(ctx, symbol); err != nil {
		cancel()
		return err
	}

	if c.cfg.Binance.BackfillTrades {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.backfill.SeedTrades(ctx, symbol)
		}()
	}

	c.wg.Add(3)
	go c.run(ctx)
	go c.pollDepth(ctx, symbol)
	go c.pollOpenInterest(ctx, symbol)
	return nil
}

// stopSession cancels the session and waits for its goroutines; caller holds
// c.mu.
func (c *Collector) stopSession() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	_ = c.stream.Close()
	c.wg.Wait()
}

// run consumes the stream, reconnecting until the session ends.
func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		events, errs := c.stream.Events(ctx)
		c.consume(ctx, events, errs)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		if err := c.stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("collector: reconnect", logger.Error(err))
		}
	}
}

func (c *Collector) consume(ctx context.Context, events <-chan models.MarketEvent, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				c.log.Warn("collector: stream error", logger.Error(err))
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handle(ev)
		}
	}
}

// handle dispatches one market event. Trades accumulate until the next depth
// frame flushes them, matching the cadence the book advances at.
func (c *Collector) handle(ev models.MarketEvent) {
	switch e := ev.(type) {
	case models.TradeEvent:
		c.pending = append(c.pending, e.Trade)
		c.metrics.RecordEvent("trade")
	case models.DepthEvent:
		c.coord.ApplyBookDelta(e.Update)
		if len(c.pending) > 0 {
			c.coord.RouteTrades(c.pending)
			c.coord.IngestSentiment(c.pending, e.Update.Time)
			last := c.pending[len(c.pending)-1]
			c.metrics.RecordLastPrice(c.coord.Symbol(), last.Price)
			c.pending = c.pending[:0]
		}
	case models.KlineEvent:
		c.coord.IngestCandle(e.Candle)
	}
}

// pollDepth re-seeds the book from a REST snapshot on a fixed cadence, which
// also clears levels the range filter may have starved.
func (c *Collector) pollDepth(ctx context.Context, symbol string) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.Binance.DepthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := c.history.DepthSnapshot(ctx, symbol, c.cfg.Binance.DepthLimit)
			if err != nil {
				c.metrics.RecordError("depth_poll")
				c.log.Warn("collector: depth poll", logger.Error(err))
				continue
			}
			c.coord.ApplyBookSnapshot(snap)
		}
	}
}

// pollOpenInterest samples open interest once per interval, aligned to the
// minute so points land on candle boundaries.
func (c *Collector) pollOpenInterest(ctx context.Context, symbol string) {
	defer c.wg.Done()

	now := time.Now()
	wait := now.Truncate(time.Minute).Add(time.Minute).Sub(now)
	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}

	c.sampleOpenInterest(ctx, symbol)
	ticker := time.NewTicker(c.cfg.Binance.OIPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sampleOpenInterest(ctx, symbol)
		}
	}
}

func (c *Collector) sampleOpenInterest(ctx context.Context, symbol string) {
	p, err := c.history.OpenInterest(ctx, symbol)
	if err != nil {
		c.metrics.RecordError("oi_poll")
		c.log.Warn("collector: open interest poll", logger.Error(err))
		return
	}
	c.coord.AppendOpenInterest(*p)
}
