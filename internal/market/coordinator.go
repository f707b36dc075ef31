package market

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"DepthView/internal/domain/models"
	drepo "DepthView/internal/domain/repository"
	"DepthView/pkg/logger"
)

// ErrFrameSkipped is returned by the render-path queries when a collection
// lock is contended. The presentation layer runs on a frame cadence; a
// missed frame beats a stalled one, so the query never waits.
var ErrFrameSkipped = errors.New("frame skipped: market state busy")

// Coordinator owns every shared collection of the engine behind independent
// guards, one per logically-independent collection, so book traffic and
// candle traffic never serialize against each other. Ingestion entry points
// block until their guard is held (a dropped market event is a correctness
// bug); render queries try-acquire and skip the frame instead.
//
// Multi-collection reads take guards in a fixed order, book before candles
// before trades before open interest, so two snapshot calls can never
// deadlock each other.
type Coordinator struct {
	log     *logger.Logger
	metrics drepo.Metrics

	bookMu sync.RWMutex
	book   *Book

	candleMu sync.RWMutex
	candles  *CandleSeries

	tradeMu   sync.RWMutex
	footprint *Footprint

	sentimentMu sync.RWMutex
	sentiment   *SentimentWindow

	oiMu sync.RWMutex
	oi   *OpenInterestSeries

	settingsMu sync.RWMutex
	symbol     string
	bucketSize float64
	tickSize   float64
	minQty     float64

	multiplier      float64
	sentimentWindow time.Duration

	// Open-candle marker set by candle ingestion and read by trade routing.
	// Kept here, not inside an aggregator, so neither reaches into the
	// other's collection.
	currentOpen atomic.Int64
}

// Config carries the display parameters the coordinator starts with.
type Config struct {
	Symbol          string
	BucketSize      float64
	BucketMult      float64
	TickSize        float64
	SentimentWindow time.Duration
}

func NewCoordinator(cfg Config, log *logger.Logger, metrics drepo.Metrics) *Coordinator {
	return &Coordinator{
		log:             log,
		metrics:         metrics,
		book:            NewBook(),
		candles:         NewCandleSeries(),
		footprint:       NewFootprint(),
		sentiment:       NewSentimentWindow(cfg.SentimentWindow),
		oi:              NewOpenInterestSeries(),
		symbol:          cfg.Symbol,
		bucketSize:      cfg.BucketSize,
		multiplier:      cfg.BucketMult,
		tickSize:        cfg.TickSize,
		sentimentWindow: cfg.SentimentWindow,
	}
}

// --- ingestion entry points ---

// ApplyBookSnapshot replaces the book wholesale from a REST depth snapshot.
func (c *Coordinator) ApplyBookSnapshot(snap *models.DepthSnapshot) {
	c.bookMu.Lock()
	c.book.ApplySnapshot(snap)
	c.bookMu.Unlock()
	c.metrics.RecordEvent("depth_snapshot")
}

// ApplyBookDelta merges one incremental depth frame.
func (c *Coordinator) ApplyBookDelta(u models.DepthUpdate) {
	c.bookMu.Lock()
	c.book.ApplyUpdate(u)
	c.bookMu.Unlock()
	c.metrics.RecordEvent("depth")
}

// IngestCandle applies one live candle tick and advances the open-candle
// marker used by trade routing.
func (c *Coordinator) IngestCandle(rc models.RawCandle) {
	c.candleMu.Lock()
	applied := c.candles.IngestLive(rc)
	c.candleMu.Unlock()

	if !applied {
		c.metrics.RecordError("candle_stale")
		c.log.Warn("stale candle tick dropped", logger.Int64("open_time", rc.OpenTime))
		return
	}
	c.currentOpen.Store(rc.OpenTime)
	c.metrics.RecordEvent("kline")
	c.metrics.RecordLastPrice(c.Symbol(), rc.Close)
}

// CandleRange returns copies of the candles with open time in [from, to].
// Unlike the render path it blocks on the candle guard rather than skipping.
func (c *Coordinator) CandleRange(from, to int64) []models.Candle {
	c.candleMu.RLock()
	defer c.candleMu.RUnlock()
	return c.candles.Range(from, to)
}

// SeedCandles folds historical candles into the series. Used once at startup
// or instrument switch, before the live stream begins.
func (c *Coordinator) SeedCandles(rcs []models.RawCandle) {
	c.candleMu.Lock()
	c.candles.IngestBackfill(rcs)
	latest, ok := c.candles.Latest()
	c.candleMu.Unlock()
	if ok {
		c.currentOpen.Store(latest.OpenTime)
	}
}

// RouteTrades appends a live trade batch to the footprint of the currently
// open candle. Before any candle has opened there is no bucket to attach
// them to, and the batch is discarded.
func (c *Coordinator) RouteTrades(batch []models.Trade) {
	open := c.currentOpen.Load()
	if open == 0 {
		c.metrics.RecordError("trade_no_candle")
		return
	}
	c.tradeMu.Lock()
	c.footprint.Route(open, batch)
	c.tradeMu.Unlock()
	c.metrics.RecordEvent("trades")
}

// RouteTradesAt attaches a historical trade batch to an explicit candle,
// used by backfill where the owning candle is known from the fetch window.
func (c *Coordinator) RouteTradesAt(openTime int64, batch []models.Trade) {
	c.tradeMu.Lock()
	c.footprint.Route(openTime, batch)
	c.tradeMu.Unlock()
}

// IngestSentiment records one trade batch in the rolling window.
func (c *Coordinator) IngestSentiment(batch []models.Trade, batchTime int64) {
	c.sentimentMu.Lock()
	c.sentiment.Ingest(batch, batchTime)
	c.sentimentMu.Unlock()
}

// AppendOpenInterest records one polled open-interest sample.
func (c *Coordinator) AppendOpenInterest(p models.OpenInterestPoint) {
	c.oiMu.Lock()
	c.oi.Append(p)
	c.oiMu.Unlock()
	c.metrics.RecordEvent("open_interest")
}

// SeedOpenInterest merges historical open-interest points.
func (c *Coordinator) SeedOpenInterest(points []models.OpenInterestPoint) {
	c.oiMu.Lock()
	c.oi.Seed(points)
	c.oiMu.Unlock()
}

// --- settings ---

func (c *Coordinator) Symbol() string {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.symbol
}

func (c *Coordinator) SetBucketSize(v float64) {
	c.settingsMu.Lock()
	c.bucketSize = v
	c.settingsMu.Unlock()
}

func (c *Coordinator) SetTickSize(v float64) {
	c.settingsMu.Lock()
	c.tickSize = v
	c.settingsMu.Unlock()
}

// SetSymbolFilters applies exchange filters fetched on instrument switch.
func (c *Coordinator) SetSymbolFilters(f *models.SymbolFilters) {
	c.settingsMu.Lock()
	c.tickSize = f.TickSize
	c.minQty = f.MinQty
	c.settingsMu.Unlock()
}

func (c *Coordinator) displaySettings() (symbol string, bucketSize, tickSize, multiplier float64) {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.symbol, c.bucketSize, c.tickSize, c.multiplier
}

// --- instrument switch ---

// Reset clears every collection and installs the new symbol. It takes every
// guard, in the same fixed order the render path uses, and swaps all
// collections while holding them, so no reader or writer can observe a
// half-cleared state. The caller must have stopped the old instrument's
// event sources first.
func (c *Coordinator) Reset(symbol string) {
	c.bookMu.Lock()
	c.candleMu.Lock()
	c.tradeMu.Lock()
	c.sentimentMu.Lock()
	c.oiMu.Lock()
	c.settingsMu.Lock()

	c.book = NewBook()
	c.candles = NewCandleSeries()
	c.footprint = NewFootprint()
	c.sentiment = NewSentimentWindow(c.sentimentWindow)
	c.oi = NewOpenInterestSeries()
	c.symbol = symbol
	c.currentOpen.Store(0)

	c.settingsMu.Unlock()
	c.oiMu.Unlock()
	c.sentimentMu.Unlock()
	c.tradeMu.Unlock()
	c.candleMu.Unlock()
	c.bookMu.Unlock()

	c.log.Info("state reset", logger.String("symbol", symbol))
}

// --- render-path queries ---

// RenderSnapshot assembles one frame for the presentation layer over the
// visible time range. Every collection it needs is try-locked in the fixed
// order; any contention returns ErrFrameSkipped immediately. The returned
// model holds only copies, safe to use after this call returns.
func (c *Coordinator) RenderSnapshot(from, to int64, bucketSize float64) (*models.RenderModel, error) {
	start := time.Now()
	symbol, defaultBucket, tickSize, multiplier := c.displaySettings()
	if bucketSize <= 0 {
		bucketSize = defaultBucket
	}

	if !c.bookMu.TryRLock() {
		c.metrics.RecordFrameSkip()
		return nil, ErrFrameSkipped
	}
	if !c.candleMu.TryRLock() {
		c.bookMu.RUnlock()
		c.metrics.RecordFrameSkip()
		return nil, ErrFrameSkipped
	}
	if !c.tradeMu.TryRLock() {
		c.candleMu.RUnlock()
		c.bookMu.RUnlock()
		c.metrics.RecordFrameSkip()
		return nil, ErrFrameSkipped
	}
	if !c.oiMu.TryRLock() {
		c.tradeMu.RUnlock()
		c.candleMu.RUnlock()
		c.bookMu.RUnlock()
		c.metrics.RecordFrameSkip()
		return nil, ErrFrameSkipped
	}

	model := &models.RenderModel{
		Symbol:       symbol,
		Candles:      c.candles.Range(from, to),
		Bids:         GroupLevels(c.book.Bids(), bucketSize, multiplier),
		Asks:         GroupLevels(c.book.Asks(), bucketSize, multiplier),
		OpenInterest: c.oi.Range(from, to),
		BucketSize:   bucketSize,
		TickSize:     tickSize,
	}
	model.Footprints = make([]models.FootprintBuckets, 0, len(model.Candles))
	openTimes := make([]int64, 0, len(model.Candles))
	for _, candle := range model.Candles {
		model.Footprints = append(model.Footprints, c.footprint.Buckets(candle.OpenTime, bucketSize, multiplier))
		openTimes = append(openTimes, candle.OpenTime)
	}
	model.Extrema = computeExtrema(model.Candles)
	model.Extrema.MaxQuantity = c.footprint.MaxBucketQuantity(openTimes, bucketSize, multiplier)

	c.oiMu.RUnlock()
	c.tradeMu.RUnlock()
	c.candleMu.RUnlock()
	c.bookMu.RUnlock()

	c.metrics.RecordLatency("render_snapshot", time.Since(start).Seconds())
	return model, nil
}

// SentimentSnapshot returns the rolling order-flow window, with the same
// skip-on-contention policy as RenderSnapshot.
func (c *Coordinator) SentimentSnapshot() (*models.SentimentSnapshot, error) {
	if !c.sentimentMu.TryRLock() {
		c.metrics.RecordFrameSkip()
		return nil, ErrFrameSkipped
	}
	snap := c.sentiment.Snapshot()
	c.sentimentMu.RUnlock()
	return &snap, nil
}

// computeExtrema derives the vertical bounds a view needs: min/max visible
// price padded by the average candle body, the way the chart autoscales, and
// the largest per-side candle volume.
func computeExtrema(candles []models.Candle) models.Extrema {
	if len(candles) == 0 {
		return models.Extrema{}
	}
	var bodySum float64
	ex := models.Extrema{PriceMin: candles[0].Low, PriceMax: candles[0].High}
	for _, k := range candles {
		if k.Low < ex.PriceMin {
			ex.PriceMin = k.Low
		}
		if k.High > ex.PriceMax {
			ex.PriceMax = k.High
		}
		if k.BuyVolume > ex.MaxVolume {
			ex.MaxVolume = k.BuyVolume
		}
		if k.SellVolume > ex.MaxVolume {
			ex.MaxVolume = k.SellVolume
		}
		if body := k.Close - k.Open; body >= 0 {
			bodySum += body
		} else {
			bodySum -= body
		}
	}
	avgBody := bodySum / float64(len(candles))
	ex.PriceMin -= avgBody
	ex.PriceMax += avgBody
	return ex
}
