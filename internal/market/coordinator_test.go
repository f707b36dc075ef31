package market

import (
	"errors"
	"testing"
	"time"

	"DepthView/internal/domain/models"
	"DepthView/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)              {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordFrameSkip()                {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewCoordinator(Config{
		Symbol:          "btcusdt",
		BucketSize:      0.5,
		BucketMult:      100,
		TickSize:        0.1,
		SentimentWindow: 30 * time.Second,
	}, log, nopMetrics{})
}

func TestCoordinatorRoutesTradesToOpenCandle(t *testing.T) {
	c := newTestCoordinator(t)

	c.IngestCandle(raw(60_000, 4, 2))
	c.RouteTrades([]models.Trade{{Price: 100.2, Quantity: 1}})

	model, err := c.RenderSnapshot(0, 120_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(model.Footprints) != 1 {
		t.Fatalf("expected 1 footprint, got %d", len(model.Footprints))
	}
	if model.Footprints[0].Buy[10000] != 1 {
		t.Fatalf("unexpected footprint %+v", model.Footprints[0])
	}
}

func TestCoordinatorDiscardsTradesBeforeFirstCandle(t *testing.T) {
	c := newTestCoordinator(t)

	c.RouteTrades([]models.Trade{{Price: 100, Quantity: 1}})
	c.IngestCandle(raw(60_000, 4, 2))

	model, err := c.RenderSnapshot(0, 120_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(model.Footprints[0].Buy) != 0 {
		t.Fatalf("trade arriving before any candle must be discarded, got %+v", model.Footprints[0])
	}
}

func TestCoordinatorRenderSnapshotSkipsOnContention(t *testing.T) {
	c := newTestCoordinator(t)
	c.IngestCandle(raw(60_000, 4, 2))

	c.candleMu.Lock()
	_, err := c.RenderSnapshot(0, 120_000, 0)
	c.candleMu.Unlock()

	if !errors.Is(err, ErrFrameSkipped) {
		t.Fatalf("expected ErrFrameSkipped, got %v", err)
	}

	// The failed attempt must have released earlier guards.
	if _, err := c.RenderSnapshot(0, 120_000, 0); err != nil {
		t.Fatalf("snapshot after contention cleared: %v", err)
	}
}

func TestCoordinatorSentimentSnapshotSkipsOnContention(t *testing.T) {
	c := newTestCoordinator(t)

	c.sentimentMu.Lock()
	_, err := c.SentimentSnapshot()
	c.sentimentMu.Unlock()

	if !errors.Is(err, ErrFrameSkipped) {
		t.Fatalf("expected ErrFrameSkipped, got %v", err)
	}
}

func TestCoordinatorResetClearsEverything(t *testing.T) {
	c := newTestCoordinator(t)

	c.ApplyBookSnapshot(&models.DepthSnapshot{Bids: levels(10, 1)})
	c.IngestCandle(raw(60_000, 4, 2))
	c.RouteTrades([]models.Trade{{Price: 100, Quantity: 1}})
	c.IngestSentiment([]models.Trade{{Time: 60_000}}, 60_000)
	c.AppendOpenInterest(models.OpenInterestPoint{Time: 60_000, Value: 1})

	c.Reset("ethusdt")

	model, err := c.RenderSnapshot(0, 120_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if model.Symbol != "ethusdt" {
		t.Fatalf("expected new symbol, got %s", model.Symbol)
	}
	if len(model.Candles) != 0 || len(model.Bids) != 0 || len(model.OpenInterest) != 0 {
		t.Fatalf("expected empty state after reset, got %+v", model)
	}

	// The open-candle marker must be gone too: new trades have no bucket.
	c.RouteTrades([]models.Trade{{Price: 100, Quantity: 1}})
	model, _ = c.RenderSnapshot(0, 120_000, 0)
	if len(model.Footprints) != 0 {
		t.Fatalf("expected no footprints after reset, got %+v", model.Footprints)
	}
}

func TestCoordinatorSnapshotUsesConfiguredBucketDefault(t *testing.T) {
	c := newTestCoordinator(t)
	c.ApplyBookSnapshot(&models.DepthSnapshot{Bids: levels(100.1, 1, 100.3, 2)})

	model, err := c.RenderSnapshot(0, 120_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if model.BucketSize != 0.5 {
		t.Fatalf("expected configured bucket size 0.5, got %v", model.BucketSize)
	}
	// Both bids land in the [100.0, 100.5) cell.
	if len(model.Bids) != 1 || model.Bids[0].Quantity != 3 {
		t.Fatalf("unexpected grouped bids %+v", model.Bids)
	}
}

func TestCoordinatorExtremaOverVisibleRange(t *testing.T) {
	c := newTestCoordinator(t)

	c.IngestCandle(models.RawCandle{OpenTime: 60_000, Open: 100, High: 110, Low: 90, Close: 105, Volume: 10, BuyVolume: 6, CloseTime: 119_999})
	c.IngestCandle(models.RawCandle{OpenTime: 120_000, Open: 105, High: 120, Low: 100, Close: 101, Volume: 8, BuyVolume: 2, CloseTime: 179_999})

	model, err := c.RenderSnapshot(0, 200_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// avg body = (|105-100| + |101-105|) / 2 = 4.5
	if model.Extrema.PriceMin != 90-4.5 || model.Extrema.PriceMax != 120+4.5 {
		t.Fatalf("unexpected extrema %+v", model.Extrema)
	}
	if model.Extrema.MaxVolume != 6 {
		t.Fatalf("expected max per-side volume 6, got %v", model.Extrema.MaxVolume)
	}

	// Only the second candle visible: bounds shrink with the range.
	model, err = c.RenderSnapshot(120_000, 200_000, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if model.Extrema.PriceMin != 100-4 || model.Extrema.PriceMax != 120+4 {
		t.Fatalf("unexpected windowed extrema %+v", model.Extrema)
	}
}
