package market

import (
	"math"
	"testing"

	"DepthView/internal/domain/models"
)

func raw(openTime int64, volume, buyVolume float64) models.RawCandle {
	return models.RawCandle{
		OpenTime:  openTime,
		Open:      100,
		High:      101,
		Low:       99,
		Close:     100.5,
		Volume:    volume,
		BuyVolume: buyVolume,
		CloseTime: openTime + 59999,
	}
}

func TestCandleRevisionDoesNotDoubleCountCVD(t *testing.T) {
	s := NewCandleSeries()

	// open_time=1000, buy=5, sell=2
	s.IngestLive(raw(1000, 7, 5))
	// revised in place: buy=7, sell=2
	s.IngestLive(raw(1000, 9, 7))

	latest, ok := s.Latest()
	if !ok {
		t.Fatal("expected a candle")
	}
	if latest.CVD != 5 {
		t.Fatalf("expected CVD 5 after revision, got %v", latest.CVD)
	}
	if s.Len() != 1 {
		t.Fatalf("revision must not append, len=%d", s.Len())
	}
}

func TestCandleCVDFoldsAcrossClosedCandles(t *testing.T) {
	s := NewCandleSeries()

	// Each candle gets revised a few times before the next one opens; the
	// closed-candle CVD must equal the plain sum of final (buy-sell) deltas.
	s.IngestLive(raw(1000, 4, 3))  // delta +2 after revision below
	s.IngestLive(raw(1000, 10, 6)) // final: buy 6 sell 4, delta +2
	s.IngestLive(raw(2000, 8, 2))  // final: buy 2 sell 6, delta -4
	s.IngestLive(raw(3000, 6, 5))  // open: buy 5 sell 1, delta +4

	got := s.Range(1000, 3000)
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	want := []float64{2, -2, 2}
	for i, k := range got {
		if math.Abs(k.CVD-want[i]) > 1e-9 {
			t.Fatalf("candle %d: expected CVD %v, got %v", i, want[i], k.CVD)
		}
	}
}

func TestCandleStaleTickDropped(t *testing.T) {
	s := NewCandleSeries()
	s.IngestLive(raw(2000, 4, 2))

	if s.IngestLive(raw(1000, 4, 2)) {
		t.Fatal("tick older than the latest open time must be dropped")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 candle, got %d", s.Len())
	}
}

func TestCandleBackfillMatchesLivePath(t *testing.T) {
	batch := []models.RawCandle{
		raw(3000, 6, 1),
		raw(1000, 10, 6),
		raw(2000, 8, 2),
	}

	backfilled := NewCandleSeries()
	backfilled.IngestBackfill(batch)

	live := NewCandleSeries()
	live.IngestLive(raw(1000, 10, 6))
	live.IngestLive(raw(2000, 8, 2))
	live.IngestLive(raw(3000, 6, 1))

	a := backfilled.Range(0, 4000)
	b := live.Range(0, 4000)
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("candle %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestCandleBackfillContinuesAccumulator(t *testing.T) {
	s := NewCandleSeries()
	s.IngestBackfill([]models.RawCandle{raw(1000, 10, 6)}) // delta +2
	s.IngestBackfill([]models.RawCandle{raw(2000, 10, 7)}) // delta +4

	latest, _ := s.Latest()
	if latest.CVD != 6 {
		t.Fatalf("expected continued CVD 6, got %v", latest.CVD)
	}
}

func TestCandleRangeCopies(t *testing.T) {
	s := NewCandleSeries()
	s.IngestLive(raw(1000, 4, 2))
	s.IngestLive(raw(2000, 4, 2))
	s.IngestLive(raw(3000, 4, 2))

	got := s.Range(1500, 2500)
	if len(got) != 1 || got[0].OpenTime != 2000 {
		t.Fatalf("unexpected range result %+v", got)
	}
	got[0].Close = -1
	again := s.Range(1500, 2500)
	if again[0].Close == -1 {
		t.Fatal("Range must return a copy")
	}
}
