package market

import (
	"sort"

	"DepthView/internal/domain/models"
)

// CandleSeries holds fixed-interval candles keyed by open time, ascending.
// The last candle is the open (mutable) one; everything before it is closed.
// CVD is folded incrementally: revising the open candle first subtracts its
// previous contribution so the running total is never double counted.
type CandleSeries struct {
	candles []models.Candle
}

func NewCandleSeries() *CandleSeries {
	return &CandleSeries{}
}

// IngestLive applies one candle tick from the feed. The feed repeats the same
// open time while the candle is open and emits a new open time once it
// closes. Ticks older than the latest stored open time would corrupt the CVD
// fold and are dropped; the return value reports whether the tick was
// applied.
func (s *CandleSeries) IngestLive(rc models.RawCandle) bool {
	sellVolume := rc.Volume - rc.BuyVolume
	delta := rc.BuyVolume - sellVolume

	candle := models.Candle{
		OpenTime:   rc.OpenTime,
		Open:       rc.Open,
		High:       rc.High,
		Low:        rc.Low,
		Close:      rc.Close,
		BuyVolume:  rc.BuyVolume,
		SellVolume: sellVolume,
		CVD:        delta,
		CloseTime:  rc.CloseTime,
	}

	n := len(s.candles)
	if n == 0 {
		s.candles = append(s.candles, candle)
		return true
	}

	last := s.candles[n-1]
	switch {
	case rc.OpenTime == last.OpenTime:
		// In-place revision of the still-open candle: back out its previous
		// contribution before adding the revised one.
		candle.CVD = last.CVD - (last.BuyVolume - last.SellVolume) + delta
		s.candles[n-1] = candle
	case rc.OpenTime > last.OpenTime:
		candle.CVD = last.CVD + delta
		s.candles = append(s.candles, candle)
	default:
		return false
	}
	return true
}

// IngestBackfill folds a batch of historical candles in ascending open-time
// order through the same path as live ingestion, so the resulting CVD values
// match what the live path would have produced for the same sequence.
func (s *CandleSeries) IngestBackfill(rcs []models.RawCandle) {
	sorted := make([]models.RawCandle, len(rcs))
	copy(sorted, rcs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpenTime < sorted[j].OpenTime })
	for _, rc := range sorted {
		s.IngestLive(rc)
	}
}

// Latest returns the most recent candle, open or closed.
func (s *CandleSeries) Latest() (models.Candle, bool) {
	if len(s.candles) == 0 {
		return models.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Range returns a copy of all candles with from <= open time <= to.
func (s *CandleSeries) Range(from, to int64) []models.Candle {
	lo := sort.Search(len(s.candles), func(i int) bool { return s.candles[i].OpenTime >= from })
	hi := sort.Search(len(s.candles), func(i int) bool { return s.candles[i].OpenTime > to })
	if lo >= hi {
		return nil
	}
	out := make([]models.Candle, hi-lo)
	copy(out, s.candles[lo:hi])
	return out
}

func (s *CandleSeries) Len() int { return len(s.candles) }
