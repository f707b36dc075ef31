package market

import (
	"sort"
	"time"

	"DepthView/internal/domain/models"
)

// SentimentWindow keeps a rolling fixed-duration view of raw trades plus
// per-update buy/sell counts, for short-horizon order-flow display. Pruning
// is driven by the ingested batch timestamps, not the wall clock, so replays
// behave the same as live data.
type SentimentWindow struct {
	window     time.Duration
	trades     []models.Trade
	buyCounts  map[int64]int
	sellCounts map[int64]int
}

func NewSentimentWindow(window time.Duration) *SentimentWindow {
	return &SentimentWindow{
		window:     window,
		buyCounts:  make(map[int64]int),
		sellCounts: make(map[int64]int),
	}
}

// Ingest prunes everything older than batchTime minus the window, then
// records the batch: one buy and one sell count entry keyed by batchTime, and
// the trades themselves appended to the retained list.
func (w *SentimentWindow) Ingest(batch []models.Trade, batchTime int64) {
	cutoff := batchTime - w.window.Milliseconds()

	retained := w.trades[:0]
	for _, t := range w.trades {
		if t.Time >= cutoff {
			retained = append(retained, t)
		}
	}
	w.trades = retained
	for ts := range w.buyCounts {
		if ts < cutoff {
			delete(w.buyCounts, ts)
		}
	}
	for ts := range w.sellCounts {
		if ts < cutoff {
			delete(w.sellCounts, ts)
		}
	}

	var buys, sells int
	for _, t := range batch {
		if t.SellerInitiated {
			sells++
		} else {
			buys++
		}
	}
	w.buyCounts[batchTime] = buys
	w.sellCounts[batchTime] = sells
	w.trades = append(w.trades, batch...)
}

// Snapshot returns the current windowed view. All collections are copies and
// already time-pruned; count series come back sorted by time.
func (w *SentimentWindow) Snapshot() models.SentimentSnapshot {
	snap := models.SentimentSnapshot{
		Trades:     make([]models.Trade, len(w.trades)),
		BuyCounts:  countPoints(w.buyCounts),
		SellCounts: countPoints(w.sellCounts),
	}
	copy(snap.Trades, w.trades)
	for _, p := range snap.BuyCounts {
		if p.Count > snap.MaxCount {
			snap.MaxCount = p.Count
		}
	}
	for _, p := range snap.SellCounts {
		if p.Count > snap.MaxCount {
			snap.MaxCount = p.Count
		}
	}
	return snap
}

func (w *SentimentWindow) Window() time.Duration { return w.window }

func countPoints(counts map[int64]int) []models.CountPoint {
	out := make([]models.CountPoint, 0, len(counts))
	for ts, n := range counts {
		out = append(out, models.CountPoint{Time: ts, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
