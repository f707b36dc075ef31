package market

import (
	"testing"
	"time"

	"DepthView/internal/domain/models"
)

func TestSentimentPrunesBeyondWindow(t *testing.T) {
	w := NewSentimentWindow(30 * time.Second)

	w.Ingest([]models.Trade{{Price: 100, Quantity: 1, Time: 1_000}}, 1_000)
	w.Ingest([]models.Trade{{Price: 101, Quantity: 1, Time: 40_000}}, 40_000)

	snap := w.Snapshot()
	if len(snap.Trades) != 1 || snap.Trades[0].Time != 40_000 {
		t.Fatalf("expected only the in-window trade, got %+v", snap.Trades)
	}
	if len(snap.BuyCounts) != 1 || snap.BuyCounts[0].Time != 40_000 {
		t.Fatalf("expected counters pruned, got %+v", snap.BuyCounts)
	}
}

func TestSentimentRetainsWithinWindow(t *testing.T) {
	w := NewSentimentWindow(30 * time.Second)

	w.Ingest([]models.Trade{{Time: 10_000}}, 10_000)
	w.Ingest([]models.Trade{{Time: 25_000}}, 25_000)

	snap := w.Snapshot()
	if len(snap.Trades) != 2 {
		t.Fatalf("expected both trades retained, got %d", len(snap.Trades))
	}
	if len(snap.BuyCounts) != 2 {
		t.Fatalf("expected both counter entries, got %d", len(snap.BuyCounts))
	}
}

func TestSentimentCountsPerSide(t *testing.T) {
	w := NewSentimentWindow(30 * time.Second)

	w.Ingest([]models.Trade{
		{Time: 1_000},
		{Time: 1_000},
		{Time: 1_000, SellerInitiated: true},
	}, 1_000)

	snap := w.Snapshot()
	if snap.BuyCounts[0].Count != 2 {
		t.Fatalf("expected 2 buys, got %d", snap.BuyCounts[0].Count)
	}
	if snap.SellCounts[0].Count != 1 {
		t.Fatalf("expected 1 sell, got %d", snap.SellCounts[0].Count)
	}
	if snap.MaxCount != 2 {
		t.Fatalf("expected max count 2, got %d", snap.MaxCount)
	}
}

func TestSentimentCountSeriesSorted(t *testing.T) {
	w := NewSentimentWindow(time.Minute)

	w.Ingest(nil, 3_000)
	w.Ingest(nil, 1_000)
	w.Ingest(nil, 2_000)

	snap := w.Snapshot()
	for i := 1; i < len(snap.BuyCounts); i++ {
		if snap.BuyCounts[i].Time < snap.BuyCounts[i-1].Time {
			t.Fatalf("count series not sorted: %+v", snap.BuyCounts)
		}
	}
}

func TestSentimentSnapshotCopies(t *testing.T) {
	w := NewSentimentWindow(time.Minute)
	w.Ingest([]models.Trade{{Price: 100, Time: 1_000}}, 1_000)

	snap := w.Snapshot()
	snap.Trades[0].Price = -1

	again := w.Snapshot()
	if again.Trades[0].Price == -1 {
		t.Fatal("Snapshot must return a copy of the trade list")
	}
}
