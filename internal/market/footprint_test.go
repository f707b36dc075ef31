package market

import (
	"testing"

	"DepthView/internal/domain/models"
)

func TestFootprintBucketsCombineRoundedPrices(t *testing.T) {
	f := NewFootprint()
	f.Route(1000, []models.Trade{
		{Price: 100.04, Quantity: 1},
		{Price: 100.06, Quantity: 2},
	})

	b := f.Buckets(1000, 0.1, 100)
	if len(b.Buy) != 1 {
		t.Fatalf("expected 1 buy bucket, got %d: %v", len(b.Buy), b.Buy)
	}
	if q := b.Buy[10000]; q != 3 {
		t.Fatalf("expected bucket 10000 quantity 3, got %v", q)
	}
}

func TestFootprintSplitsByAggressorSide(t *testing.T) {
	f := NewFootprint()
	f.Route(1000, []models.Trade{
		{Price: 100, Quantity: 1, SellerInitiated: false},
		{Price: 100, Quantity: 2, SellerInitiated: true},
	})

	b := f.Buckets(1000, 0.5, 100)
	if b.Buy[10000] != 1 {
		t.Fatalf("expected buy quantity 1, got %v", b.Buy[10000])
	}
	if b.Sell[10000] != 2 {
		t.Fatalf("expected sell quantity 2, got %v", b.Sell[10000])
	}
}

func TestFootprintRequeryWithNewBucketSizeKeepsRawTrades(t *testing.T) {
	f := NewFootprint()
	f.Route(1000, []models.Trade{
		{Price: 100.04, Quantity: 1},
		{Price: 100.14, Quantity: 2},
	})

	coarse := f.Buckets(1000, 1.0, 100)
	if len(coarse.Buy) != 1 || coarse.Buy[10000] != 3 {
		t.Fatalf("unexpected coarse buckets %v", coarse.Buy)
	}

	fine := f.Buckets(1000, 0.1, 100)
	if len(fine.Buy) != 2 {
		t.Fatalf("expected 2 fine buckets after re-query, got %v", fine.Buy)
	}
	if fine.Buy[10000] != 1 || fine.Buy[10010] != 2 {
		t.Fatalf("unexpected fine buckets %v", fine.Buy)
	}
}

func TestFootprintNoCandleDiscardsTrades(t *testing.T) {
	f := NewFootprint()
	f.Route(0, []models.Trade{{Price: 100, Quantity: 1}})

	if f.Len() != 0 {
		t.Fatalf("trades before any candle opened must be discarded, len=%d", f.Len())
	}
}

func TestFootprintEmptyCandleReturnsEmptyMaps(t *testing.T) {
	f := NewFootprint()

	b := f.Buckets(5000, 0.5, 100)
	if b.Buy == nil || b.Sell == nil {
		t.Fatal("expected non-nil empty mappings")
	}
	if len(b.Buy) != 0 || len(b.Sell) != 0 {
		t.Fatal("expected empty mappings for unknown candle")
	}
}

func TestFootprintMaxBucketQuantity(t *testing.T) {
	f := NewFootprint()
	f.Route(1000, []models.Trade{{Price: 100, Quantity: 1}})
	f.Route(2000, []models.Trade{{Price: 100, Quantity: 4, SellerInitiated: true}})

	max := f.MaxBucketQuantity([]int64{1000, 2000}, 0.5, 100)
	if max != 4 {
		t.Fatalf("expected max bucket quantity 4, got %v", max)
	}
}
