package market

import (
	"testing"

	"DepthView/internal/domain/models"
)

func levels(pairs ...float64) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.PriceLevel{Price: pairs[i], Quantity: pairs[i+1]})
	}
	return out
}

func TestBookZeroQuantityRemovesLevel(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{
		Bids:         levels(10, 1, 9, 2),
		LastUpdateID: 7,
	})

	b.ApplyUpdate(models.DepthUpdate{Bids: levels(10, 0)})

	bids := b.Bids()
	if len(bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(bids))
	}
	if bids[0].Price != 9 || bids[0].Quantity != 2 {
		t.Fatalf("unexpected bid %+v", bids[0])
	}
}

func TestBookReAddRestoresExactQuantity(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{Bids: levels(10, 1, 9, 2)})

	b.ApplyUpdate(models.DepthUpdate{Bids: levels(10, 0)})
	b.ApplyUpdate(models.DepthUpdate{Bids: levels(10, 3.5)})

	bids := b.Bids()
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	if bids[0].Price != 10 || bids[0].Quantity != 3.5 {
		t.Fatalf("unexpected best bid %+v", bids[0])
	}
}

func TestBookOverwriteQuantity(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{Asks: levels(11, 1, 12, 2)})

	b.ApplyUpdate(models.DepthUpdate{Asks: levels(11, 9)})

	asks := b.Asks()
	if asks[0].Price != 11 || asks[0].Quantity != 9 {
		t.Fatalf("unexpected best ask %+v", asks[0])
	}
}

func TestBookRangeFilterDiscardsOutOfWindowUpdates(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{
		Bids: levels(10, 1, 9, 2),
		Asks: levels(11, 1, 12, 2),
	})

	// Bid below the resting minimum and ask above the resting maximum are
	// both outside the held window.
	b.ApplyUpdate(models.DepthUpdate{
		Bids: levels(8, 5),
		Asks: levels(13, 5),
	})

	if nb, na := b.Depth(); nb != 2 || na != 2 {
		t.Fatalf("expected window unchanged, got %d bids %d asks", nb, na)
	}
}

func TestBookRangeFilterSuspendedWhenSideEmpty(t *testing.T) {
	b := NewBook()

	b.ApplyUpdate(models.DepthUpdate{Bids: levels(10, 1)})

	if nb, _ := b.Depth(); nb != 1 {
		t.Fatalf("first delta into an empty side must land, got %d bids", nb)
	}
}

func TestBookSnapshotReplacesWholesale(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{Bids: levels(10, 1), LastUpdateID: 1})
	b.ApplySnapshot(&models.DepthSnapshot{Bids: levels(20, 2, 19, 1), LastUpdateID: 2})

	bids := b.Bids()
	if len(bids) != 2 || bids[0].Price != 20 {
		t.Fatalf("snapshot did not replace book: %+v", bids)
	}
	if b.LastUpdateID() != 2 {
		t.Fatalf("expected lastUpdateID 2, got %d", b.LastUpdateID())
	}
}

func TestBookSidesSorted(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(&models.DepthSnapshot{
		Bids: levels(9, 1, 10, 1, 8, 1),
		Asks: levels(12, 1, 11, 1, 13, 1),
	})

	bids, asks := b.Bids(), b.Asks()
	for i := 1; i < len(bids); i++ {
		if bids[i].Price > bids[i-1].Price {
			t.Fatalf("bids not descending: %+v", bids)
		}
	}
	for i := 1; i < len(asks); i++ {
		if asks[i].Price < asks[i-1].Price {
			t.Fatalf("asks not ascending: %+v", asks)
		}
	}
}

func TestGroupLevelsAccumulatesOnGrid(t *testing.T) {
	grouped := GroupLevels(levels(100.04, 1, 100.06, 2, 100.14, 4), 0.1, 100)

	if len(grouped) != 2 {
		t.Fatalf("expected 2 buckets, got %d: %+v", len(grouped), grouped)
	}
	if grouped[0].Price != 100.0 || grouped[0].Quantity != 3 {
		t.Fatalf("unexpected bucket %+v", grouped[0])
	}
	if grouped[1].Price != 100.1 || grouped[1].Quantity != 4 {
		t.Fatalf("unexpected bucket %+v", grouped[1])
	}
}

func TestBucketKeyIntegerGrid(t *testing.T) {
	if k := BucketKey(100.04, 0.1, 100); k != 10000 {
		t.Fatalf("expected key 10000, got %d", k)
	}
	if k := BucketKey(100.06, 0.1, 100); k != 10000 {
		t.Fatalf("expected key 10000, got %d", k)
	}
	if p := BucketPrice(10000, 100); p != 100.0 {
		t.Fatalf("expected price 100.0, got %v", p)
	}
}
