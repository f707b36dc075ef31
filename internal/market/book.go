package market

import (
	"math"
	"sort"

	"DepthView/internal/domain/models"
)

// Book reconstructs a two-sided order book from a REST snapshot plus an
// unbounded diff stream. It is a plain data structure: the coordinator owns
// the lock that guards it, so batch application stays atomic with respect to
// readers.
type Book struct {
	bids         map[float64]float64
	asks         map[float64]float64
	lastUpdateID int64
}

func NewBook() *Book {
	return &Book{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// ApplySnapshot replaces both sides wholesale and records the snapshot's
// sequence marker.
func (b *Book) ApplySnapshot(snap *models.DepthSnapshot) {
	b.bids = make(map[float64]float64, len(snap.Bids))
	b.asks = make(map[float64]float64, len(snap.Asks))
	for _, lvl := range snap.Bids {
		if validLevel(lvl) && lvl.Quantity > 0 {
			b.bids[lvl.Price] = lvl.Quantity
		}
	}
	for _, lvl := range snap.Asks {
		if validLevel(lvl) && lvl.Quantity > 0 {
			b.asks[lvl.Price] = lvl.Quantity
		}
	}
	b.lastUpdateID = snap.LastUpdateID
}

// ApplyUpdate merges one delta frame. Quantity zero removes the level, a
// known price overwrites its quantity, an unknown price inserts a new level.
//
// Bid updates below the lowest resting bid and ask updates above the highest
// resting ask are discarded: the book is a display window, not an exchange
// replica, and the periodic snapshot re-seed restores anything the filter
// drops. The filter is suspended while a side is empty so the first delta
// after a reset cannot be rejected against a vacuous bound.
func (b *Book) ApplyUpdate(u models.DepthUpdate) {
	if len(b.bids) > 0 {
		floor := math.Inf(1)
		for price := range b.bids {
			floor = math.Min(floor, price)
		}
		mergeSide(b.bids, u.Bids, func(p float64) bool { return p >= floor })
	} else {
		mergeSide(b.bids, u.Bids, nil)
	}
	if len(b.asks) > 0 {
		ceil := math.Inf(-1)
		for price := range b.asks {
			ceil = math.Max(ceil, price)
		}
		mergeSide(b.asks, u.Asks, func(p float64) bool { return p <= ceil })
	} else {
		mergeSide(b.asks, u.Asks, nil)
	}
}

func mergeSide(side map[float64]float64, updates []models.PriceLevel, inRange func(float64) bool) {
	for _, lvl := range updates {
		if !validLevel(lvl) {
			continue
		}
		if inRange != nil && !inRange(lvl.Price) {
			continue
		}
		if lvl.Quantity == 0 {
			delete(side, lvl.Price)
		} else {
			side[lvl.Price] = lvl.Quantity
		}
	}
}

// validLevel rejects what the decoder could not: non-finite or negative
// numbers that slipped through as parsed floats.
func validLevel(lvl models.PriceLevel) bool {
	if math.IsNaN(lvl.Price) || math.IsInf(lvl.Price, 0) || lvl.Price <= 0 {
		return false
	}
	if math.IsNaN(lvl.Quantity) || math.IsInf(lvl.Quantity, 0) || lvl.Quantity < 0 {
		return false
	}
	return true
}

// Bids returns a copy of the bid side sorted descending by price.
func (b *Book) Bids() []models.PriceLevel {
	out := collectSide(b.bids)
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

// Asks returns a copy of the ask side sorted ascending by price.
func (b *Book) Asks() []models.PriceLevel {
	out := collectSide(b.asks)
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func (b *Book) LastUpdateID() int64 { return b.lastUpdateID }

func (b *Book) Depth() (bids, asks int) { return len(b.bids), len(b.asks) }

func collectSide(side map[float64]float64) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(side))
	for price, qty := range side {
		out = append(out, models.PriceLevel{Price: price, Quantity: qty})
	}
	return out
}

// GroupLevels accumulates levels onto the display price grid. The integer
// bucket key keeps float prices from splitting one visual row into several
// map entries; BucketPrice undoes the scaling for display.
func GroupLevels(levels []models.PriceLevel, bucketSize, multiplier float64) []models.PriceLevel {
	grouped := make(map[int64]float64, len(levels))
	for _, lvl := range levels {
		grouped[BucketKey(lvl.Price, bucketSize, multiplier)] += lvl.Quantity
	}
	out := make([]models.PriceLevel, 0, len(grouped))
	for key, qty := range grouped {
		out = append(out, models.PriceLevel{Price: BucketPrice(key, multiplier), Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// BucketKey maps a price onto the grid cell [n*bucketSize, (n+1)*bucketSize)
// and scales the cell's lower bound by multiplier into an exact integer key.
func BucketKey(price, bucketSize, multiplier float64) int64 {
	return int64(math.Round(math.Floor(price/bucketSize) * bucketSize * multiplier))
}

// BucketPrice converts an integer bucket key back into its display price.
func BucketPrice(key int64, multiplier float64) float64 {
	return float64(key) / multiplier
}
