package market

import (
	"DepthView/internal/domain/models"
)

// Footprint retains the raw trades of every candle, split by aggressor side.
// Trades are stored unbucketed: the display grid is a user-adjustable
// parameter, so grouping happens at query time against whatever bucket size
// is in effect, and the stored data survives grid changes unchanged.
type Footprint struct {
	groups map[int64]*models.TradeGroup
}

func NewFootprint() *Footprint {
	return &Footprint{groups: make(map[int64]*models.TradeGroup)}
}

// Route appends one batch of trades to the group of the candle open at
// openTime. The caller resolves openTime from the candle series; trades
// arriving before any candle has opened have no bucket and are not routed.
func (f *Footprint) Route(openTime int64, trades []models.Trade) {
	if openTime == 0 || len(trades) == 0 {
		return
	}
	group, ok := f.groups[openTime]
	if !ok {
		group = &models.TradeGroup{}
		f.groups[openTime] = group
	}
	for _, t := range trades {
		ft := models.FootprintTrade{Price: t.Price, Quantity: t.Quantity}
		if t.SellerInitiated {
			group.Sells = append(group.Sells, ft)
		} else {
			group.Buys = append(group.Buys, ft)
		}
	}
}

// Buckets groups one candle's raw trades onto the price grid. Empty mappings
// come back when no trades exist for that candle.
func (f *Footprint) Buckets(openTime int64, bucketSize, multiplier float64) models.FootprintBuckets {
	out := models.FootprintBuckets{
		OpenTime: openTime,
		Buy:      make(map[int64]float64),
		Sell:     make(map[int64]float64),
	}
	group, ok := f.groups[openTime]
	if !ok {
		return out
	}
	for _, t := range group.Buys {
		out.Buy[BucketKey(t.Price, bucketSize, multiplier)] += t.Quantity
	}
	for _, t := range group.Sells {
		out.Sell[BucketKey(t.Price, bucketSize, multiplier)] += t.Quantity
	}
	return out
}

// MaxBucketQuantity reports the largest single-bucket quantity across the
// given candles, used to scale footprint bars in a view.
func (f *Footprint) MaxBucketQuantity(openTimes []int64, bucketSize, multiplier float64) float64 {
	var max float64
	for _, ot := range openTimes {
		b := f.Buckets(ot, bucketSize, multiplier)
		for _, q := range b.Buy {
			if q > max {
				max = q
			}
		}
		for _, q := range b.Sell {
			if q > max {
				max = q
			}
		}
	}
	return max
}

func (f *Footprint) Len() int { return len(f.groups) }
