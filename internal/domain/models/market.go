package models

// Trade is a single aggregated trade print.
// SellerInitiated mirrors the exchange's buyer-is-maker flag: when the buyer
// was the resting order, the aggressor was a seller.
type Trade struct {
	Price           float64 `json:"price"`
	Quantity        float64 `json:"quantity"`
	Time            int64   `json:"time"` // epoch millis
	SellerInitiated bool    `json:"seller_initiated"`
}

// PriceLevel is one resting level of the order book. Quantity is absolute
// size; a level with quantity zero does not exist.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// DepthSnapshot is a full two-sided book snapshot as served by the REST depth
// endpoint.
type DepthSnapshot struct {
	Bids         []PriceLevel
	Asks         []PriceLevel
	LastUpdateID int64
}

// DepthUpdate is one incremental book delta frame. Quantity zero means the
// level was removed.
type DepthUpdate struct {
	Bids []PriceLevel
	Asks []PriceLevel
	Time int64 // event time, epoch millis
}

// RawCandle is a candle tick as decoded from the feed or from kline backfill,
// before the CVD fold has run over it.
type RawCandle struct {
	OpenTime  int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	BuyVolume float64
	CloseTime int64
}

// Candle is a fixed-interval OHLCV aggregate with the derived order-flow
// statistic. CVD is the running buy-minus-sell volume total across all
// candles up to and including this one.
type Candle struct {
	OpenTime   int64   `json:"open_time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`
	CVD        float64 `json:"cvd"`
	CloseTime  int64   `json:"close_time"`
}

// FootprintTrade is one raw (price, quantity) pair retained for query-time
// bucketing. The side is implied by which list it sits in.
type FootprintTrade struct {
	Price    float64
	Quantity float64
}

// TradeGroup holds the raw buyer- and seller-initiated trades of one candle.
type TradeGroup struct {
	Buys  []FootprintTrade
	Sells []FootprintTrade
}

// FootprintBuckets is the query-time view of a TradeGroup: traded quantity
// accumulated per integer price-bucket key.
type FootprintBuckets struct {
	OpenTime int64             `json:"open_time"`
	Buy      map[int64]float64 `json:"buy"`
	Sell     map[int64]float64 `json:"sell"`
}

// OpenInterestPoint is one (time, value) sample of the open-interest series.
type OpenInterestPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// CountPoint is a per-update trade count keyed by its arrival timestamp.
type CountPoint struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// SentimentSnapshot is the windowed order-flow view: retained trades plus
// buy/sell counts per update, all pruned to the configured window.
type SentimentSnapshot struct {
	Trades     []Trade      `json:"trades"`
	BuyCounts  []CountPoint `json:"buy_counts"`
	SellCounts []CountPoint `json:"sell_counts"`
	MaxCount   int          `json:"max_count"`
}

// Extrema are the pan/zoom-independent bounds a view needs to scale itself,
// computed over the caller-supplied visible range only.
type Extrema struct {
	PriceMin    float64 `json:"price_min"`
	PriceMax    float64 `json:"price_max"`
	MaxQuantity float64 `json:"max_quantity"`
	MaxVolume   float64 `json:"max_volume"`
}

// RenderModel is one self-contained frame for the presentation layer. All
// slices and maps are copies; the engine keeps no reference to them after the
// snapshot returns.
type RenderModel struct {
	Symbol       string              `json:"symbol"`
	Candles      []Candle            `json:"candles"`
	Bids         []PriceLevel        `json:"bids"`
	Asks         []PriceLevel        `json:"asks"`
	Footprints   []FootprintBuckets  `json:"footprints"`
	OpenInterest []OpenInterestPoint `json:"open_interest"`
	Extrema      Extrema             `json:"extrema"`
	BucketSize   float64             `json:"bucket_size"`
	TickSize     float64             `json:"tick_size"`
}

// SymbolFilters are the per-instrument exchange filters the chart needs.
type SymbolFilters struct {
	Symbol   string  `json:"symbol"`
	TickSize float64 `json:"tick_size"`
	MinQty   float64 `json:"min_qty"`
}

// TickerOverview is one row of the instrument picker: premium-index and 24h
// turnover data combined per symbol.
type TickerOverview struct {
	Symbol          string  `json:"symbol"`
	LastPrice       float64 `json:"last_price"`
	MarkPrice       float64 `json:"mark_price"`
	FundingRate     float64 `json:"funding_rate"` // percent
	NextFundingTime int64   `json:"next_funding_time"`
	Change          float64 `json:"change"` // 24h percent
	QuoteVolume     float64 `json:"quote_volume"`
}
