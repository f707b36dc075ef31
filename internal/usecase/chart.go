package usecase

import (
	"time"

	"DepthView/internal/domain/models"
	"DepthView/internal/market"
	"DepthView/pkg/util"
)

// Chart is the query side of the engine: render frames and sentiment
// snapshots for the presentation layer, plus the runtime display settings.
type Chart struct {
	coord     *market.Coordinator
	collector *Collector
	interval  time.Duration
}

// NewChart creates a new Chart usecase. interval is the exchange kline
// interval the series runs on.
func NewChart(coord *market.Coordinator, collector *Collector, interval string) *Chart {
	return &Chart{
		coord:     coord,
		collector: collector,
		interval:  util.IntervalDuration(interval),
	}
}

// Snapshot builds one render frame for the visible range. from is aligned
// down to a candle boundary so the candle containing it is included; a zero
// to means now. A bucketSize of zero means the configured default. Returns
// market.ErrFrameSkipped when ingestion holds a guard; callers keep their
// previous frame.
func (u *Chart) Snapshot(from, to int64, bucketSize float64) (*models.RenderModel, error) {
	from = util.AlignMillis(from, u.interval)
	if to == 0 {
		to = time.Now().UnixMilli()
	}
	return u.coord.RenderSnapshot(from, to, bucketSize)
}

// Sentiment returns the rolling order-flow window.
func (u *Chart) Sentiment() (*models.SentimentSnapshot, error) {
	return u.coord.SentimentSnapshot()
}

// SwitchInstrument replaces the active symbol, tearing the session down and
// reseeding.
func (u *Chart) SwitchInstrument(symbol string) error {
	return u.collector.Switch(symbol)
}

// UpdateSettings changes the display parameters for subsequent frames.
// Zero values leave the current setting untouched.
func (u *Chart) UpdateSettings(bucketSize, tickSize float64) {
	if bucketSize > 0 {
		u.coord.SetBucketSize(bucketSize)
	}
	if tickSize > 0 {
		u.coord.SetTickSize(tickSize)
	}
}

// Symbol returns the active instrument.
func (u *Chart) Symbol() string {
	return u.coord.Symbol()
}

// IsConnected reports live stream health.
func (u *Chart) IsConnected() bool {
	return u.collector.IsConnected()
}
