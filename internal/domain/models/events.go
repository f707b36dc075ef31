package models

// MarketEvent is one typed event decoded from a transport frame. The stream
// decoder produces exactly one of the concrete kinds below per frame; the
// collector dispatches on the concrete type.
type MarketEvent interface {
	eventKind() string
}

// TradeEvent carries one trade print from the live stream.
type TradeEvent struct {
	Trade Trade
}

// DepthEvent carries one incremental book delta frame.
type DepthEvent struct {
	Update DepthUpdate
}

// KlineEvent carries one candle tick. The feed repeats the same OpenTime
// while the candle is open and moves to a new OpenTime when it closes.
type KlineEvent struct {
	Candle RawCandle
}

func (TradeEvent) eventKind() string { return "trade" }
func (DepthEvent) eventKind() string { return "depth" }
func (KlineEvent) eventKind() string { return "kline" }
