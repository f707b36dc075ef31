package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"DepthView/internal/domain/models"
)

// The combined stream wraps every payload in {"stream": ..., "data": ...}.
type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type wsAggTrade struct {
	Price      string `json:"p"`
	Quantity   string `json:"q"`
	TradeTime  int64  `json:"T"`
	BuyerMaker bool   `json:"m"`
}

type wsDepthUpdate struct {
	TransactTime int64      `json:"T"`
	Bids         [][]string `json:"b"`
	Asks         [][]string `json:"a"`
}

type wsKline struct {
	Kline struct {
		OpenTime  int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		BuyVolume string `json:"V"` // taker buy base volume
	} `json:"k"`
}

// decodeFrame turns one raw websocket frame into a typed market event.
// Malformed frames fail as a whole; malformed entries inside a depth frame
// are skipped individually by parseLevels.
func decodeFrame(b []byte) (models.MarketEvent, error) {
	var frame combinedFrame
	if err := json.Unmarshal(b, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch {
	case strings.Contains(frame.Stream, "aggTrade"):
		return decodeAggTrade(frame.Data)
	case strings.Contains(frame.Stream, "depth"):
		return decodeDepth(frame.Data)
	case strings.Contains(frame.Stream, "kline"):
		return decodeKline(frame.Data)
	default:
		return nil, fmt.Errorf("unknown stream %q", frame.Stream)
	}
}

func decodeAggTrade(data json.RawMessage) (models.MarketEvent, error) {
	var raw wsAggTrade
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode aggTrade: %w", err)
	}
	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("aggTrade price %q: %w", raw.Price, err)
	}
	quantity, err := strconv.ParseFloat(raw.Quantity, 64)
	if err != nil {
		return nil, fmt.Errorf("aggTrade quantity %q: %w", raw.Quantity, err)
	}
	return models.TradeEvent{Trade: models.Trade{
		Price:           price,
		Quantity:        quantity,
		Time:            raw.TradeTime,
		SellerInitiated: raw.BuyerMaker,
	}}, nil
}

func decodeDepth(data json.RawMessage) (models.MarketEvent, error) {
	var raw wsDepthUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode depth: %w", err)
	}
	return models.DepthEvent{Update: models.DepthUpdate{
		Bids: parseLevels(raw.Bids),
		Asks: parseLevels(raw.Asks),
		Time: raw.TransactTime,
	}}, nil
}

func decodeKline(data json.RawMessage) (models.MarketEvent, error) {
	var raw wsKline
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode kline: %w", err)
	}
	k := raw.Kline
	if k.OpenTime == 0 || k.CloseTime == 0 {
		return nil, fmt.Errorf("kline missing times")
	}
	rc := models.RawCandle{OpenTime: k.OpenTime, CloseTime: k.CloseTime}
	// A candle with any unparsable numeric field is dropped entirely, never
	// partially inserted.
	fields := []struct {
		src string
		dst *float64
	}{
		{k.Open, &rc.Open},
		{k.High, &rc.High},
		{k.Low, &rc.Low},
		{k.Close, &rc.Close},
		{k.Volume, &rc.Volume},
		{k.BuyVolume, &rc.BuyVolume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return nil, fmt.Errorf("kline field %q: %w", f.src, err)
		}
		*f.dst = v
	}
	return models.KlineEvent{Candle: rc}, nil
}

// parseLevels converts [price, quantity] string pairs, skipping malformed
// entries individually so one bad level never aborts the batch.
func parseLevels(raw [][]string) []models.PriceLevel {
	out := make([]models.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if lvl, ok := parseLevel(pair); ok {
			out = append(out, lvl)
		}
	}
	return out
}

func parseLevel(pair []string) (models.PriceLevel, bool) {
	if len(pair) < 2 {
		return models.PriceLevel{}, false
	}
	price, err := strconv.ParseFloat(pair[0], 64)
	if err != nil {
		return models.PriceLevel{}, false
	}
	quantity, err := strconv.ParseFloat(pair[1], 64)
	if err != nil {
		return models.PriceLevel{}, false
	}
	return models.PriceLevel{Price: price, Quantity: quantity}, true
}
