package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"DepthView/internal/domain/models"
	drepo "DepthView/internal/domain/repository"
	"DepthView/internal/service/cache"
	"DepthView/internal/service/ratelimit"
	xhttp "DepthView/pkg/http"
)

const (
	restKey         = "binance_rest"
	exchangeInfoKey = "exchange_info"
	exchangeInfoTTL = time.Hour
	limiterBurst    = 5
)

// REST implements History against the Binance futures REST API.
type REST struct {
	baseURL   string
	http      *xhttp.Client
	limiter   *ratelimit.Limiter
	cache     cache.BytesCache
	rps       float64
	tickerTTL time.Duration
}

// NewREST creates a new Binance History client.
func NewREST(baseURL string, client *xhttp.Client, limiter *ratelimit.Limiter, c cache.BytesCache, requestsPerSec float64, tickerTTL time.Duration) drepo.History {
	return &REST{
		baseURL:   baseURL,
		http:      client,
		limiter:   limiter,
		cache:     c,
		rps:       requestsPerSec,
		tickerTTL: tickerTTL,
	}
}

// wait blocks until the shared rate limit grants a token or ctx ends.
func (r *REST) wait(ctx context.Context) error {
	for !r.limiter.Allow(restKey, limiterBurst, r.rps) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func (r *REST) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         r.baseURL + path,
		QueryParams: params,
	}, dest)
}

// Klines fetches historical candles. Rows with any unparsable field are
// dropped whole rather than partially decoded.
func (r *REST) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.RawCandle, error) {
	var rows [][]json.RawMessage
	err := r.get(ctx, "/fapi/v1/klines", map[string][]string{
		"symbol":   {strings.ToUpper(symbol)},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("klines: %w", err)
	}

	out := make([]models.RawCandle, 0, len(rows))
	for _, row := range rows {
		if rc, err := parseKlineRow(row); err == nil {
			out = append(out, rc)
		}
	}
	return out, nil
}

// parseKlineRow decodes a positional kline row:
// [openTime, open, high, low, close, volume, closeTime, _, _, takerBuyVolume, ...]
func parseKlineRow(row []json.RawMessage) (models.RawCandle, error) {
	if len(row) < 10 {
		return models.RawCandle{}, fmt.Errorf("short kline row: %d", len(row))
	}
	var rc models.RawCandle
	if err := json.Unmarshal(row[0], &rc.OpenTime); err != nil {
		return models.RawCandle{}, err
	}
	if err := json.Unmarshal(row[6], &rc.CloseTime); err != nil {
		return models.RawCandle{}, err
	}
	fields := []struct {
		idx int
		dst *float64
	}{
		{1, &rc.Open}, {2, &rc.High}, {3, &rc.Low}, {4, &rc.Close},
		{5, &rc.Volume}, {9, &rc.BuyVolume},
	}
	for _, f := range fields {
		var s string
		if err := json.Unmarshal(row[f.idx], &s); err != nil {
			return models.RawCandle{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.RawCandle{}, err
		}
		*f.dst = v
	}
	return rc, nil
}

type restDepth struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// DepthSnapshot fetches a full order book snapshot.
func (r *REST) DepthSnapshot(ctx context.Context, symbol string, limit int) (*models.DepthSnapshot, error) {
	var raw restDepth
	err := r.get(ctx, "/fapi/v1/depth", map[string][]string{
		"symbol": {strings.ToUpper(symbol)},
		"limit":  {strconv.Itoa(limit)},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("depth snapshot: %w", err)
	}
	return &models.DepthSnapshot{
		Bids:         parseLevels(raw.Bids),
		Asks:         parseLevels(raw.Asks),
		LastUpdateID: raw.LastUpdateID,
	}, nil
}

type restAggTrade struct {
	Price      string `json:"p"`
	Quantity   string `json:"q"`
	TradeTime  int64  `json:"T"`
	BuyerMaker bool   `json:"m"`
}

// AggTrades fetches historical aggregate trades for [startTime, endTime].
// Malformed entries are skipped individually.
func (r *REST) AggTrades(ctx context.Context, symbol string, startTime, endTime int64, limit int) ([]models.Trade, error) {
	var raw []restAggTrade
	err := r.get(ctx, "/fapi/v1/aggTrades", map[string][]string{
		"symbol":    {strings.ToUpper(symbol)},
		"startTime": {strconv.FormatInt(startTime, 10)},
		"endTime":   {strconv.FormatInt(endTime, 10)},
		"limit":     {strconv.Itoa(limit)},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("agg trades: %w", err)
	}

	out := make([]models.Trade, 0, len(raw))
	for _, t := range raw {
		price, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			continue
		}
		quantity, err := strconv.ParseFloat(t.Quantity, 64)
		if err != nil {
			continue
		}
		out = append(out, models.Trade{
			Price:           price,
			Quantity:        quantity,
			Time:            t.TradeTime,
			SellerInitiated: t.BuyerMaker,
		})
	}
	return out, nil
}

type restOpenInterest struct {
	OpenInterest string `json:"openInterest"`
	Time         int64  `json:"time"`
}

// OpenInterest fetches the current open interest for symbol.
func (r *REST) OpenInterest(ctx context.Context, symbol string) (*models.OpenInterestPoint, error) {
	var raw restOpenInterest
	err := r.get(ctx, "/fapi/v1/openInterest", map[string][]string{
		"symbol": {strings.ToUpper(symbol)},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("open interest: %w", err)
	}
	v, err := strconv.ParseFloat(raw.OpenInterest, 64)
	if err != nil {
		return nil, fmt.Errorf("open interest value %q: %w", raw.OpenInterest, err)
	}
	return &models.OpenInterestPoint{Time: raw.Time, Value: v}, nil
}

type restOpenInterestHist struct {
	SumOpenInterest string `json:"sumOpenInterest"`
	Timestamp       int64  `json:"timestamp"`
}

// OpenInterestHist fetches the historical open interest series.
func (r *REST) OpenInterestHist(ctx context.Context, symbol, period string, limit int) ([]models.OpenInterestPoint, error) {
	var raw []restOpenInterestHist
	err := r.get(ctx, "/futures/data/openInterestHist", map[string][]string{
		"symbol": {strings.ToUpper(symbol)},
		"period": {period},
		"limit":  {strconv.Itoa(limit)},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("open interest hist: %w", err)
	}

	out := make([]models.OpenInterestPoint, 0, len(raw))
	for _, p := range raw {
		v, err := strconv.ParseFloat(p.SumOpenInterest, 64)
		if err != nil {
			continue
		}
		out = append(out, models.OpenInterestPoint{Time: p.Timestamp, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

type restExchangeInfo struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType string `json:"filterType"`
			TickSize   string `json:"tickSize"`
			MinQty     string `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

// SymbolFilters looks up tick size and minimum quantity from exchangeInfo.
// The raw exchangeInfo payload is cached because it is large and changes
// rarely.
func (r *REST) SymbolFilters(ctx context.Context, symbol string) (*models.SymbolFilters, error) {
	var body []byte
	if b, ok, err := r.cache.GetBytes(exchangeInfoKey); err == nil && ok {
		body = b
	} else {
		if err := r.get(ctx, "/fapi/v1/exchangeInfo", nil, &body); err != nil {
			return nil, fmt.Errorf("exchange info: %w", err)
		}
		_ = r.cache.SetBytes(exchangeInfoKey, body, exchangeInfoTTL)
	}

	var info restExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode exchange info: %w", err)
	}

	want := strings.ToUpper(symbol)
	for _, s := range info.Symbols {
		if s.Symbol != want {
			continue
		}
		out := &models.SymbolFilters{Symbol: want}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				if v, err := strconv.ParseFloat(f.TickSize, 64); err == nil {
					out.TickSize = v
				}
			case "LOT_SIZE":
				if v, err := strconv.ParseFloat(f.MinQty, 64); err == nil {
					out.MinQty = v
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("symbol %s not found in exchange info", want)
}

type restPremiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

type restTicker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// TickerOverview combines the premium index and 24h ticker feeds into one
// per-symbol overview, cached for the configured TTL.
func (r *REST) TickerOverview(ctx context.Context) ([]models.TickerOverview, error) {
	const key = "ticker_overview"
	if b, ok, err := r.cache.GetBytes(key); err == nil && ok {
		var cached []models.TickerOverview
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	var premium []restPremiumIndex
	if err := r.get(ctx, "/fapi/v1/premiumIndex", nil, &premium); err != nil {
		return nil, fmt.Errorf("premium index: %w", err)
	}
	var tickers []restTicker24h
	if err := r.get(ctx, "/fapi/v1/ticker/24hr", nil, &tickers); err != nil {
		return nil, fmt.Errorf("ticker 24hr: %w", err)
	}

	bymark := make(map[string]restPremiumIndex, len(premium))
	for _, p := range premium {
		bymark[p.Symbol] = p
	}

	out := make([]models.TickerOverview, 0, len(tickers))
	for _, t := range tickers {
		p, ok := bymark[t.Symbol]
		if !ok {
			continue
		}
		overview := models.TickerOverview{
			Symbol:          t.Symbol,
			LastPrice:       parseFloatDefault(t.LastPrice),
			Change:          parseFloatDefault(t.PriceChangePercent),
			QuoteVolume:     parseFloatDefault(t.QuoteVolume),
			MarkPrice:       parseFloatDefault(p.MarkPrice),
			FundingRate:     parseFloatDefault(p.LastFundingRate),
			NextFundingTime: p.NextFundingTime,
		}
		out = append(out, overview)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })

	if b, err := json.Marshal(out); err == nil {
		_ = r.cache.SetBytes(key, b, r.tickerTTL)
	}
	return out, nil
}

func parseFloatDefault(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
