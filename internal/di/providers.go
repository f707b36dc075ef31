package di

import (
	"fmt"

	"DepthView/internal/domain/repository"
	"DepthView/internal/handler/api"
	"DepthView/internal/market"
	"DepthView/internal/service/binance"
	icache "DepthView/internal/service/cache"
	"DepthView/internal/service/ratelimit"
	"DepthView/internal/usecase"
	"DepthView/pkg/config"
	xhttp "DepthView/pkg/http"
	applogger "DepthView/pkg/logger"
	"DepthView/pkg/metrics"
	"DepthView/pkg/server"
)

// ProvideErrorCollector creates the bounded ring of recent warn/error entries.
func ProvideErrorCollector(cfg *config.Config) *applogger.ErrorCollector {
	return applogger.NewErrorCollector(cfg.Logging.ErrorRingSize)
}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config, ec *applogger.ErrorCollector) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.WithCollector(ec), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the in-process TTL cache.
func ProvideCache() icache.BytesCache {
	return icache.NewTTLCache()
}

// ProvideLimiter creates the shared REST rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPClient creates the REST HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Binance.RequestTimeout))
}

// ProvideHistory creates the Binance REST History client.
func ProvideHistory(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, c icache.BytesCache) repository.History {
	return binance.NewREST(
		cfg.Binance.RestURL,
		client,
		limiter,
		c,
		cfg.Binance.RequestsPerSec,
		cfg.Chart.TickerCacheTTL,
	)
}

// ProvideStream creates the Binance WebSocket stream.
func ProvideStream(cfg *config.Config, log *applogger.Logger, m repository.Metrics) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.KlineInterval,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
		log,
		m,
	)
}

// ProvideCoordinator creates the market state coordinator.
func ProvideCoordinator(cfg *config.Config, log *applogger.Logger, m repository.Metrics) *market.Coordinator {
	return market.NewCoordinator(market.Config{
		Symbol:          cfg.Binance.Symbol,
		BucketSize:      cfg.Chart.BucketSize,
		BucketMult:      cfg.Chart.BucketMult,
		TickSize:        cfg.Chart.TickSize,
		SentimentWindow: cfg.Chart.SentimentWindow,
	}, log, m)
}

// ProvideBackfill creates the backfill usecase.
func ProvideBackfill(history repository.History, coord *market.Coordinator, cfg *config.Config, log *applogger.Logger) *usecase.Backfill {
	return usecase.NewBackfill(history, coord, cfg, log)
}

// ProvideCollector creates the ingestion collector.
func ProvideCollector(
	stream repository.MarketStream,
	history repository.History,
	coord *market.Coordinator,
	backfill *usecase.Backfill,
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.Collector {
	return usecase.NewCollector(stream, history, coord, backfill, cfg, log, m)
}

// ProvideChart creates the chart query usecase.
func ProvideChart(coord *market.Coordinator, collector *usecase.Collector, cfg *config.Config) *usecase.Chart {
	return usecase.NewChart(coord, collector, cfg.Binance.KlineInterval)
}

// ProvideTickers creates the ticker overview usecase.
func ProvideTickers(history repository.History) *usecase.Tickers {
	return usecase.NewTickers(history)
}

// ProvideHandler creates the Echo route handler.
func ProvideHandler(log *applogger.Logger, chart *usecase.Chart, tickers *usecase.Tickers, ec *applogger.ErrorCollector) xhttp.Handler {
	return api.NewChartHandler(log, chart, tickers, ec)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *applogger.Logger, collector *usecase.Collector, handler xhttp.Handler) *server.App {
	return server.New(cfg, log, collector, handler)
}
