package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level         string `yaml:"level" default:"info"`
		Format        string `yaml:"format" default:"console"`
		Output        string `yaml:"output" default:"stdout"`
		ErrorRingSize int    `yaml:"error_ring_size" default:"32"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Binance struct {
		WebSocketURL      string        `yaml:"websocket_url" default:"wss://fstream.binance.com"`
		RestURL           string        `yaml:"rest_url" default:"https://fapi.binance.com"`
		Symbol            string        `yaml:"symbol" default:"btcusdt"`
		KlineInterval     string        `yaml:"kline_interval" default:"1m"`
		BackfillKlines    int           `yaml:"backfill_klines" default:"60"`
		BackfillTrades    bool          `yaml:"backfill_trades" default:"true"`
		TradePageLimit    int           `yaml:"trade_page_limit" default:"1000"`
		DepthLimit        int           `yaml:"depth_limit" default:"1000"`
		DepthPollInterval time.Duration `yaml:"depth_poll_interval" default:"12s"`
		OIPollInterval    time.Duration `yaml:"oi_poll_interval" default:"60s"`
		OIHistPeriod      string        `yaml:"oi_hist_period" default:"5m"`
		OIHistLimit       int           `yaml:"oi_hist_limit" default:"12"`
		ReconnectDelay    time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval      time.Duration `yaml:"ping_interval" default:"30s"`
		RequestTimeout    time.Duration `yaml:"request_timeout" default:"10s"`
		RequestsPerSec    float64       `yaml:"requests_per_sec" default:"2.5"`
	} `yaml:"binance"`
	Chart struct {
		BucketSize      float64       `yaml:"bucket_size" default:"0.5"`
		BucketMult      float64       `yaml:"bucket_mult" default:"100"`
		TickSize        float64       `yaml:"tick_size" default:"0.1"`
		SentimentWindow time.Duration `yaml:"sentiment_window" default:"30s"`
		TickerCacheTTL  time.Duration `yaml:"ticker_cache_ttl" default:"30s"`
	} `yaml:"chart"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DEPTHVIEW_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("DEPTHVIEW_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("DEPTHVIEW_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DEPTHVIEW_SYMBOL"); v != "" {
		c.Binance.Symbol = v
	}
	if v := os.Getenv("DEPTHVIEW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return c, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Binance.WebSocketURL == "" {
		return fmt.Errorf("binance.websocket_url is required")
	}
	if c.Binance.RestURL == "" {
		return fmt.Errorf("binance.rest_url is required")
	}
	if c.Binance.Symbol == "" {
		return fmt.Errorf("binance.symbol is required")
	}
	if c.Chart.BucketSize <= 0 {
		return fmt.Errorf("chart.bucket_size must be positive")
	}
	if c.Chart.BucketMult <= 0 {
		return fmt.Errorf("chart.bucket_mult must be positive")
	}
	if c.Chart.SentimentWindow <= 0 {
		return fmt.Errorf("chart.sentiment_window must be positive")
	}
	return nil
}
