package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"DepthView/internal/domain/models"
	drepo "DepthView/internal/domain/repository"
	"DepthView/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements a MarketStream backed by the Binance futures combined
// WebSocket. One connection carries the aggTrade, depth diff and 1m kline
// streams for a single symbol.
type Stream struct {
	websocketURL   string
	klineInterval  string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger
	metrics        drepo.Metrics

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	symbol     string
	pingActive bool
}

// NewStream creates a new Binance MarketStream.
func NewStream(websocketURL, klineInterval string, reconnectDelay, pingInterval time.Duration, log *logger.Logger, metrics drepo.Metrics) drepo.MarketStream {
	return &Stream{
		websocketURL:   websocketURL,
		klineInterval:  klineInterval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		metrics:        metrics,
	}
}

// Connect establishes the combined-stream connection for symbol.
func (s *Stream) Connect(ctx context.Context, symbol string) error {
	sym := strings.ToLower(symbol)
	u := fmt.Sprintf("%s/stream?streams=%s@aggTrade/%s@depth@100ms/%s@kline_%s",
		s.websocketURL, sym, sym, sym, s.klineInterval)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}

	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.connected = true
	s.symbol = symbol
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	s.log.Info("binance: connected", logger.String("symbol", symbol))
	return nil
}

func (s *Stream) currentConn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Events streams decoded market events and errors. The error channel carries
// at most one terminal error; malformed frames are logged and skipped. The
// shared ping loop starts on the first call and lives until ctx ends, so
// reconnects within a session do not stack pingers.
func (s *Stream) Events(ctx context.Context) (<-chan models.MarketEvent, <-chan error) {
	events := make(chan models.MarketEvent, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	startPinger := !s.pingActive
	if startPinger {
		s.pingActive = true
	}
	s.mu.Unlock()
	if startPinger {
		go s.pingLoop(ctx)
	}

	// read loop
	go func() {
		defer close(events)
		defer close(errs)

		conn := s.currentConn()
		if conn == nil {
			errs <- fmt.Errorf("binance conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				ev, err := decodeFrame(b)
				if err != nil {
					s.metrics.RecordError("decode")
					s.log.Warn("binance: dropped frame", logger.Error(err))
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, errs
}

func (s *Stream) pingLoop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.pingActive = false
		s.mu.Unlock()
	}()
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := s.currentConn(); conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Reconnect closes and re-establishes the connection for the last symbol.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	s.mu.Lock()
	symbol := s.symbol
	s.mu.Unlock()
	return s.Connect(ctx, symbol)
}

// Close closes the connection. Safe to call concurrently with a read loop;
// the reader fails its next ReadMessage and reports through its error
// channel.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports connection state.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && s.conn != nil
}
