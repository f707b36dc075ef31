package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DepthView/pkg/logger"

	"github.com/gorilla/websocket"
)

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)              {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordFrameSkip()                {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// newWSServer upgrades every request and holds the connection open until the
// client goes away.
func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestStream(t *testing.T, srv *httptest.Server) *Stream {
	t.Helper()
	s := NewStream(wsURL(srv), "1m", time.Millisecond, 10*time.Millisecond, testLogger(t), nopMetrics{})
	return s.(*Stream)
}

func TestStreamEventsWithoutConnection(t *testing.T) {
	srv := newWSServer(t)
	s := newTestStream(t, srv)

	events, errs := s.Events(context.Background())
	if err := <-errs; err == nil {
		t.Fatal("expected an error for a stream that never connected")
	}
	if _, ok := <-events; ok {
		t.Fatal("events channel should be closed")
	}
}

func TestStreamCloseDuringRead(t *testing.T) {
	srv := newWSServer(t)
	s := newTestStream(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Connect(ctx, "btcusdt"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !s.IsConnected() {
		t.Fatal("IsConnected = false after Connect")
	}

	events, errs := s.Events(ctx)

	// Close while the read loop is blocked on the socket. The loop must fail
	// its read and shut both channels down rather than crash.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.IsConnected() {
		t.Fatal("IsConnected = true after Close")
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected a read error after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not report after Close")
	}
	if _, ok := <-events; ok {
		t.Fatal("events channel should be closed")
	}

	// A second Close is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestStreamSinglePingerAcrossReconnects(t *testing.T) {
	srv := newWSServer(t)
	s := newTestStream(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Connect(ctx, "btcusdt"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Two Events calls within one session, as a reconnect produces.
	_, errs1 := s.Events(ctx)
	if err := s.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	<-errs1
	_, errs2 := s.Events(ctx)

	s.mu.Lock()
	active := s.pingActive
	s.mu.Unlock()
	if !active {
		t.Fatal("pinger not running during session")
	}

	cancel()
	_ = s.Close()
	<-errs2

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		active := s.pingActive
		s.mu.Unlock()
		if !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pinger still running after session end")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
