package logger

import (
	"fmt"
	"testing"
)

func TestErrorCollectorDedupsRepeats(t *testing.T) {
	c := NewErrorCollector(8)
	c.Record("error", "depth snapshot failed")
	c.Record("warn", "decode frame")
	c.Record("error", "depth snapshot failed")

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	recent := c.Recent()
	// The repeated entry moves to the tail with a bumped count.
	last := recent[len(recent)-1]
	if last.Message != "depth snapshot failed" || last.Count != 2 {
		t.Fatalf("tail = %+v, want depth snapshot failed with count 2", last)
	}
	if last.LastSeen.Before(last.FirstSeen) {
		t.Fatalf("LastSeen %v before FirstSeen %v", last.LastSeen, last.FirstSeen)
	}
}

func TestErrorCollectorEvictsOldestFirst(t *testing.T) {
	c := NewErrorCollector(3)
	for i := 0; i < 5; i++ {
		c.Record("error", fmt.Sprintf("failure %d", i))
	}
	recent := c.Recent()
	if len(recent) != 3 {
		t.Fatalf("len = %d, want 3", len(recent))
	}
	for i, want := range []string{"failure 2", "failure 3", "failure 4"} {
		if recent[i].Message != want {
			t.Fatalf("recent[%d] = %q, want %q", i, recent[i].Message, want)
		}
	}
}

func TestErrorCollectorRecentReturnsCopies(t *testing.T) {
	c := NewErrorCollector(4)
	c.Record("warn", "slow request")
	recent := c.Recent()
	recent[0].Count = 99
	if got := c.Recent()[0].Count; got != 1 {
		t.Fatalf("count after mutating copy = %d, want 1", got)
	}
}

func TestErrorCollectorDefaultCapacity(t *testing.T) {
	c := NewErrorCollector(0)
	for i := 0; i < 40; i++ {
		c.Record("error", fmt.Sprintf("failure %d", i))
	}
	if c.Len() != 32 {
		t.Fatalf("Len = %d, want 32", c.Len())
	}
}

func TestLoggerFeedsCollector(t *testing.T) {
	base, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := NewErrorCollector(8)
	l := base.WithCollector(c)

	l.Error("stream read failed", String("symbol", "btcusdt"))
	l.Warn("frame dropped")
	l.Info("started")

	recent := c.Recent()
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2 (info must not be collected)", len(recent))
	}
	if recent[0].Level != "error" || recent[0].Message != "stream read failed" {
		t.Fatalf("recent[0] = %+v", recent[0])
	}
	if recent[1].Level != "warn" || recent[1].Message != "frame dropped" {
		t.Fatalf("recent[1] = %+v", recent[1])
	}
}
