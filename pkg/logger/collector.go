package logger

import (
	"sync"
	"time"
)

// ErrorRecord is one aggregated error kept by the collector. Repeats of the
// same level+message bump Count instead of taking another slot.
type ErrorRecord struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// ErrorCollector keeps a bounded ring of the most recent warn/error log
// entries so the health surface can report what ingestion has been dropping
// without anyone tailing logs. Oldest entries are evicted once the ring is
// full.
type ErrorCollector struct {
	mu       sync.RWMutex
	capacity int
	ring     []*ErrorRecord // oldest first
}

// NewErrorCollector creates a collector retaining up to capacity entries.
func NewErrorCollector(capacity int) *ErrorCollector {
	if capacity <= 0 {
		capacity = 32
	}
	return &ErrorCollector{capacity: capacity}
}

// Record adds one entry, aggregating repeats and evicting the oldest entry
// when the ring is full.
func (c *ErrorCollector) Record(level, message string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, rec := range c.ring {
		if rec.Level == level && rec.Message == message {
			rec.Count++
			rec.LastSeen = now
			// Move to the tail so eviction order stays oldest-first.
			c.ring = append(append(c.ring[:i], c.ring[i+1:]...), rec)
			return
		}
	}

	if len(c.ring) >= c.capacity {
		c.ring = c.ring[1:]
	}
	c.ring = append(c.ring, &ErrorRecord{
		Level:     level,
		Message:   message,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	})
}

// Recent returns a copy of the retained entries, oldest first.
func (c *ErrorCollector) Recent() []ErrorRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ErrorRecord, 0, len(c.ring))
	for _, rec := range c.ring {
		out = append(out, *rec)
	}
	return out
}

// Len returns the number of retained entries.
func (c *ErrorCollector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ring)
}
