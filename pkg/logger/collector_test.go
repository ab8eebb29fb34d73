package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]Entry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]Entry))
	return nil
}

func (p *capturePublisher) all() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Entry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(&CollectorConfig{
		FlushInterval: time.Hour, // flush only on Close
		Topic:         "logs",
		Publisher:     pub,
	})

	for i := 0; i < 5; i++ {
		c.Record("error", "broker unreachable", "feed/client.go:42", nil)
	}
	c.Record("error", "bad row", "repository/csv_bar_source.go:90", nil)
	c.Close()

	entries := pub.all()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		switch e.Message {
		case "broker unreachable":
			if e.Count != 5 {
				t.Fatalf("count = %d, want 5", e.Count)
			}
		case "bad row":
			if e.Count != 1 {
				t.Fatalf("count = %d, want 1", e.Count)
			}
		default:
			t.Fatalf("unexpected entry %q", e.Message)
		}
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewCollector(&CollectorConfig{
		FlushInterval: time.Hour,
		MaxEntries:    2,
		Topic:         "logs",
		Publisher:     pub,
	})
	defer c.Close()

	c.Record("error", "a", "x.go:1", nil)
	c.Record("error", "b", "x.go:2", nil)

	pub.mu.Lock()
	n := len(pub.batches)
	pub.mu.Unlock()
	if n != 1 {
		t.Fatalf("batches = %d, want 1 after hitting threshold", n)
	}
}
