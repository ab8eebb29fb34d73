package logger

import (
	"context"
	"sync"
	"time"
)

// Publisher delivers a batch of aggregated log entries to a topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectorConfig controls batching of repeated error logs.
type CollectorConfig struct {
	FlushInterval time.Duration // periodic flush, defaults to 30s
	MaxEntries    int           // flush early past this many distinct entries, defaults to 100
	Topic         string
	Publisher     Publisher
}

// Entry is one deduplicated error log with its occurrence window.
type Entry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector deduplicates error logs by call site and message, then
// ships them in batches through the configured Publisher. A burst of
// identical errors (a flapping broker, a bad symbol in a loop) becomes
// one entry with a count instead of thousands of messages.
type Collector struct {
	cfg     CollectorConfig
	mu      sync.Mutex
	entries map[string]*Entry
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewCollector(cfg *CollectorConfig) *Collector {
	c := &Collector{cfg: *cfg, entries: make(map[string]*Entry), done: make(chan struct{})}
	if c.cfg.FlushInterval <= 0 {
		c.cfg.FlushInterval = 30 * time.Second
	}
	if c.cfg.MaxEntries <= 0 {
		c.cfg.MaxEntries = 100
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

// Record adds one occurrence. Entries are keyed by level, message and
// caller; fields of the first occurrence are kept.
func (c *Collector) Record(level, msg, caller string, fields map[string]interface{}) {
	now := time.Now()
	key := level + "|" + msg + "|" + caller

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &Entry{
			Level: level, Message: msg, Caller: caller, Fields: fields,
			Count: 1, FirstSeen: now, LastSeen: now,
		}
	}
	var batch []Entry
	if len(c.entries) >= c.cfg.MaxEntries {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	c.publish(batch)
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.FlushInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	c.publish(batch)
}

func (c *Collector) drainLocked() []Entry {
	if len(c.entries) == 0 {
		return nil
	}
	batch := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	c.entries = make(map[string]*Entry)
	return batch
}

func (c *Collector) publish(batch []Entry) {
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Best effort: the collector must never block or fail logging.
	_ = c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch)
}

// Close flushes remaining entries and stops the flush loop.
func (c *Collector) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.wg.Wait()
}
