package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memEntry struct {
	value    interface{}
	expireAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache is a process-local Service used when Redis is not
// configured. Entries past their TTL are dropped lazily on access and
// by a periodic sweep; when the entry cap is hit the entry closest to
// expiry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	max     int
	done    chan struct{}
}

const memDefaultTTL = 24 * time.Hour

// NewMemoryCache creates an in-memory cache and starts its sweeper.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxEntries:    1000,
		SweepInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]memEntry),
		max:     cfg.MaxEntries,
		done:    make(chan struct{}),
	}
	go mc.sweep(cfg.SweepInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = memDefaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.max {
		mc.evictOne()
	}
	mc.entries[key] = memEntry{value: value, expireAt: time.Now().Add(ttl)}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok {
		return ErrCacheMiss
	}
	if e.expired(time.Now()) {
		delete(mc.entries, key)
		return ErrCacheMiss
	}

	switch d := dest.(type) {
	case *string:
		s, ok := e.value.(string)
		if !ok {
			return fmt.Errorf("cache: value for %q is not a string", key)
		}
		*d = s
	case *interface{}:
		*d = e.value
	default:
		return fmt.Errorf("cache: unsupported destination type %T", dest)
	}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := time.Now()
	for _, key := range keys {
		if e, ok := mc.entries[key]; ok && !e.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if e, ok := mc.entries[key]; ok && !e.expired(time.Now()) {
		return false, nil
	}
	mc.entries[key] = memEntry{value: "locked", expireAt: time.Now().Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Close stops the background sweeper.
func (mc *MemoryCache) Close() error {
	close(mc.done)
	return nil
}

// evictOne removes the entry closest to expiry. Caller holds mu.
func (mc *MemoryCache) evictOne() {
	var victim string
	var soonest time.Time
	for key, e := range mc.entries {
		if victim == "" || e.expireAt.Before(soonest) {
			victim = key
			soonest = e.expireAt
		}
	}
	if victim != "" {
		delete(mc.entries, victim)
	}
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-mc.done:
			return
		case now := <-ticker.C:
			mc.mu.Lock()
			for key, e := range mc.entries {
				if e.expired(now) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

var _ Service = (*MemoryCache)(nil)
