package ratelimit

import (
	"testing"
	"time"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("request %d denied within capacity", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatalf("request allowed past capacity with zero refill")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first request on key a denied")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("key a not exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("key b affected by key a")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 1) {
		t.Fatalf("first request denied")
	}
	if l.Allow("k", 1, 1) {
		t.Fatalf("bucket not empty after first request")
	}

	// Backdate the bucket instead of sleeping.
	l.mu.Lock()
	b := l.m["k"]
	b.last = b.last.Add(-2 * time.Second)
	l.mu.Unlock()

	if !l.Allow("k", 1, 1) {
		t.Fatalf("request denied after refill window")
	}
}
