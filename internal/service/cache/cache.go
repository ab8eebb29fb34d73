package cache

import "time"

// BytesCache stores serialized analysis reports keyed by symbol and
// date range. The ok return distinguishes a miss from an empty value.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
