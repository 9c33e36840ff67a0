package cache

import "time"

// BytesCache stores raw bytes under string keys with a per-entry TTL.
// Report usecases treat it as best-effort: a miss or a write failure is
// never an error on the request path.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
