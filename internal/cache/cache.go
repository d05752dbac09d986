// Package cache stores serialized prediction outcomes keyed by the model
// and the canonical input record.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

var (
	// ErrMiss is returned when the requested key is not cached.
	ErrMiss = errors.New("cache: key not found")

	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrInvalidTTL is returned when a negative TTL is provided.
	ErrInvalidTTL = errors.New("cache: invalid TTL")
)

// PrefixPrediction namespaces prediction keys.
const PrefixPrediction = "atrisk:prediction:"

// Cache is a byte-oriented key/value cache with expiry. A zero TTL means
// the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// PredictionKey derives the cache key for a model, the fingerprint of the
// artifact and reference data behind it, and a canonical record.
func PredictionKey(model, fingerprint, canonical string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + fingerprint + "\x00" + canonical))
	return PrefixPrediction + hex.EncodeToString(sum[:])
}

// Memory is an in-process Cache. Expired entries are dropped lazily on Get.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if ttl < 0 {
		return ErrInvalidTTL
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
