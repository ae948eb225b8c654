package agent

import (
	"context"
	"sync"
	"time"
)

// Cache is the durable record contract: opaque serialized values keyed by
// string, with a TTL refreshed on every set (sliding expiry).
type Cache interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	data     []byte
	deadline time.Time
}

// MemoryCache is an in-memory Cache for testing and local usage. Expiry is
// enforced lazily on read.
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.m[key] = memoryEntry{data: val, deadline: deadline}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.m[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.deadline.IsZero() && m.now().After(entry.deadline) {
		m.mu.Lock()
		delete(m.m, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.data, true, nil
}

func (m *MemoryCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}
