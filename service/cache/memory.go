package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	body    []byte
	expires time.Time
}

// Memory is a bounded in-process cache. Once full, the least recently used
// page is evicted.
type Memory struct {
	// mu makes the expiry check and removal in Get atomic with Set.
	mu      sync.Mutex
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

func NewMemory(size int) (*Memory, error) {
	if size < 1 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

// Get treats expired entries as misses and drops them.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		m.entries.Remove(key)
		return nil, false
	}
	return e.body, true
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Add(key, entry{body: val, expires: m.now().Add(ttl)})
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Purge()
	return nil
}

func (m *Memory) Len() int {
	return m.entries.Len()
}
