// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// Memory is the default in-process result cache. Expiry is lazy: entries
// are checked on lookup, there is no background sweep. All access is
// serialized behind one mutex; entries are whole-value copies so a cached
// result can never be observed mid-write.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	defaultTTL time.Duration
}

type memoryEntry struct {
	result  types.SearchResult
	created time.Time
	expires time.Time
}

// NewMemory builds a memory cache. A zero ttl uses DefaultTTL. The clock
// is injectable for tests; nil means time.Now.
func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		now:        now,
		defaultTTL: ttl,
	}
}

// Get returns the cached result for key, evicting it first if its TTL has
// elapsed.
func (m *Memory) Get(_ context.Context, key string) (types.SearchResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return types.SearchResult{}, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return types.SearchResult{}, false, nil
	}
	return e.result, true, nil
}

// Put stores result under key. A zero ttl uses the cache default.
func (m *Memory) Put(_ context.Context, key string, result types.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		result:  result,
		created: now,
		expires: now.Add(ttl),
	}
	return nil
}

// Invalidate removes one entry.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len reports the live entry count, counting expired-but-unswept entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
