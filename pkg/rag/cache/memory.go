// Package cache provides result caches for retrieval: an in-process cache
// with TTL expiry and a redis-backed cache for sharing results between
// processes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ragline/ragline/pkg/rag"
)

type memoryEntry struct {
	docs      []rag.Document
	expiresAt time.Time
}

// Memory is an in-process result cache. A zero TTL disables expiry.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemory returns an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]rag.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}

	return entry.docs, true, nil
}

func (c *Memory) Set(_ context.Context, key string, docs []rag.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{docs: docs}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[key] = entry

	return nil
}

func (c *Memory) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)

	return nil
}

// Len reports the number of cached entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

var _ rag.ResultCache = (*Memory)(nil)
