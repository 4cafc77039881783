package cache

import (
	"context"
	"sync"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

type TimelineCache interface {
	Get(ctx context.Context, key string) ([]domain.MergedRecord, bool, error)
	Set(ctx context.Context, key string, value []domain.MergedRecord, ttl time.Duration) error
}

type NoopTimelineCache struct{}

func (NoopTimelineCache) Get(_ context.Context, _ string) ([]domain.MergedRecord, bool, error) {
	return nil, false, nil
}

func (NoopTimelineCache) Set(_ context.Context, _ string, _ []domain.MergedRecord, _ time.Duration) error {
	return nil
}

// MemoryTimelineCache is an in-process cache used when no redis is configured.
// Expired entries are evicted on read and swept on every write, since keys
// derived from changed content are never read again.
type MemoryTimelineCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	records   []domain.MergedRecord
	expiresAt time.Time
}

func NewMemoryTimelineCache() *MemoryTimelineCache {
	return &MemoryTimelineCache{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryTimelineCache) Get(_ context.Context, key string) ([]domain.MergedRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return cloneRecords(entry.records), true, nil
}

func (c *MemoryTimelineCache) Set(_ context.Context, key string, value []domain.MergedRecord, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	entry := memoryEntry{records: cloneRecords(value)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *MemoryTimelineCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryTimelineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneRecords(records []domain.MergedRecord) []domain.MergedRecord {
	if records == nil {
		return nil
	}
	out := make([]domain.MergedRecord, len(records))
	copy(out, records)
	return out
}
