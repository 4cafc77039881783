package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

func TestMemoryTimelineCacheRoundTrip(t *testing.T) {
	c := NewMemoryTimelineCache()
	ctx := context.Background()

	records := []domain.MergedRecord{{ID: "independent-r1", Type: domain.MergedIndependent, Hours: 2}}
	if err := c.Set(ctx, "k", records, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	records[0].Hours = 99
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got[0].Hours != 2 {
		t.Fatalf("expected cached copy to be isolated from caller, got %v", got[0].Hours)
	}
}

func TestMemoryTimelineCacheExpires(t *testing.T) {
	c := NewMemoryTimelineCache()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", []domain.MergedRecord{{ID: "schedule-s1"}}, time.Second)
	now = now.Add(2 * time.Second)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestMemoryTimelineCacheSweepsUnreadKeysOnSet(t *testing.T) {
	c := NewMemoryTimelineCache()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = c.Set(ctx, fmt.Sprintf("stale-%d", i), []domain.MergedRecord{{ID: "schedule-s1"}}, time.Second)
	}
	_ = c.Set(ctx, "kept", []domain.MergedRecord{{ID: "schedule-s2"}}, time.Hour)
	if c.Len() != 1001 {
		t.Fatalf("expected 1001 live entries, got %d", c.Len())
	}

	now = now.Add(2 * time.Second)
	_ = c.Set(ctx, "fresh", []domain.MergedRecord{{ID: "schedule-s3"}}, time.Minute)

	if c.Len() != 2 {
		t.Fatalf("expected expired entries to be swept, got %d entries", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "kept"); !ok {
		t.Fatalf("expected unexpired entry to survive the sweep")
	}
}

func TestNoopTimelineCacheNeverHits(t *testing.T) {
	var c TimelineCache = NoopTimelineCache{}
	_ = c.Set(context.Background(), "k", []domain.MergedRecord{{ID: "x"}}, time.Minute)
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatalf("noop cache must not hit")
	}
}
