// Package cache stores provider results per query signature with a
// per-kind time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
	"golang.org/x/sync/singleflight"
)

// DefaultTTLs are the freshness windows per query kind.
var DefaultTTLs = map[news.Kind]time.Duration{
	news.KindHeadlines:       15 * time.Minute,
	news.KindCategory:        15 * time.Minute,
	news.KindPersonalized:    7*time.Minute + 30*time.Second,
	news.KindSearch:          0,
	news.KindGuardianSection: 15 * time.Minute,
	news.KindFeed:            15 * time.Minute,
}

// Entry is a cached result.
type Entry struct {
	Query     news.Query
	FetchedAt time.Time
	Articles  []news.Article
}

// Fetcher performs the outbound fetch on a miss.
type Fetcher func(ctx context.Context, q news.Query) ([]news.Article, error)

// Cache is safe for concurrent use. At most one entry is kept per query key.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttls    map[news.Kind]time.Duration
	group   singleflight.Group
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the TTL of one kind.
func WithTTL(kind news.Kind, ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttls[kind] = ttl
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache with DefaultTTLs.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttls:    make(map[news.Kind]time.Duration, len(DefaultTTLs)),
		now:     time.Now,
	}
	for k, v := range DefaultTTLs {
		c.ttls[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window of kind. Unknown kinds are never cached.
func (c *Cache) TTL(kind news.Kind) time.Duration {
	return c.ttls[kind]
}

func (c *Cache) fresh(e Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.TTL(e.Query.Kind)
}

// GetOrFetch returns the cached articles for q while fresh. Otherwise it
// calls fetch, sharing one in-flight call among concurrent callers with the
// same key, and stores the result on success. A failed fetch leaves any
// existing entry untouched.
func (c *Cache) GetOrFetch(ctx context.Context, q news.Query, fetch Fetcher) ([]news.Article, error) {
	key := q.Key()
	kind := string(q.Kind)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e) {
		metrics.CacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
		return e.Articles, nil
	}

	// The shared fetch outlives any single caller; each caller stops
	// waiting when its own ctx ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		articles, err := fetch(fetchCtx, q)
		if err != nil {
			return nil, err
		}
		if c.TTL(q.Kind) > 0 {
			c.mu.Lock()
			c.entries[key] = Entry{Query: q, FetchedAt: c.now(), Articles: articles}
			c.mu.Unlock()
		}
		return articles, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheLookupsTotal.WithLabelValues(kind, "shared").Inc()
		} else {
			metrics.CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]news.Article), nil
	}
}

// Peek returns the stored entry for q regardless of freshness.
func (c *Cache) Peek(q news.Query) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[q.Key()]
	return e, ok
}

// IsFresh reports whether a fresh entry exists for q.
func (c *Cache) IsFresh(q news.Query) bool {
	e, ok := c.Peek(q)
	return ok && c.fresh(e)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
