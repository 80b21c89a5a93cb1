package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)}
}

func countingFetcher(calls *int32, articles []news.Article) Fetcher {
	return func(ctx context.Context, q news.Query) ([]news.Article, error) {
		atomic.AddInt32(calls, 1)
		return articles, nil
	}
}

var sample = []news.Article{{Title: "One", URL: "https://a.com/1"}}

func TestDefaultTTLs(t *testing.T) {
	c := New()
	cases := map[news.Kind]time.Duration{
		news.KindHeadlines:    15 * time.Minute,
		news.KindCategory:     15 * time.Minute,
		news.KindPersonalized: 450 * time.Second,
		news.KindSearch:       0,
	}
	for kind, want := range cases {
		if got := c.TTL(kind); got != want {
			t.Errorf("TTL(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestHitWithinTTL(t *testing.T) {
	clock := newClock()
	c := New(WithClock(clock.Now))
	q := news.Query{Kind: news.KindHeadlines, Country: "us", PageSize: 20, Page: 1}

	var calls int32
	first, err := c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}

	clock.Advance(14 * time.Minute)
	second, err := c.GetOrFetch(context.Background(), q, countingFetcher(&calls, nil))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 outbound call, got %d", calls)
	}
	if len(second) != len(first) || second[0].URL != first[0].URL {
		t.Errorf("expected cached result, got %v", second)
	}
}

func TestRefetchAfterTTL(t *testing.T) {
	clock := newClock()
	c := New(WithClock(clock.Now))
	q := news.Query{Kind: news.KindPersonalized, Query: "golang"}

	var calls int32
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	clock.Advance(7*time.Minute + 30*time.Second)
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))

	if calls != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", calls)
	}
}

func TestSearchNeverCached(t *testing.T) {
	c := New()
	q := news.Query{Kind: news.KindSearch, Query: "golang"}

	var calls int32
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))

	if calls != 2 {
		t.Errorf("expected 2 calls for search, got %d", calls)
	}
	if c.Len() != 0 {
		t.Errorf("expected no stored entries, got %d", c.Len())
	}
}

func TestFailureKeepsStaleEntry(t *testing.T) {
	clock := newClock()
	c := New(WithClock(clock.Now))
	q := news.Query{Kind: news.KindCategory, Category: "sports"}

	var calls int32
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	clock.Advance(time.Hour)

	boom := errors.New("boom")
	_, err := c.GetOrFetch(context.Background(), q, func(ctx context.Context, q news.Query) ([]news.Article, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	e, ok := c.Peek(q)
	if !ok {
		t.Fatal("expected stale entry to remain")
	}
	if e.Articles[0].URL != sample[0].URL {
		t.Errorf("unexpected stale entry %v", e.Articles)
	}
	if c.IsFresh(q) {
		t.Error("expected entry to be stale")
	}
}

func TestSingleFlight(t *testing.T) {
	c := New()
	q := news.Query{Kind: news.KindHeadlines, Country: "gb"}

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	fetch := func(ctx context.Context, q news.Query) ([]news.Article, error) {
		atomic.AddInt32(&calls, 1)
		once.Do(func() { close(started) })
		<-release
		return sample, nil
	}

	var wg sync.WaitGroup
	results := make([][]news.Article, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.GetOrFetch(context.Background(), q, fetch)
	}()
	<-started
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrFetch(context.Background(), q, fetch)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected 1 outbound call, got %d", calls)
	}
	for i, r := range results {
		if len(r) != 1 {
			t.Errorf("caller %d got %d articles", i, len(r))
		}
	}
}

func TestCancelledCallerDoesNotFailJoinedCaller(t *testing.T) {
	c := New()
	q := news.Query{Kind: news.KindHeadlines, Country: "gb"}

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, q news.Query) ([]news.Article, error) {
		close(started)
		select {
		case <-release:
			return sample, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctxA, q, fetch)
		errA <- err
	}()
	<-started

	type result struct {
		articles []news.Article
		err      error
	}
	resB := make(chan result, 1)
	go func() {
		articles, err := c.GetOrFetch(context.Background(), q, fetch)
		resB <- result{articles, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: expected context.Canceled, got %v", err)
	}

	close(release)
	b := <-resB
	if b.err != nil {
		t.Fatalf("joined caller failed: %v", b.err)
	}
	if len(b.articles) != 1 {
		t.Errorf("joined caller got %d articles", len(b.articles))
	}
	if !c.IsFresh(q) {
		t.Error("expected the shared result to be stored")
	}
}

func TestClear(t *testing.T) {
	c := New()
	var calls int32
	q := news.Query{Kind: news.KindHeadlines, Country: "us"}
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	c.Clear()

	if _, ok := c.Peek(q); ok {
		t.Error("expected cache to be empty after Clear")
	}
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	if calls != 2 {
		t.Errorf("expected refetch after Clear, got %d calls", calls)
	}
}

func TestWithTTLOverride(t *testing.T) {
	clock := newClock()
	c := New(WithClock(clock.Now), WithTTL(news.KindHeadlines, time.Minute))
	q := news.Query{Kind: news.KindHeadlines}

	var calls int32
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	clock.Advance(61 * time.Second)
	c.GetOrFetch(context.Background(), q, countingFetcher(&calls, sample))
	if calls != 2 {
		t.Errorf("expected override TTL to expire, got %d calls", calls)
	}
}
