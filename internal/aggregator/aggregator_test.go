package aggregator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/cache"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   []news.Query
	results map[string][]news.Article
	errs    map[string]error
	gates   map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		results: make(map[string][]news.Article),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

// key identifies a query by its kind plus the most specific parameter.
func sourceKey(q news.Query) string {
	switch {
	case q.Query != "":
		return string(q.Kind) + ":" + q.Query
	case q.Category != "":
		return string(q.Kind) + ":" + q.Category
	}
	return string(q.Kind)
}

func (f *fakeSource) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	key := sourceKey(q)
	gate := f.gates[key]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

func (f *fakeSource) set(key string, articles []news.Article) {
	f.mu.Lock()
	f.results[key] = articles
	f.mu.Unlock()
}

func (f *fakeSource) fail(key string, err error) {
	f.mu.Lock()
	f.errs[key] = err
	f.mu.Unlock()
}

func (f *fakeSource) block(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) queries() []news.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]news.Query(nil), f.calls...)
}

type fakePrefs struct {
	country    string
	interests  []string
	categories []string
}

func (p fakePrefs) Country() string             { return p.country }
func (p fakePrefs) Interests() []string         { return p.interests }
func (p fakePrefs) VisibleCategories() []string { return p.categories }

func articles(prefix string, titles ...string) []news.Article {
	out := make([]news.Article, len(titles))
	for i, t := range titles {
		out[i] = news.Article{Title: t, URL: fmt.Sprintf("https://example.com/%s/%d", prefix, i)}
	}
	return out
}

func newTestAggregator(src *fakeSource, p Preferences) *Aggregator {
	if p == nil {
		p = fakePrefs{country: "us"}
	}
	return New(src, cache.New(), p)
}

func TestFetchTopHeadlinesPublishesAndDerivesTrending(t *testing.T) {
	src := newFakeSource()
	src.set("headlines", articles("h",
		"Stocks rise as markets react",
		"Markets react to stocks news",
		"Weather update",
	))
	agg := newTestAggregator(src, nil)

	got, err := agg.FetchTopHeadlines(context.Background(), "us", 0, 0)
	if err != nil {
		t.Fatalf("FetchTopHeadlines: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(got))
	}

	coll, ok := agg.Snapshot(Headlines)
	if !ok || len(coll.Articles) != 3 || coll.Loading || coll.Err != nil {
		t.Errorf("unexpected headlines collection %+v", coll)
	}

	var terms []string
	for _, tp := range agg.TrendingTopics() {
		terms = append(terms, tp.Term)
	}
	if !reflect.DeepEqual(terms, []string{"stocks", "markets", "react"}) {
		t.Errorf("trending = %v", terms)
	}

	q := src.queries()[0]
	if q.PageSize != 20 || q.Page != 1 || q.Country != "us" {
		t.Errorf("unexpected query defaults %+v", q)
	}
}

func TestHeadlinesServedFromCache(t *testing.T) {
	src := newFakeSource()
	src.set("headlines", articles("h", "One"))
	agg := newTestAggregator(src, nil)

	agg.FetchTopHeadlines(context.Background(), "us", 20, 1)
	agg.FetchTopHeadlines(context.Background(), "us", 20, 1)

	if n := src.callCount(); n != 1 {
		t.Errorf("expected 1 outbound call, got %d", n)
	}
}

func TestEmptySearchClearsWithoutCall(t *testing.T) {
	src := newFakeSource()
	src.set("search:golang", articles("s", "Go 1.26 released"))
	agg := newTestAggregator(src, nil)

	agg.SearchNews(context.Background(), "golang", "", 0, 0)
	if coll, _ := agg.Snapshot(Search); len(coll.Articles) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(coll.Articles))
	}

	got, err := agg.SearchNews(context.Background(), "   ", "", 0, 0)
	if err != nil || got != nil {
		t.Errorf("expected nil result and error, got %v, %v", got, err)
	}
	if coll, _ := agg.Snapshot(Search); len(coll.Articles) != 0 {
		t.Errorf("expected search results cleared, got %d", len(coll.Articles))
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("expected no call for empty search, got %d calls", n)
	}
}

func TestSearchDefaults(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, nil)
	agg.SearchNews(context.Background(), "rust", "", 0, 0)

	q := src.queries()[0]
	if q.SortBy != "relevancy" || q.PageSize != 30 || q.Page != 1 || q.Kind != news.KindSearch {
		t.Errorf("unexpected search query %+v", q)
	}
}

func TestPersonalizedUsesFirstFiveInterests(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, nil)

	interests := []string{"ai", "space", "cricket", "climate", "web development", "movies", "music"}
	agg.FetchPersonalizedNews(context.Background(), interests, 0)

	q := src.queries()[0]
	want := `ai OR space OR cricket OR climate OR "web development"`
	if q.Query != want {
		t.Errorf("query = %q, want %q", q.Query, want)
	}
	if strings.Contains(q.Query, "movies") || strings.Contains(q.Query, "music") {
		t.Error("expected interests beyond the fifth to be ignored")
	}
	if q.Kind != news.KindPersonalized || q.PageSize != 30 {
		t.Errorf("unexpected query %+v", q)
	}
}

func TestPersonalizedEmptyClears(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, nil)

	got, err := agg.FetchPersonalizedNews(context.Background(), nil, 0)
	if err != nil || got != nil {
		t.Errorf("expected nil, got %v, %v", got, err)
	}
	if src.callCount() != 0 {
		t.Errorf("expected no calls, got %d", src.callCount())
	}
	if _, ok := agg.Snapshot(Personalized); !ok {
		t.Error("expected personalized collection to exist after clear")
	}
}

func TestErrorKeepsPreviousArticles(t *testing.T) {
	src := newFakeSource()
	src.set("category:sports", articles("c", "Final tonight"))
	agg := New(src, cache.New(cache.WithTTL(news.KindCategory, 0)), fakePrefs{country: "us"})

	if _, err := agg.FetchCategoryNews(context.Background(), "sports", "us", 0); err != nil {
		t.Fatalf("FetchCategoryNews: %v", err)
	}

	boom := &news.HTTPError{Provider: "fake", StatusCode: 500}
	src.fail("category:sports", boom)
	_, err := agg.FetchCategoryNews(context.Background(), "sports", "us", 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}

	coll, _ := agg.Snapshot(CategoryCollection("sports"))
	if len(coll.Articles) != 1 {
		t.Errorf("expected previous articles kept, got %d", len(coll.Articles))
	}
	if coll.Err == nil || coll.Error == "" {
		t.Error("expected error flag to be set")
	}

	src.fail("category:sports", nil)
	agg.FetchCategoryNews(context.Background(), "sports", "us", 0)
	if coll, _ := agg.Snapshot(CategoryCollection("sports")); coll.Err != nil {
		t.Errorf("expected error to clear after success, got %v", coll.Err)
	}
}

func TestStaleCompletionDiscarded(t *testing.T) {
	src := newFakeSource()
	src.set("search:slow", articles("slow", "Old result"))
	src.set("search:fast", articles("fast", "New result"))
	gate := src.block("search:slow")
	agg := newTestAggregator(src, nil)

	done := make(chan struct{})
	go func() {
		agg.SearchNews(context.Background(), "slow", "", 0, 0)
		close(done)
	}()

	waitFor(t, func() bool { return src.callCount() == 1 })
	if coll, _ := agg.Snapshot(Search); !coll.Loading {
		t.Error("expected loading while a fetch is in flight")
	}

	agg.SearchNews(context.Background(), "fast", "", 0, 0)
	if coll, _ := agg.Snapshot(Search); coll.Loading {
		t.Error("expected loading to clear once the newest fetch completed")
	}

	close(gate)
	<-done

	coll, _ := agg.Snapshot(Search)
	if len(coll.Articles) != 1 || coll.Articles[0].Title != "New result" {
		t.Errorf("expected newer result to win, got %+v", coll.Articles)
	}
}

func TestRelatedArticlesExcludeSeed(t *testing.T) {
	src := newFakeSource()
	seed := news.Article{
		Title:       "Apple unveils new iPhone",
		Description: news.Ptr("The phone launch event drew crowds"),
		URL:         "https://example.com/seed",
	}

	related := articles("r", "a", "b", "c", "d", "e", "f")
	related = append([]news.Article{seed}, related...)
	src.set("search:apple OR unveils OR iphone OR phone OR launch", related)
	agg := newTestAggregator(src, nil)

	got, err := agg.FetchRelatedArticles(context.Background(), seed)
	if err != nil {
		t.Fatalf("FetchRelatedArticles: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 related articles, got %d", len(got))
	}
	for _, a := range got {
		if a.URL == seed.URL {
			t.Error("expected seed to be excluded")
		}
	}
	if coll, _ := agg.Snapshot(Related); len(coll.Articles) != 5 {
		t.Errorf("expected related collection of 5, got %d", len(coll.Articles))
	}
}

func TestRefreshAll(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, fakePrefs{
		country:    "in",
		interests:  []string{"cricket"},
		categories: []string{"business", "sports", "top"},
	})

	agg.RefreshAll(context.Background())
	agg.Wait()

	var kinds []string
	for _, q := range src.queries() {
		kinds = append(kinds, sourceKey(q))
	}
	sort.Strings(kinds)
	want := []string{"category:business", "category:sports", "headlines", "personalized:cricket"}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("refreshed %v, want %v", kinds, want)
	}
}

func TestRefreshAllSkipsPersonalizedWithoutInterests(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, fakePrefs{country: "us"})

	agg.RefreshAll(context.Background())
	agg.Wait()

	if n := src.callCount(); n != 1 {
		t.Errorf("expected only headlines, got %d calls", n)
	}
}

func TestEnsureFreshRoutesToCollection(t *testing.T) {
	src := newFakeSource()
	src.set("guardianSection", articles("g", "Long read"))
	agg := newTestAggregator(src, nil)

	q := news.Query{Kind: news.KindGuardianSection, Section: "world", PageSize: 20, Page: 1}
	if err := agg.EnsureFresh(context.Background(), q); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	agg.EnsureFresh(context.Background(), q)

	if coll, ok := agg.Snapshot(SectionCollection("world")); !ok || len(coll.Articles) != 1 {
		t.Errorf("expected section collection, got %+v", coll)
	}
	if src.callCount() != 1 {
		t.Errorf("expected fresh entry to be served from cache, got %d calls", src.callCount())
	}
}

func TestEnsureFreshIgnoresCategoryCase(t *testing.T) {
	src := newFakeSource()
	src.set("category:sports", articles("s", "Derby"))
	agg := newTestAggregator(src, nil)

	if _, err := agg.FetchCategoryNews(context.Background(), "sports", "gb", 20); err != nil {
		t.Fatalf("FetchCategoryNews: %v", err)
	}
	q := news.Query{Kind: news.KindCategory, Category: "Sports", Country: "GB", PageSize: 20, Page: 1}
	if err := agg.EnsureFresh(context.Background(), q); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	if src.callCount() != 1 {
		t.Errorf("expected the fresh category entry to be reused, got %d calls", src.callCount())
	}
	if _, ok := agg.Snapshot(CategoryCollection("Sports")); ok {
		t.Error("expected no separate collection for a differently cased category")
	}
	if got := CollectionFor(q); got != CategoryCollection("sports") {
		t.Errorf("CollectionFor = %q", got)
	}
}

func TestFindArticle(t *testing.T) {
	src := newFakeSource()
	src.set("headlines", articles("h", "One", "Two"))
	agg := newTestAggregator(src, nil)
	agg.FetchTopHeadlines(context.Background(), "us", 0, 0)

	a, ok := agg.FindArticle("https://example.com/h/1")
	if !ok || a.Title != "Two" {
		t.Errorf("FindArticle = %+v, %v", a, ok)
	}
	if _, ok := agg.FindArticle("https://example.com/missing"); ok {
		t.Error("expected missing article not to be found")
	}
}

func TestSubscribe(t *testing.T) {
	src := newFakeSource()
	agg := newTestAggregator(src, nil)
	events, cancel := agg.Subscribe()
	defer cancel()

	agg.FetchTopHeadlines(context.Background(), "us", 0, 0)

	seen := map[string]int{}
	timeout := time.After(time.Second)
	for seen[Trending] == 0 {
		select {
		case e := <-events:
			seen[e.Collection]++
		case <-timeout:
			t.Fatalf("expected headline and trending events, got %v", seen)
		}
	}
	if seen[Headlines] != 2 {
		t.Errorf("expected begin and settle events for headlines, got %d", seen[Headlines])
	}
}

func TestInterestQueryQuotesMultiWord(t *testing.T) {
	if got := InterestQuery([]string{"mental health", " ", "ai"}); got != `"mental health" OR ai` {
		t.Errorf("InterestQuery = %q", got)
	}
	if got := InterestQuery(nil); got != "" {
		t.Errorf("expected empty query, got %q", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}
