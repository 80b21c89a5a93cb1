// Package aggregator orchestrates cached provider fetches into published
// article collections.
package aggregator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/cache"
	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/TobiSchelling/newsdesk/internal/trending"
)

const (
	defaultPageSize       = 20
	defaultSearchPageSize = 30
	maxInterests          = 5
	maxRelated            = 5
	relatedKeywords       = 5
)

// Source fetches articles for a query. provider.Router satisfies it.
type Source interface {
	Fetch(ctx context.Context, q news.Query) ([]news.Article, error)
}

// Preferences is the part of the preference store the aggregator reads.
type Preferences interface {
	Country() string
	Interests() []string
	VisibleCategories() []string
}

// Aggregator is safe for concurrent use.
type Aggregator struct {
	source Source
	cache  *cache.Cache
	prefs  Preferences
	now    func() time.Time

	mu          sync.Mutex
	collections map[string]*collection
	topics      []trending.Topic

	subMu sync.Mutex
	subs  map[int]chan Event
	next  int

	wg sync.WaitGroup
}

// New creates an aggregator.
func New(source Source, c *cache.Cache, prefs Preferences) *Aggregator {
	return &Aggregator{
		source:      source,
		cache:       c,
		prefs:       prefs,
		now:         time.Now,
		collections: make(map[string]*collection),
		subs:        make(map[int]chan Event),
	}
}

// FetchTopHeadlines replaces the headlines collection and recomputes
// trending topics from it.
func (a *Aggregator) FetchTopHeadlines(ctx context.Context, country string, pageSize, page int) ([]news.Article, error) {
	return a.fetch(ctx, news.Query{
		Kind:     news.KindHeadlines,
		Country:  country,
		PageSize: orDefault(pageSize, defaultPageSize),
		Page:     orDefault(page, 1),
	})
}

// FetchCategoryNews replaces the collection of one category.
func (a *Aggregator) FetchCategoryNews(ctx context.Context, category, country string, pageSize int) ([]news.Article, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, fmt.Errorf("category: %w", news.ErrEmptyInput)
	}
	return a.fetch(ctx, news.Query{
		Kind:     news.KindCategory,
		Country:  country,
		Category: category,
		PageSize: orDefault(pageSize, defaultPageSize),
		Page:     1,
	})
}

// SearchNews replaces the search results. An empty query clears them
// without any outbound call.
func (a *Aggregator) SearchNews(ctx context.Context, query, sortBy string, pageSize, page int) ([]news.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		a.clear(Search)
		return nil, nil
	}
	if sortBy == "" {
		sortBy = "relevancy"
	}
	return a.fetch(ctx, news.Query{
		Kind:     news.KindSearch,
		Query:    query,
		SortBy:   sortBy,
		PageSize: orDefault(pageSize, defaultSearchPageSize),
		Page:     orDefault(page, 1),
	})
}

// FetchPersonalizedNews searches for the first five interests. No
// interests clears the collection without any outbound call.
func (a *Aggregator) FetchPersonalizedNews(ctx context.Context, interests []string, pageSize int) ([]news.Article, error) {
	term := InterestQuery(interests)
	if term == "" {
		a.clear(Personalized)
		return nil, nil
	}
	return a.fetch(ctx, news.Query{
		Kind:     news.KindPersonalized,
		Query:    term,
		SortBy:   "publishedAt",
		PageSize: orDefault(pageSize, defaultSearchPageSize),
		Page:     1,
	})
}

// InterestQuery joins up to five interests with OR, quoting multi-word terms.
func InterestQuery(interests []string) string {
	var terms []string
	for _, in := range interests {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if strings.ContainsAny(in, " \t") {
			in = `"` + strings.ReplaceAll(in, `"`, "") + `"`
		}
		terms = append(terms, in)
		if len(terms) == maxInterests {
			break
		}
	}
	return strings.Join(terms, " OR ")
}

// FetchRelatedArticles searches for keywords of seed and publishes up to
// five results other than seed itself.
func (a *Aggregator) FetchRelatedArticles(ctx context.Context, seed news.Article) ([]news.Article, error) {
	keywords := trending.Keywords(seed.Text(), relatedKeywords)
	if len(keywords) == 0 {
		a.clear(Related)
		return nil, nil
	}
	q := news.Query{
		Kind:     news.KindSearch,
		Query:    strings.Join(keywords, " OR "),
		SortBy:   "relevancy",
		PageSize: 10,
		Page:     1,
	}
	return a.run(ctx, Related, q, func(articles []news.Article) []news.Article {
		articles = news.Exclude(articles, seed.URL)
		if len(articles) > maxRelated {
			articles = articles[:maxRelated]
		}
		return articles
	})
}

// FetchGuardianSection replaces the collection of a Guardian section.
func (a *Aggregator) FetchGuardianSection(ctx context.Context, section string, pageSize int) ([]news.Article, error) {
	return a.fetch(ctx, news.Query{
		Kind:     news.KindGuardianSection,
		Section:  strings.ToLower(strings.TrimSpace(section)),
		PageSize: orDefault(pageSize, defaultPageSize),
		Page:     1,
	})
}

// FetchFeed replaces the collection of a configured RSS/Atom feed.
func (a *Aggregator) FetchFeed(ctx context.Context, name string) ([]news.Article, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("feed: %w", news.ErrEmptyInput)
	}
	return a.fetch(ctx, news.Query{Kind: news.KindFeed, Source: name})
}

// EnsureFresh fetches q through the cache and publishes it to its
// collection. A fresh cache entry is served without an outbound call.
func (a *Aggregator) EnsureFresh(ctx context.Context, q news.Query) error {
	_, err := a.fetch(ctx, q.Normalize())
	return err
}

// CollectionFor returns the collection a query publishes to.
func CollectionFor(q news.Query) string {
	q = q.Normalize()
	switch q.Kind {
	case news.KindHeadlines:
		return Headlines
	case news.KindCategory:
		return CategoryCollection(q.Category)
	case news.KindSearch:
		return Search
	case news.KindPersonalized:
		return Personalized
	case news.KindGuardianSection:
		return SectionCollection(q.Section)
	case news.KindFeed:
		return FeedCollection(q.Source)
	}
	return string(q.Kind)
}

func (a *Aggregator) fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	return a.run(ctx, CollectionFor(q), q, nil)
}

// run issues a sequenced fetch for a collection and applies its result
// unless a newer fetch has already settled.
func (a *Aggregator) run(ctx context.Context, name string, q news.Query, post func([]news.Article) []news.Article) ([]news.Article, error) {
	seq := a.begin(name)

	articles, err := a.cache.GetOrFetch(ctx, q, a.source.Fetch)
	if err == nil && post != nil {
		articles = post(articles)
	}

	if err != nil {
		log.Printf("Fetching %s failed: %v", name, err)
	}
	a.settle(name, seq, articles, err)
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (a *Aggregator) coll(name string) *collection {
	c, ok := a.collections[name]
	if !ok {
		c = &collection{}
		a.collections[name] = c
	}
	return c
}

func (a *Aggregator) begin(name string) uint64 {
	a.mu.Lock()
	c := a.coll(name)
	c.issued++
	seq := c.issued
	a.mu.Unlock()

	a.notify(Event{Collection: name})
	return seq
}

func (a *Aggregator) settle(name string, seq uint64, articles []news.Article, err error) {
	a.mu.Lock()
	c := a.coll(name)
	if seq <= c.settled {
		a.mu.Unlock()
		metrics.CollectionUpdates.WithLabelValues("stale").Inc()
		log.Printf("Discarding stale result for %s (seq %d, settled %d)", name, seq, c.settled)
		return
	}
	c.settled = seq

	trendingChanged := false
	if err != nil {
		// keep the previous articles on failure
		c.err = err
		metrics.CollectionUpdates.WithLabelValues("error").Inc()
	} else {
		c.articles = articles
		c.err = nil
		c.updatedAt = a.now()
		metrics.CollectionUpdates.WithLabelValues("applied").Inc()
		if name == Headlines {
			a.topics = trending.Topics(articles, trending.DefaultTopN)
			trendingChanged = true
		}
	}
	a.mu.Unlock()

	a.notify(Event{Collection: name})
	if trendingChanged {
		a.notify(Event{Collection: Trending})
	}
}

func (a *Aggregator) clear(name string) {
	a.mu.Lock()
	c := a.coll(name)
	// a clear supersedes every fetch issued so far
	c.issued++
	c.settled = c.issued
	c.articles = nil
	c.err = nil
	c.updatedAt = a.now()
	a.mu.Unlock()

	a.notify(Event{Collection: name})
}

// RefreshAll starts headline, personalized and visible category fetches
// in the background and returns immediately. Use Wait to block until they
// have finished.
func (a *Aggregator) RefreshAll(ctx context.Context) {
	country := a.prefs.Country()
	interests := a.prefs.Interests()
	categories := a.prefs.VisibleCategories()

	metrics.RefreshRunsTotal.Inc()
	log.Printf("Refreshing headlines, %d interests and %d categories for %s", len(interests), len(categories), country)

	a.spawn(func() { a.FetchTopHeadlines(ctx, country, 0, 0) })
	if len(interests) > 0 {
		a.spawn(func() { a.FetchPersonalizedNews(ctx, interests, 0) })
	}
	for _, cat := range categories {
		if news.NormalizeCategory(cat) == "" {
			continue
		}
		a.spawn(func() { a.FetchCategoryNews(ctx, cat, country, 0) })
	}
}

func (a *Aggregator) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Wait blocks until background refreshes have finished.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Snapshot returns a copy of a collection.
func (a *Aggregator) Snapshot(name string) (Collection, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.collections[name]
	if !ok {
		return Collection{Name: name}, false
	}
	return c.snapshot(name), true
}

// Collections returns the names of all collections, sorted.
func (a *Aggregator) Collections() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.collections))
	for name := range a.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrendingTopics returns the topics derived from the latest headlines.
func (a *Aggregator) TrendingTopics() []trending.Topic {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]trending.Topic, len(a.topics))
	copy(out, a.topics)
	return out
}

// FindArticle looks url up across all published collections.
func (a *Aggregator) FindArticle(url string) (news.Article, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.collections))
	for name := range a.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, art := range a.collections[name].articles {
			if art.URL == url {
				return art, true
			}
		}
	}
	return news.Article{}, false
}

// ClearCache drops all cached provider results.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}

// Subscribe returns a channel of collection change events and a function
// that cancels the subscription. Events are dropped for slow subscribers.
func (a *Aggregator) Subscribe() (<-chan Event, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.next
	a.next++
	ch := make(chan Event, 32)
	a.subs[id] = ch

	return ch, func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
	}
}

func (a *Aggregator) notify(e Event) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
