package provider

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 20

// Feed is a named RSS/Atom feed.
type Feed struct {
	Name string
	URL  string
}

// Feeds serves configured RSS/Atom feeds. Query.Source selects the feed by name.
type Feeds struct {
	feeds  []Feed
	client *http.Client
}

// NewFeeds creates a feed adapter. Feeds without a name are named after
// their host.
func NewFeeds(feeds []Feed, opts Options) *Feeds {
	named := make([]Feed, 0, len(feeds))
	for _, f := range feeds {
		if f.URL == "" {
			continue
		}
		if f.Name == "" {
			f.Name = extractSourceName(f.URL)
		}
		named = append(named, f)
	}
	return &Feeds{feeds: named, client: opts.httpClient()}
}

func (fp *Feeds) Name() string { return "feeds" }

func (fp *Feeds) Supports(kind news.Kind) bool {
	return kind == news.KindFeed
}

// List returns the configured feeds.
func (fp *Feeds) List() []Feed {
	out := make([]Feed, len(fp.feeds))
	copy(out, fp.feeds)
	return out
}

func (fp *Feeds) lookup(name string) (Feed, bool) {
	for _, f := range fp.feeds {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Feed{}, false
}

// Fetch downloads and parses one feed.
func (fp *Feeds) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	if !fp.Supports(q.Kind) {
		return nil, fmt.Errorf("%s: %w: %s", fp.Name(), news.ErrUnsupportedQuery, q.Kind)
	}
	if strings.TrimSpace(q.Source) == "" {
		return nil, fmt.Errorf("%s: %w: feed name", fp.Name(), news.ErrEmptyInput)
	}
	feed, ok := fp.lookup(q.Source)
	if !ok {
		return nil, fmt.Errorf("%s: unknown feed %q", fp.Name(), q.Source)
	}

	body, err := get(ctx, fp.client, fp.Name(), feed.URL, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &news.DecodeError{Provider: fp.Name(), Err: err}
	}

	limit := pageSize(q.PageSize, maxPerFeed, 100)
	var articles []news.Article
	for _, item := range parsed.Items {
		if len(articles) >= limit {
			break
		}
		article := parseItem(item, feed.Name)
		if keepArticle(fp.Name(), article) {
			articles = append(articles, article)
		}
	}

	articles = finish(fp.Name(), articles)
	log.Printf("Parsed %d entries from %s", len(articles), feed.Name)
	return articles, nil
}

func parseItem(item *gofeed.Item, source string) news.Article {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}

	var publishedAt string
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	var author *string
	if item.Author != nil {
		author = news.Ptr(item.Author.Name)
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = news.Ptr(item.Authors[0].Name)
	}

	var image *string
	if item.Image != nil {
		image = news.Ptr(item.Image.URL)
	}

	return news.Article{
		Source:      news.Source{Name: source},
		Author:      author,
		Title:       strings.TrimSpace(item.Title),
		Description: news.Ptr(stripHTML(item.Description)),
		URL:         strings.TrimSpace(itemURL),
		URLToImage:  image,
		PublishedAt: publishedAt,
		Content:     news.Ptr(stripHTML(item.Content)),
	}
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	var labels []string
	for _, l := range strings.Split(host, ".") {
		if l != "" {
			labels = append(labels, l)
		}
	}
	var name string
	switch len(labels) {
	case 0:
		return u.Hostname()
	case 1:
		name = labels[0]
	default:
		name = labels[len(labels)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
