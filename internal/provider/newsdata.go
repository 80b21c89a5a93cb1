package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

const newsDataBaseURL = "https://newsdata.io/api/1"

// newsDataTimeLayout is the layout of NewsData's pubDate field (UTC).
const newsDataTimeLayout = "2006-01-02 15:04:05"

// NewsData fetches articles from the newsdata.io aggregator API.
type NewsData struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsData creates a new NewsData adapter.
func NewNewsData(opts Options) *NewsData {
	return &NewsData{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.baseURL(newsDataBaseURL), "/"),
		client:  opts.httpClient(),
	}
}

func (c *NewsData) Name() string { return "newsdata" }

// IsConfigured returns whether the API key is available.
func (c *NewsData) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *NewsData) Supports(kind news.Kind) bool {
	switch kind {
	case news.KindHeadlines, news.KindCategory, news.KindSearch, news.KindPersonalized:
		return true
	}
	return false
}

// Fetch queries the /news endpoint. NewsData paginates with opaque tokens,
// so Query.Page is not forwarded.
func (c *NewsData) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	if !c.Supports(q.Kind) {
		return nil, fmt.Errorf("%s: %w: %s", c.Name(), news.ErrUnsupportedQuery, q.Kind)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w: missing API key", c.Name(), news.ErrNoProvider)
	}

	params := url.Values{
		"apikey": {c.apiKey},
		"size":   {strconv.Itoa(pageSize(q.PageSize, 10, 50))},
	}
	switch q.Kind {
	case news.KindHeadlines, news.KindCategory:
		if q.Country != "" {
			params.Set("country", strings.ToLower(q.Country))
		}
		if cat := news.NormalizeCategory(q.Category); cat != "" {
			params.Set("category", cat)
		}
	default:
		term := strings.TrimSpace(q.Query)
		if term == "" {
			return nil, fmt.Errorf("%s: %w: search term", c.Name(), news.ErrEmptyInput)
		}
		params.Set("q", term)
		params.Set("language", "en")
	}

	var result struct {
		Status       string          `json:"status"`
		TotalResults int             `json:"totalResults"`
		Results      json.RawMessage `json:"results"`
	}

	if err := getJSON(ctx, c.client, c.Name(), c.baseURL+"/news?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.Status != "success" {
		msg := "status " + result.Status
		var detail struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(result.Results, &detail) == nil && detail.Message != "" {
			msg += ": " + detail.Message
		}
		return nil, &news.HTTPError{Provider: c.Name(), StatusCode: http.StatusOK, Message: msg}
	}

	var items []struct {
		Title       string   `json:"title"`
		Link        string   `json:"link"`
		Creator     []string `json:"creator"`
		Description *string  `json:"description"`
		Content     *string  `json:"content"`
		PubDate     string   `json:"pubDate"`
		ImageURL    *string  `json:"image_url"`
		SourceID    string   `json:"source_id"`
		SourceName  string   `json:"source_name"`
	}
	if len(result.Results) > 0 {
		if err := json.Unmarshal(result.Results, &items); err != nil {
			return nil, &news.DecodeError{Provider: c.Name(), Err: err}
		}
	}

	articles := make([]news.Article, 0, len(items))
	for _, r := range items {
		var author *string
		if len(r.Creator) > 0 {
			author = news.Ptr(r.Creator[0])
		}
		name := r.SourceName
		if name == "" {
			name = r.SourceID
		}

		article := news.Article{
			Source:      news.Source{ID: news.Ptr(r.SourceID), Name: name},
			Author:      author,
			Title:       strings.TrimSpace(r.Title),
			Description: trimmed(r.Description),
			URL:         strings.TrimSpace(r.Link),
			URLToImage:  trimmed(r.ImageURL),
			PublishedAt: newsDataTime(r.PubDate),
			Content:     trimmed(r.Content),
		}
		if keepArticle(c.Name(), article) {
			articles = append(articles, article)
		}
	}

	articles = finish(c.Name(), articles)
	log.Printf("Fetched %d articles from NewsData (%s)", len(articles), q.Kind)
	return articles, nil
}

// newsDataTime converts NewsData's pubDate to RFC 3339, passing unparseable
// values through unchanged.
func newsDataTime(s string) string {
	t, err := time.Parse(newsDataTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}
