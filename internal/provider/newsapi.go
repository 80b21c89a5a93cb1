package provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPI fetches headlines and search results from newsapi.org.
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPI creates a new NewsAPI adapter.
func NewNewsAPI(opts Options) *NewsAPI {
	return &NewsAPI{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.baseURL(newsAPIBaseURL), "/"),
		client:  opts.httpClient(),
	}
}

func (c *NewsAPI) Name() string { return "newsapi" }

// IsConfigured returns whether the API key is available.
func (c *NewsAPI) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *NewsAPI) Supports(kind news.Kind) bool {
	switch kind {
	case news.KindHeadlines, news.KindCategory, news.KindSearch, news.KindPersonalized:
		return true
	}
	return false
}

// Fetch routes headline and category queries to /top-headlines and search
// and personalized queries to /everything.
func (c *NewsAPI) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	if !c.Supports(q.Kind) {
		return nil, fmt.Errorf("%s: %w: %s", c.Name(), news.ErrUnsupportedQuery, q.Kind)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w: missing API key", c.Name(), news.ErrNoProvider)
	}

	params := url.Values{
		"pageSize": {strconv.Itoa(pageSize(q.PageSize, 20, 100))},
	}
	if q.Page > 1 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	var endpoint string
	switch q.Kind {
	case news.KindHeadlines, news.KindCategory:
		endpoint = "/top-headlines"
		if q.Country != "" {
			params.Set("country", strings.ToLower(q.Country))
		}
		if cat := news.NormalizeCategory(q.Category); cat != "" {
			params.Set("category", cat)
		}
		if q.Country == "" && params.Get("category") == "" {
			// top-headlines rejects requests without any filter
			params.Set("language", "en")
		}
	default:
		term := strings.TrimSpace(q.Query)
		if term == "" {
			return nil, fmt.Errorf("%s: %w: search term", c.Name(), news.ErrEmptyInput)
		}
		endpoint = "/everything"
		sortBy := q.SortBy
		if sortBy == "" {
			sortBy = "relevancy"
		}
		params.Set("q", term)
		params.Set("sortBy", sortBy)
		params.Set("language", "en")
	}

	header := http.Header{}
	header.Set("X-Api-Key", c.apiKey)

	var result struct {
		Status       string `json:"status"`
		Code         string `json:"code"`
		Message      string `json:"message"`
		TotalResults int    `json:"totalResults"`
		Articles     []struct {
			Source struct {
				ID   *string `json:"id"`
				Name string  `json:"name"`
			} `json:"source"`
			Author      *string `json:"author"`
			Title       string  `json:"title"`
			Description *string `json:"description"`
			URL         string  `json:"url"`
			URLToImage  *string `json:"urlToImage"`
			PublishedAt string  `json:"publishedAt"`
			Content     *string `json:"content"`
		} `json:"articles"`
	}

	if err := getJSON(ctx, c.client, c.Name(), c.baseURL+endpoint+"?"+params.Encode(), header, &result); err != nil {
		return nil, err
	}

	if result.Status != "ok" {
		return nil, &news.HTTPError{Provider: c.Name(), StatusCode: http.StatusOK, Message: result.Status + ": " + result.Message}
	}

	articles := make([]news.Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			metrics.ArticlesDropped.WithLabelValues(c.Name(), "removed").Inc()
			continue
		}

		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}

		article := news.Article{
			Source:      news.Source{ID: a.Source.ID, Name: source},
			Author:      trimmed(a.Author),
			Title:       strings.TrimSpace(a.Title),
			Description: trimmed(a.Description),
			URL:         strings.TrimSpace(a.URL),
			URLToImage:  trimmed(a.URLToImage),
			PublishedAt: a.PublishedAt,
			Content:     trimmed(a.Content),
		}
		if keepArticle(c.Name(), article) {
			articles = append(articles, article)
		}
	}

	articles = finish(c.Name(), articles)
	log.Printf("Fetched %d articles from NewsAPI (%s)", len(articles), q.Key())
	return articles, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return news.Ptr(*s)
}
