package provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

const guardianBaseURL = "https://content.guardianapis.com"

var guardianSource = news.Source{ID: news.Ptr("the-guardian"), Name: "The Guardian"}

// Guardian fetches long-form articles from the Guardian content API.
type Guardian struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGuardian creates a new Guardian adapter.
func NewGuardian(opts Options) *Guardian {
	return &Guardian{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.baseURL(guardianBaseURL), "/"),
		client:  opts.httpClient(),
	}
}

func (c *Guardian) Name() string { return "guardian" }

// IsConfigured returns whether the API key is available.
func (c *Guardian) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *Guardian) Supports(kind news.Kind) bool {
	return kind == news.KindGuardianSection
}

// Fetch returns the latest articles of a section. An empty section means
// all sections.
func (c *Guardian) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	if !c.Supports(q.Kind) {
		return nil, fmt.Errorf("%s: %w: %s", c.Name(), news.ErrUnsupportedQuery, q.Kind)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w: missing API key", c.Name(), news.ErrNoProvider)
	}

	params := url.Values{
		"api-key":     {c.apiKey},
		"page-size":   {strconv.Itoa(pageSize(q.PageSize, 20, 50))},
		"show-fields": {"headline,byline,thumbnail,body,trailText"},
		"order-by":    {"newest"},
	}
	if section := strings.ToLower(strings.TrimSpace(q.Section)); section != "" {
		params.Set("section", section)
	}
	if q.Page > 1 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if term := strings.TrimSpace(q.Query); term != "" {
		params.Set("q", term)
	}

	var result struct {
		Response struct {
			Status  string `json:"status"`
			Message string `json:"message"`
			Total   int    `json:"total"`
			Results []struct {
				ID                 string `json:"id"`
				SectionID          string `json:"sectionId"`
				WebPublicationDate string `json:"webPublicationDate"`
				WebTitle           string `json:"webTitle"`
				WebURL             string `json:"webUrl"`
				Fields             *struct {
					Headline  string `json:"headline"`
					Byline    string `json:"byline"`
					Thumbnail string `json:"thumbnail"`
					Body      string `json:"body"`
					TrailText string `json:"trailText"`
				} `json:"fields"`
			} `json:"results"`
		} `json:"response"`
	}

	if err := getJSON(ctx, c.client, c.Name(), c.baseURL+"/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.Response.Status != "ok" {
		return nil, &news.HTTPError{Provider: c.Name(), StatusCode: http.StatusOK, Message: result.Response.Message}
	}

	articles := make([]news.Article, 0, len(result.Response.Results))
	for _, r := range result.Response.Results {
		article := news.Article{
			Source:      guardianSource,
			Title:       strings.TrimSpace(r.WebTitle),
			URL:         strings.TrimSpace(r.WebURL),
			PublishedAt: r.WebPublicationDate,
		}
		if f := r.Fields; f != nil {
			if h := strings.TrimSpace(f.Headline); h != "" {
				article.Title = h
			}
			article.Author = news.Ptr(f.Byline)
			article.URLToImage = news.Ptr(f.Thumbnail)
			article.Description = news.Ptr(stripHTML(f.TrailText))
			article.Content = news.Ptr(stripHTML(f.Body))
		}
		if keepArticle(c.Name(), article) {
			articles = append(articles, article)
		}
	}

	articles = finish(c.Name(), articles)
	log.Printf("Fetched %d articles from the Guardian (section %q)", len(articles), q.Section)
	return articles, nil
}
