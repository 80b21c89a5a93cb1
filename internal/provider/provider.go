// Package provider turns external news sources into canonical articles.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

const defaultTimeout = 20 * time.Second

// Provider fetches articles for the query kinds it supports.
// Each Fetch issues exactly one outbound request and never retries.
type Provider interface {
	Name() string
	Supports(kind news.Kind) bool
	Fetch(ctx context.Context, q news.Query) ([]news.Article, error)
}

// Options configures an HTTP-backed provider.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) baseURL(fallback string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return fallback
}

func pageSize(n, def, limit int) int {
	if n <= 0 {
		n = def
	}
	if n > limit {
		n = limit
	}
	return n
}
