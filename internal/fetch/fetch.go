// Package fetch extracts readable article text from publisher pages.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// minContentLength is the shortest extraction accepted as article text.
const minContentLength = 100

// maxBodySize caps how much of a page is read.
const maxBodySize = 5 << 20

var truncatedMarker = regexp.MustCompile(`\[\+\d+ chars\]\s*$`)

// NeedsFullText reports whether provider content is missing or truncated
// with a "[+N chars]" marker.
func NeedsFullText(a news.Article) bool {
	c := strings.TrimSpace(news.Deref(a.Content))
	return c == "" || truncatedMarker.MatchString(c)
}

// HTTPError is returned for pages answering with a 4xx or 5xx status.
type HTTPError struct {
	URL  string
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, http.StatusText(e.Code))
}

// ContentFetcher fetches full article text via HTTP + readability extraction.
type ContentFetcher struct {
	client *http.Client

	mu            sync.Mutex
	failedDomains map[string]struct{}
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		failedDomains: make(map[string]struct{}),
	}
}

// FetchContent returns the readable text of the page at articleURL, or ""
// when nothing usable could be extracted. Domains that answered with an
// HTTP error are skipped for the lifetime of the fetcher.
func (f *ContentFetcher) FetchContent(ctx context.Context, articleURL string) (string, error) {
	u, err := url.Parse(articleURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid article URL %q", articleURL)
	}
	domain := strings.ToLower(u.Host)

	if f.domainFailed(domain) {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "newsdesk/1.0 (news reader)")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("Fetch failed for %s: %v", articleURL, err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.markFailed(domain)
		log.Printf("HTTP %d for %s, skipping further pages from %s", resp.StatusCode, articleURL, domain)
		return "", &HTTPError{URL: articleURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minContentLength {
		return text, nil
	}
	log.Printf("No extractable content from: %s", articleURL)
	return "", nil
}

// Enrich returns a with its content replaced by the full page text when
// the provider content is missing or truncated and extraction succeeds.
func (f *ContentFetcher) Enrich(ctx context.Context, a news.Article) news.Article {
	if !NeedsFullText(a) {
		return a
	}
	text, err := f.FetchContent(ctx, a.URL)
	if err != nil || text == "" {
		return a
	}
	a.Content = &text
	return a
}

func (f *ContentFetcher) domainFailed(domain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.failedDomains[domain]
	return ok
}

func (f *ContentFetcher) markFailed(domain string) {
	f.mu.Lock()
	f.failedDomains[domain] = struct{}{}
	f.mu.Unlock()
}
