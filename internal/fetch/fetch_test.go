package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

const page = `<!DOCTYPE html>
<html><head><title>Storm hits coast</title></head>
<body>
<nav>Home | World | Sport</nav>
<article>
<h1>Storm hits coast</h1>
<p>A powerful storm made landfall on the northern coast early on Tuesday, bringing heavy rain and strong winds to several towns along the shoreline.</p>
<p>Emergency services said thousands of homes were without power and that several roads had been closed because of flooding and fallen trees.</p>
<p>Forecasters expect the storm to weaken as it moves inland over the next two days, although further rainfall warnings remain in place.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestNeedsFullText(t *testing.T) {
	cases := []struct {
		content *string
		want    bool
	}{
		{nil, true},
		{news.Ptr("   "), true},
		{news.Ptr("The storm moved north… [+2345 chars]"), true},
		{news.Ptr("Complete article body."), false},
	}
	for _, c := range cases {
		if got := NeedsFullText(news.Article{Content: c.content}); got != c.want {
			t.Errorf("NeedsFullText(%q) = %v, want %v", news.Deref(c.content), got, c.want)
		}
	}
}

func TestFetchContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewContentFetcher(0)
	text, err := f.FetchContent(context.Background(), srv.URL+"/storm")
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	if !strings.Contains(text, "powerful storm made landfall") {
		t.Errorf("expected article text, got %q", text)
	}
}

func TestFetchContentSkipsFailedDomain(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewContentFetcher(0)
	_, err := f.FetchContent(context.Background(), srv.URL+"/a")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected HTTPError 403, got %v", err)
	}

	text, err := f.FetchContent(context.Background(), srv.URL+"/b")
	if err != nil || text != "" {
		t.Errorf("expected silent skip, got %q, %v", text, err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestFetchContentInvalidURL(t *testing.T) {
	f := NewContentFetcher(0)
	if _, err := f.FetchContent(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestEnrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewContentFetcher(0)

	full := news.Article{URL: srv.URL + "/x", Content: news.Ptr("Complete body.")}
	if got := f.Enrich(context.Background(), full); news.Deref(got.Content) != "Complete body." {
		t.Errorf("expected complete content to be kept, got %q", news.Deref(got.Content))
	}

	truncated := news.Article{URL: srv.URL + "/y", Content: news.Ptr("A powerful storm… [+812 chars]")}
	got := f.Enrich(context.Background(), truncated)
	if !strings.Contains(news.Deref(got.Content), "Emergency services") {
		t.Errorf("expected enriched content, got %q", news.Deref(got.Content))
	}
}
