package news

import (
	"math"
	"strings"
)

// wordsPerMinute is the average reading speed used for reading-time estimates.
const wordsPerMinute = 200

// Source identifies the publisher of an article.
type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Article is the canonical, provider-independent news item.
// URL is the identity key: two articles are the same article iff their URLs match.
type Article struct {
	Source      Source  `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

// Equal reports whether a and b refer to the same article.
func (a Article) Equal(b Article) bool {
	return a.URL == b.URL
}

// ReadingTimeMinutes estimates reading time from title, description and content.
func (a Article) ReadingTimeMinutes() int {
	words := len(strings.Fields(a.Title)) +
		len(strings.Fields(Deref(a.Description))) +
		len(strings.Fields(Deref(a.Content)))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return max(1, minutes)
}

// Text returns title and description joined, for keyword extraction.
func (a Article) Text() string {
	if d := Deref(a.Description); d != "" {
		return a.Title + " " + d
	}
	return a.Title
}

// Ptr returns a pointer to s, or nil when s is empty after trimming.
func Ptr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Dedupe drops articles whose URL was already seen, keeping the first occurrence.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Exclude returns articles without the one whose URL matches url.
func Exclude(articles []Article, url string) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.URL != url {
			out = append(out, a)
		}
	}
	return out
}
