package provider

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
	"golang.org/x/net/html"
)

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Adjacent block elements are separated by a space.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// keepArticle applies the drop-partial policy: an item without a title or
// URL is logged and dropped instead of failing the batch.
func keepArticle(provider string, a news.Article) bool {
	switch {
	case strings.TrimSpace(a.URL) == "":
		log.Printf("%s: dropping article without URL (title %q)", provider, a.Title)
		metrics.ArticlesDropped.WithLabelValues(provider, "missing_url").Inc()
		return false
	case strings.TrimSpace(a.Title) == "":
		log.Printf("%s: dropping article without title (%s)", provider, a.URL)
		metrics.ArticlesDropped.WithLabelValues(provider, "missing_title").Inc()
		return false
	}
	return true
}

// finish dedupes a normalized batch and counts the duplicates dropped.
func finish(provider string, articles []news.Article) []news.Article {
	out := news.Dedupe(articles)
	if dropped := len(articles) - len(out); dropped > 0 {
		log.Printf("%s: dropped %d duplicate articles", provider, dropped)
		metrics.ArticlesDropped.WithLabelValues(provider, "duplicate").Add(float64(dropped))
	}
	return out
}
