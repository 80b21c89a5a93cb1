// Package summary produces short article summaries, cached per article URL.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/newsdesk/internal/database"
	"github.com/TobiSchelling/newsdesk/internal/llm"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

// Generators recorded with each summary.
const (
	GeneratorLLM      = "llm"
	GeneratorTemplate = "template"
)

const maxContentChars = 4000

const summaryPrompt = `Summarize the following news article in 3-4 sentences. Include the main points only.

Title: %s
Source: %s

%s

%s

Respond with ONLY this JSON:
{
    "summary": "The 3-4 sentence summary",
    "key_points": ["First key point", "Second key point", "Third key point"]
}`

var relevanceKeywords = []string{
	"economy", "politics", "technology", "health",
	"environment", "society", "global affairs", "local community",
}

// Summary is a generated article summary.
type Summary struct {
	URL       string   `json:"url"`
	Text      string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Generator string   `json:"generator"`
}

// Markdown renders the summary with its key points as a bullet list.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Text))
	if len(s.KeyPoints) > 0 {
		b.WriteString("\n\n**Key points:**\n\n")
		for _, p := range s.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String()
}

// Store persists summaries by article URL.
type Store interface {
	GetSummary(url string) (*database.Summary, error)
	SaveSummary(url, summary string, keyPoints []string, generator string) error
	ClearSummaries() (int64, error)
}

// Enricher fills in missing or truncated article content.
type Enricher interface {
	Enrich(ctx context.Context, a news.Article) news.Article
}

// Service summarizes articles with an LLM, falling back to a template.
type Service struct {
	store    Store
	provider llm.Provider
	enricher Enricher
}

// NewService creates a summary service. provider and enricher may be nil.
func NewService(store Store, provider llm.Provider, enricher Enricher) *Service {
	return &Service{store: store, provider: provider, enricher: enricher}
}

// Summarize returns the cached summary of a, generating and storing one
// when none exists.
func (s *Service) Summarize(ctx context.Context, a news.Article) (*Summary, error) {
	if strings.TrimSpace(a.URL) == "" {
		return nil, news.ErrEmptyInput
	}

	cached, err := s.store.GetSummary(a.URL)
	if err != nil {
		log.Printf("Error reading cached summary for %s: %v", a.URL, err)
	}
	if cached != nil {
		return &Summary{
			URL:       cached.URL,
			Text:      cached.Summary,
			KeyPoints: cached.KeyPoints,
			Generator: cached.Generator,
		}, nil
	}

	sum := s.generate(ctx, a)
	if err := s.store.SaveSummary(sum.URL, sum.Text, sum.KeyPoints, sum.Generator); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}
	return sum, nil
}

// Clear drops every cached summary.
func (s *Service) Clear() (int64, error) {
	return s.store.ClearSummaries()
}

func (s *Service) generate(ctx context.Context, a news.Article) *Summary {
	if s.provider == nil {
		return Template(a)
	}

	if s.enricher != nil {
		a = s.enricher.Enrich(ctx, a)
	}

	sum, err := s.generateLLM(ctx, a)
	if err != nil {
		log.Printf("LLM summary failed for %s, using template: %v", a.URL, err)
		return Template(a)
	}
	return sum
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (s *Service) generateLLM(ctx context.Context, a news.Article) (*Summary, error) {
	content := truncateRunes(news.Deref(a.Content), maxContentChars)
	prompt := fmt.Sprintf(summaryPrompt, a.Title, a.Source.Name, news.Deref(a.Description), content)

	text, err := s.provider.Generate(ctx, prompt, 400)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	}
	if err := llm.DecodeJSON(text, &parsed); err != nil {
		// Models sometimes answer in prose; accept it as the summary.
		if t := strings.TrimSpace(text); t != "" && !strings.HasPrefix(t, "{") {
			return &Summary{URL: a.URL, Text: t, Generator: GeneratorLLM}, nil
		}
		return nil, err
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("empty summary in LLM response")
	}
	return &Summary{
		URL:       a.URL,
		Text:      strings.TrimSpace(parsed.Summary),
		KeyPoints: parsed.KeyPoints,
		Generator: GeneratorLLM,
	}, nil
}

// Template builds a deterministic summary from the article's metadata.
func Template(a news.Article) *Summary {
	title := strings.ReplaceAll(strings.ToLower(a.Title), ".", "")
	text := fmt.Sprintf(
		"This article from %s discusses %s.\n\nIn conclusion, this is an important development worth following for its impact on %s.",
		a.Source.Name, title, relevance(a.Title),
	)
	return &Summary{
		URL:  a.URL,
		Text: text,
		KeyPoints: []string{
			keyPoint(a.Title),
			keyPoint(news.Deref(a.Description)),
			"The article provides context on the implications and potential outcomes.",
		},
		Generator: GeneratorTemplate,
	}
}

// keyPoint turns the first sentence of text into a capitalized sentence.
func keyPoint(text string) string {
	sentence, _, _ := strings.Cut(strings.TrimSpace(text), ". ")
	if sentence == "" {
		return "The article provides detailed information on this topic."
	}
	r, size := utf8.DecodeRuneInString(sentence)
	sentence = string(unicode.ToUpper(r)) + sentence[size:]
	if !strings.HasSuffix(sentence, ".") {
		sentence += "."
	}
	return sentence
}

func relevance(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return "current events"
}
