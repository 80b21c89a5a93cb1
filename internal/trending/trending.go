// Package trending derives ranked keywords from headline text.
package trending

import (
	"sort"
	"strings"
	"unicode"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// DefaultTopN is the number of terms returned when topN <= 0.
const DefaultTopN = 10

// minTokenLen is the length a token must exceed to count.
const minTokenLen = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "that": true, "have": true, "for": true,
	"not": true, "with": true, "you": true, "this": true, "but": true,
	"from": true, "will": true, "what": true, "about": true, "after": true,
	"over": true, "into": true, "more": true, "their": true, "they": true,
	"been": true, "were": true, "when": true, "your": true, "than": true,
	"says": true, "said": true, "could": true, "would": true, "which": true,
}

// Topic is a term and the number of times it occurred.
type Topic struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
}

// Tokenize splits text on non-alphanumeric boundaries, lowercases, and
// drops short tokens and stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) <= minTokenLen || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Topics counts tokens across all headline titles and returns the terms
// seen more than once, most frequent first. Ties keep first-occurrence order.
func Topics(headlines []news.Article, topN int) []Topic {
	if topN <= 0 {
		topN = DefaultTopN
	}

	counts := make(map[string]int)
	var order []string
	for _, a := range headlines {
		for _, tok := range Tokenize(a.Title) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	topics := make([]Topic, 0, len(order))
	for _, term := range order {
		if counts[term] > 1 {
			topics = append(topics, Topic{Term: term, Frequency: counts[term]})
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Frequency > topics[j].Frequency
	})

	if len(topics) > topN {
		topics = topics[:topN]
	}
	return topics
}

// Extract returns the trending terms of headlines.
func Extract(headlines []news.Article, topN int) []string {
	topics := Topics(headlines, topN)
	terms := make([]string, len(topics))
	for i, t := range topics {
		terms[i] = t.Term
	}
	return terms
}

// Keywords returns up to n distinct tokens of text in order of appearance.
func Keywords(text string, n int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(text) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == n {
			break
		}
	}
	return out
}
