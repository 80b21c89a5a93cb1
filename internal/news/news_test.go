package news

import (
	"errors"
	"strings"
	"testing"
)

func TestReadingTimeMinimumOne(t *testing.T) {
	a := Article{Title: "", URL: "https://a.com"}
	if got := a.ReadingTimeMinutes(); got != 1 {
		t.Errorf("expected 1 minute, got %d", got)
	}
}

func TestReadingTimeRoundsUp(t *testing.T) {
	content := strings.Repeat("word ", 395)
	a := Article{
		Title:       "three word title",
		Description: Ptr("two words"),
		Content:     &content,
		URL:         "https://a.com",
	}
	// 3 + 2 + 395 = 400 words -> exactly 2 minutes
	if got := a.ReadingTimeMinutes(); got != 2 {
		t.Errorf("expected 2 minutes, got %d", got)
	}

	more := content + "extra"
	a.Content = &more
	if got := a.ReadingTimeMinutes(); got != 3 {
		t.Errorf("expected 3 minutes, got %d", got)
	}
}

func TestArticleEqualByURL(t *testing.T) {
	a := Article{Title: "One", URL: "https://a.com/x"}
	b := Article{Title: "Two", URL: "https://a.com/x"}
	c := Article{Title: "One", URL: "https://a.com/y"}
	if !a.Equal(b) {
		t.Error("expected articles with the same URL to be equal")
	}
	if a.Equal(c) {
		t.Error("expected articles with different URLs to differ")
	}
}

func TestQueryKeyStable(t *testing.T) {
	q1 := Query{Kind: KindHeadlines, Country: "US", Page: 1, PageSize: 20}
	q2 := Query{PageSize: 20, Page: 1, Country: "us", Kind: KindHeadlines}
	if q1.Key() != q2.Key() {
		t.Errorf("expected equal keys, got %q and %q", q1.Key(), q2.Key())
	}
	if q1.Key() != "headlines?country=us&page=1&pageSize=20" {
		t.Errorf("unexpected key %q", q1.Key())
	}

	q3 := Query{Kind: KindCategory, Country: "us", Category: "sports", Page: 1, PageSize: 20}
	if q1.Key() == q3.Key() {
		t.Error("expected different kinds to produce different keys")
	}
	if (Query{Kind: KindSearch}).Key() != "search" {
		t.Errorf("unexpected bare key %q", (Query{Kind: KindSearch}).Key())
	}
}

func TestQueryKeyIgnoresCase(t *testing.T) {
	a := Query{Kind: KindCategory, Country: "gb", Category: "sports", Page: 1, PageSize: 20}
	b := Query{Kind: KindCategory, Country: "GB", Category: " Sports", Page: 1, PageSize: 20}
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	s1 := Query{Kind: KindGuardianSection, Section: "World"}
	s2 := Query{Kind: KindGuardianSection, Section: "world"}
	if s1.Key() != s2.Key() {
		t.Errorf("expected equal section keys, got %q and %q", s1.Key(), s2.Key())
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"top":        "",
		"TOP":        "",
		"":           "",
		"all":        "",
		" Sports ":   "sports",
		"technology": "technology",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	in := []Article{
		{Title: "first", URL: "https://a.com"},
		{Title: "other", URL: "https://b.com"},
		{Title: "second", URL: "https://a.com"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(out))
	}
	if out[0].Title != "first" {
		t.Errorf("expected first occurrence kept, got %q", out[0].Title)
	}
}

func TestLookupCountryFallback(t *testing.T) {
	if c := LookupCountry("GB"); c.Name != "United Kingdom" {
		t.Errorf("expected United Kingdom, got %q", c.Name)
	}
	if c := LookupCountry("zz"); c.Code != Countries[0].Code {
		t.Errorf("expected fallback %q, got %q", Countries[0].Code, c.Code)
	}
}

func TestSuggestedInterests(t *testing.T) {
	sports := SuggestedInterests("Sports")
	if len(sports) != 6 || sports[0] != "basketball" {
		t.Errorf("unexpected sports suggestions: %v", sports)
	}
	all := SuggestedInterests("")
	if len(all) <= len(sports) {
		t.Errorf("expected union of suggestions, got %d", len(all))
	}
}

func TestErrorTypes(t *testing.T) {
	var err error = &TransportError{Provider: "newsapi", Err: errors.New("dial tcp: timeout")}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatal("expected TransportError")
	}

	err = &HTTPError{Provider: "guardian", StatusCode: 429}
	if !strings.Contains(err.Error(), "Too Many Requests") {
		t.Errorf("expected status text in message, got %q", err.Error())
	}
}
