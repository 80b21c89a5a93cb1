package news

import (
	"net/url"
	"strconv"
	"strings"
)

// Kind is the type of request a Query represents.
type Kind string

const (
	KindHeadlines       Kind = "headlines"
	KindCategory        Kind = "category"
	KindSearch          Kind = "search"
	KindPersonalized    Kind = "personalized"
	KindGuardianSection Kind = "guardianSection"
	KindFeed            Kind = "feed"
)

// Query is a request signature. Its Key is used as the cache key.
type Query struct {
	Kind     Kind
	Country  string
	Category string
	Query    string
	Section  string
	Source   string
	SortBy   string
	Page     int
	PageSize int
}

// Normalize lowercases and trims the case-insensitive parameters, so that
// "Sports" and "sports" address the same cache entry and collection.
func (q Query) Normalize() Query {
	q.Country = strings.ToLower(strings.TrimSpace(q.Country))
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	q.Section = strings.ToLower(strings.TrimSpace(q.Section))
	return q
}

// Key returns a stable serialization of the query: the kind followed by
// the non-empty parameters in sorted order.
func (q Query) Key() string {
	q = q.Normalize()
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("country", q.Country)
	set("category", q.Category)
	set("q", q.Query)
	set("section", q.Section)
	set("source", q.Source)
	set("sortBy", q.SortBy)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if len(v) == 0 {
		return string(q.Kind)
	}
	return string(q.Kind) + "?" + v.Encode()
}

// NormalizeCategory maps the "no filter" categories to "".
// Providers must never send "top" as a literal category filter.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	switch c {
	case "", "top", "all":
		return ""
	}
	return c
}
