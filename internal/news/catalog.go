package news

import (
	"slices"
	"strings"
)

// Country is a supported headline country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Countries lists the supported countries; the first entry is the fallback.
var Countries = []Country{
	{"in", "India"},
	{"us", "United States"},
	{"gb", "United Kingdom"},
	{"ca", "Canada"},
	{"au", "Australia"},
	{"sg", "Singapore"},
	{"jp", "Japan"},
	{"de", "Germany"},
	{"fr", "France"},
	{"it", "Italy"},
	{"ru", "Russia"},
	{"br", "Brazil"},
	{"mx", "Mexico"},
	{"za", "South Africa"},
	{"cn", "China"},
	{"ae", "UAE"},
	{"pk", "Pakistan"},
	{"ng", "Nigeria"},
}

// LookupCountry returns the country for code, falling back to the first entry.
func LookupCountry(code string) Country {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range Countries {
		if c.Code == code {
			return c
		}
	}
	return Countries[0]
}

// IsSupportedCountry reports whether code is in the country list.
func IsSupportedCountry(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return slices.ContainsFunc(Countries, func(c Country) bool { return c.Code == code })
}

// DefaultCategories are the feed categories shown to a new user.
var DefaultCategories = []string{
	"business", "entertainment", "environment", "food",
	"health", "politics", "science", "sports", "technology", "top", "world",
}

var interestSuggestions = map[string][]string{
	"business":      {"finance", "stocks", "economy", "startups", "investment", "markets"},
	"technology":    {"AI", "software", "gadgets", "web development", "mobile", "programming"},
	"health":        {"fitness", "nutrition", "medicine", "wellness", "mental health", "covid"},
	"sports":        {"cricket", "football", "tennis", "olympics", "basketball", "hockey"},
	"entertainment": {"movies", "music", "celebrities", "television", "streaming", "bollywood"},
	"science":       {"space", "research", "environment", "climate", "discoveries", "biology"},
}

// SuggestedInterests returns sorted interest suggestions for a category,
// or the union of all suggestions when the category is unknown or empty.
func SuggestedInterests(category string) []string {
	if s, ok := interestSuggestions[strings.ToLower(category)]; ok {
		out := slices.Clone(s)
		slices.Sort(out)
		return out
	}
	seen := make(map[string]struct{})
	var out []string
	for _, list := range interestSuggestions {
		for _, s := range list {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return out
}
