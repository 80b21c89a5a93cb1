package prefs

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// Country returns the selected country code.
func (s *Store) Country() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.country
}

// SetCountry selects a supported country.
func (s *Store) SetCountry(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if !news.IsSupportedCountry(code) {
		return fmt.Errorf("unsupported country %q", code)
	}
	s.update(func(st *state) bool {
		if st.country == code {
			return false
		}
		st.country = code
		return true
	}, KeyCountry)
	return nil
}

// DarkMode reports whether dark mode is on.
func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.darkMode
}

func (s *Store) SetDarkMode(on bool) {
	s.update(func(st *state) bool {
		changed := st.darkMode != on
		st.darkMode = on
		return changed
	}, KeyDarkMode)
}

func (s *Store) NotificationsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.notifications
}

func (s *Store) SetNotificationsEnabled(on bool) {
	s.update(func(st *state) bool {
		changed := st.notifications != on
		st.notifications = on
		return changed
	}, KeyNotificationsEnabled)
}

func (s *Store) FontSize() FontSize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.fontSize
}

func (s *Store) SetFontSize(f FontSize) {
	s.update(func(st *state) bool {
		changed := st.fontSize != f
		st.fontSize = f
		return changed
	}, KeyFontSize)
}

func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.theme
}

func (s *Store) SetTheme(t Theme) {
	s.update(func(st *state) bool {
		changed := st.theme != t
		st.theme = t
		return changed
	}, KeyAppTheme)
}

// AutoRefreshInterval returns the refresh interval in minutes; 0 means disabled.
func (s *Store) AutoRefreshInterval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.autoRefresh
}

// SetAutoRefreshInterval sets the refresh interval in minutes. Negative
// values disable auto-refresh.
func (s *Store) SetAutoRefreshInterval(minutes int) {
	minutes = max(0, minutes)
	s.update(func(st *state) bool {
		changed := st.autoRefresh != minutes
		st.autoRefresh = minutes
		return changed
	}, KeyAutoRefreshInterval)
}

// Interests returns the interests in insertion order.
func (s *Store) Interests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.interests)
}

// ToggleInterest removes term if present, otherwise appends it.
// It reports whether term is an interest afterwards.
func (s *Store) ToggleInterest(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	var present bool
	s.update(func(st *state) bool {
		if i := slices.Index(st.interests, term); i >= 0 {
			st.interests = slices.Delete(slices.Clone(st.interests), i, i+1)
			present = false
		} else {
			st.interests = append(slices.Clone(st.interests), term)
			present = true
		}
		return true
	}, KeyInterests)
	return present
}

func (s *Store) ClearAllInterests() {
	s.update(func(st *state) bool {
		if len(st.interests) == 0 {
			return false
		}
		st.interests = nil
		return true
	}, KeyInterests)
}

// SuggestedInterests returns interest suggestions for a category.
func (s *Store) SuggestedInterests(category string) []string {
	return news.SuggestedInterests(category)
}

// ToggleCategoryVisibility shows or hides a category.
func (s *Store) ToggleCategoryVisibility(category string, visible bool) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return
	}
	s.update(func(st *state) bool {
		if cur, ok := st.categories[category]; ok && cur == visible {
			return false
		}
		cats := make(map[string]bool, len(st.categories)+1)
		for k, v := range st.categories {
			cats[k] = v
		}
		cats[category] = visible
		st.categories = cats
		return true
	}, KeyShowCategories)
}

// AllCategories returns every known category, sorted.
func (s *Store) AllCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.st.categories)
}

// VisibleCategories returns the visible categories, sorted.
func (s *Store) VisibleCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k, v := range s.st.categories {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
