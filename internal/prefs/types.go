package prefs

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// MaxHistory is the number of reading history entries kept.
const MaxHistory = 100

// Persisted setting keys.
const (
	KeyCountry              = "country_code"
	KeyDarkMode             = "dark_mode"
	KeyNotificationsEnabled = "notifications_enabled"
	KeyFontSize             = "font_size"
	KeyShowCategories       = "show_categories"
	KeyBookmarks            = "bookmarked_articles"
	KeyInterests            = "interests"
	KeyAutoRefreshInterval  = "auto_refresh_interval"
	KeyReadArticles         = "read_articles"
	KeyReadingHistory       = "reading_history"
	KeyAppTheme             = "app_theme"
	KeyReadingProgress      = "reading_progress"
)

// FontSize is the reading font size.
type FontSize int

const (
	FontSmall FontSize = iota
	FontMedium
	FontLarge
)

var fontSizeNames = []string{"small", "medium", "large"}

func (f FontSize) String() string {
	if f < 0 || int(f) >= len(fontSizeNames) {
		return fontSizeNames[FontMedium]
	}
	return fontSizeNames[f]
}

// ParseFontSize parses a font size name.
func ParseFontSize(s string) (FontSize, error) {
	for i, name := range fontSizeNames {
		if strings.EqualFold(s, name) {
			return FontSize(i), nil
		}
	}
	return FontMedium, fmt.Errorf("unknown font size %q (want one of %s)", s, strings.Join(fontSizeNames, ", "))
}

// Theme is the application color theme.
type Theme int

const (
	ThemeSystem Theme = iota
	ThemeLight
	ThemeDark
	ThemeBlue
	ThemeGreen
	ThemeOrange
)

var themeNames = []string{"system", "light", "dark", "blue", "green", "orange"}

func (t Theme) String() string {
	if t < 0 || int(t) >= len(themeNames) {
		return themeNames[ThemeSystem]
	}
	return themeNames[t]
}

// ParseTheme parses a theme name.
func ParseTheme(s string) (Theme, error) {
	for i, name := range themeNames {
		if strings.EqualFold(s, name) {
			return Theme(i), nil
		}
	}
	return ThemeSystem, fmt.Errorf("unknown theme %q (want one of %s)", s, strings.Join(themeNames, ", "))
}

// HistoryEntry is one read event.
type HistoryEntry struct {
	ID        string       `json:"id"`
	Article   news.Article `json:"article"`
	Timestamp time.Time    `json:"timestamp"`
	Progress  float64      `json:"progress"`
}

// Snapshot is a copy of all preferences.
type Snapshot struct {
	Country              string             `json:"country"`
	DarkMode             bool               `json:"darkMode"`
	NotificationsEnabled bool               `json:"notificationsEnabled"`
	FontSize             string             `json:"fontSize"`
	Theme                string             `json:"theme"`
	VisibleCategories    map[string]bool    `json:"visibleCategories"`
	Bookmarks            []news.Article     `json:"bookmarks"`
	Interests            []string           `json:"interests"`
	AutoRefreshMinutes   int                `json:"autoRefreshMinutes"`
	ReadArticles         []string           `json:"readArticles"`
	History              []HistoryEntry     `json:"history"`
	ReadingProgress      map[string]float64 `json:"readingProgress"`
}

// Change is emitted after a setting has been updated.
type Change struct {
	Key string
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
