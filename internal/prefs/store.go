// Package prefs holds user preferences, bookmarks and reading history.
// Every mutation is persisted immediately through a Backend.
package prefs

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

// Backend is a logical key-value store for serialized settings.
type Backend interface {
	LoadSettings() (map[string]string, error)
	SaveSetting(key, value string) error
}

// Defaults are used for settings that have never been persisted.
type Defaults struct {
	Country            string
	AutoRefreshMinutes int
}

type state struct {
	country       string
	darkMode      bool
	notifications bool
	fontSize      FontSize
	theme         Theme
	categories    map[string]bool
	bookmarks     []news.Article
	interests     []string
	autoRefresh   int
	read          map[string]struct{}
	history       []HistoryEntry
	progress      map[string]float64
}

// Store is the process-wide preference context. It is safe for concurrent
// use; readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	st      state
	backend Backend
	now     func() time.Time

	subMu sync.Mutex
	subs  map[int]chan Change
	next  int
}

// Open loads persisted settings from backend. Values that fail to decode
// are logged and replaced by defaults.
func Open(backend Backend, defaults Defaults) (*Store, error) {
	raw, err := backend.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	country := strings.ToLower(defaults.Country)
	if !news.IsSupportedCountry(country) {
		country = "us"
	}

	s := &Store{
		backend: backend,
		now:     time.Now,
		subs:    make(map[int]chan Change),
		st: state{
			country:       country,
			notifications: true,
			fontSize:      FontMedium,
			theme:         ThemeSystem,
			categories:    defaultCategories(),
			autoRefresh:   max(0, defaults.AutoRefreshMinutes),
			read:          make(map[string]struct{}),
			progress:      make(map[string]float64),
		},
	}

	decode := func(key string, dst any) {
		v, ok := raw[key]
		if !ok {
			return
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			log.Printf("Ignoring unreadable setting %s: %v", key, err)
		}
	}

	st := &s.st
	var stored string
	decode(KeyCountry, &stored)
	if stored = strings.ToLower(stored); stored != "" {
		if news.IsSupportedCountry(stored) {
			st.country = stored
		} else {
			log.Printf("Ignoring unsupported stored country %q, using %q", stored, country)
		}
	}
	decode(KeyDarkMode, &st.darkMode)
	decode(KeyNotificationsEnabled, &st.notifications)
	decode(KeyFontSize, &st.fontSize)
	decode(KeyAppTheme, &st.theme)
	decode(KeyInterests, &st.interests)
	decode(KeyBookmarks, &st.bookmarks)
	decode(KeyAutoRefreshInterval, &st.autoRefresh)
	decode(KeyReadingHistory, &st.history)
	decode(KeyReadingProgress, &st.progress)

	var cats map[string]bool
	decode(KeyShowCategories, &cats)
	for k, v := range cats {
		st.categories[k] = v
	}

	var read []string
	decode(KeyReadArticles, &read)
	for _, u := range read {
		st.read[u] = struct{}{}
	}

	if st.progress == nil {
		st.progress = make(map[string]float64)
	}
	if len(st.history) > MaxHistory {
		st.history = st.history[:MaxHistory]
	}
	st.bookmarks = news.Dedupe(st.bookmarks)

	return s, nil
}

func defaultCategories() map[string]bool {
	m := make(map[string]bool, len(news.DefaultCategories))
	for _, c := range news.DefaultCategories {
		m[c] = true
	}
	return m
}

// value returns the persisted representation of key.
func (st *state) value(key string) any {
	switch key {
	case KeyCountry:
		return st.country
	case KeyDarkMode:
		return st.darkMode
	case KeyNotificationsEnabled:
		return st.notifications
	case KeyFontSize:
		return st.fontSize
	case KeyAppTheme:
		return st.theme
	case KeyShowCategories:
		return st.categories
	case KeyBookmarks:
		return st.bookmarks
	case KeyInterests:
		return st.interests
	case KeyAutoRefreshInterval:
		return st.autoRefresh
	case KeyReadArticles:
		return sortedKeys(st.read)
	case KeyReadingHistory:
		return st.history
	case KeyReadingProgress:
		return st.progress
	}
	return nil
}

// update applies fn under the write lock, persists the named keys and
// notifies subscribers. Persistence failures never fail the mutation.
func (s *Store) update(fn func(st *state) bool, keys ...string) {
	s.mu.Lock()
	changed := fn(&s.st)
	if changed {
		for _, key := range keys {
			s.persist(key, s.st.value(key))
		}
	}
	s.mu.Unlock()

	if changed {
		for _, key := range keys {
			s.notify(Change{Key: key})
		}
	}
}

func (s *Store) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Encoding setting %s: %v", key, err)
		metrics.PersistFailures.Inc()
		return
	}
	if err := s.backend.SaveSetting(key, string(data)); err != nil {
		log.Printf("Saving setting %s failed, retrying: %v", key, err)
		if err := s.backend.SaveSetting(key, string(data)); err != nil {
			log.Printf("Saving setting %s: %v", key, err)
			metrics.PersistFailures.Inc()
		}
	}
}

// Subscribe returns a channel of setting changes and a function that
// cancels the subscription. Changes are dropped for slow subscribers.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Change, 16)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Snapshot returns a copy of all preferences.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &s.st

	cats := make(map[string]bool, len(st.categories))
	for k, v := range st.categories {
		cats[k] = v
	}
	progress := make(map[string]float64, len(st.progress))
	for k, v := range st.progress {
		progress[k] = v
	}

	return Snapshot{
		Country:              st.country,
		DarkMode:             st.darkMode,
		NotificationsEnabled: st.notifications,
		FontSize:             st.fontSize.String(),
		Theme:                st.theme.String(),
		VisibleCategories:    cats,
		Bookmarks:            slices.Clone(st.bookmarks),
		Interests:            slices.Clone(st.interests),
		AutoRefreshMinutes:   st.autoRefresh,
		ReadArticles:         sortedKeys(st.read),
		History:              slices.Clone(st.history),
		ReadingProgress:      progress,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
