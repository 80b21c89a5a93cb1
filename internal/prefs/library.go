package prefs

import (
	"log"
	"slices"

	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/google/uuid"
)

// Bookmarks returns the bookmarked articles, oldest first.
func (s *Store) Bookmarks() []news.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.bookmarks)
}

// IsBookmarked reports whether the article with url is bookmarked.
func (s *Store) IsBookmarked(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.st.bookmarks, url) >= 0
}

// ToggleBookmark adds the article if absent and removes it if present.
// It reports whether the article is bookmarked afterwards.
func (s *Store) ToggleBookmark(a news.Article) bool {
	var bookmarked bool
	s.update(func(st *state) bool {
		if i := indexOf(st.bookmarks, a.URL); i >= 0 {
			st.bookmarks = slices.Delete(slices.Clone(st.bookmarks), i, i+1)
			bookmarked = false
		} else {
			st.bookmarks = append(slices.Clone(st.bookmarks), a)
			bookmarked = true
		}
		return true
	}, KeyBookmarks)
	return bookmarked
}

func indexOf(articles []news.Article, url string) int {
	return slices.IndexFunc(articles, func(a news.Article) bool { return a.URL == url })
}

// IsRead reports whether the article with url has been read.
func (s *Store) IsRead(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.st.read[url]
	return ok
}

// ReadArticles returns the read article URLs, sorted.
func (s *Store) ReadArticles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.st.read)
}

// History returns the reading history, newest first.
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.history)
}

// MarkAsRead adds the article to the read set and prepends a history
// entry. History is not deduplicated and is capped at MaxHistory.
func (s *Store) MarkAsRead(a news.Article) HistoryEntry {
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Article:   a,
		Timestamp: s.now(),
	}
	s.update(func(st *state) bool {
		read := make(map[string]struct{}, len(st.read)+1)
		for k := range st.read {
			read[k] = struct{}{}
		}
		read[a.URL] = struct{}{}
		st.read = read

		if p, ok := st.progress[a.URL]; ok {
			entry.Progress = p
		}
		history := make([]HistoryEntry, 0, min(len(st.history)+1, MaxHistory))
		history = append(history, entry)
		history = append(history, st.history...)
		if len(history) > MaxHistory {
			history = history[:MaxHistory]
		}
		st.history = history
		return true
	}, KeyReadArticles, KeyReadingHistory)
	return entry
}

// UpdateProgress sets the reading progress of the most recent history
// entry for url, clamped to [0,1].
func (s *Store) UpdateProgress(url string, progress float64) {
	progress = clamp01(progress)
	s.update(func(st *state) bool {
		p := make(map[string]float64, len(st.progress)+1)
		for k, v := range st.progress {
			p[k] = v
		}
		p[url] = progress
		st.progress = p

		for i := range st.history {
			if st.history[i].Article.URL == url {
				history := slices.Clone(st.history)
				history[i].Progress = progress
				st.history = history
				return true
			}
		}
		log.Printf("No reading history for %s, recording progress only", url)
		return true
	}, KeyReadingHistory, KeyReadingProgress)
}

// Progress returns the recorded reading progress for url.
func (s *Store) Progress(url string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.progress[url]
}

// ClearReadingHistory clears the history, the read set and recorded progress.
func (s *Store) ClearReadingHistory() {
	s.update(func(st *state) bool {
		st.history = nil
		st.read = make(map[string]struct{})
		st.progress = make(map[string]float64)
		return true
	}, KeyReadingHistory, KeyReadArticles, KeyReadingProgress)
}
