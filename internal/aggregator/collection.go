package aggregator

import (
	"slices"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// Collection names.
const (
	Headlines    = "headlines"
	Search       = "search"
	Personalized = "personalized"
	Related      = "related"
	Trending     = "trending"
)

// CategoryCollection returns the collection name of a category feed.
func CategoryCollection(category string) string { return "category/" + category }

// SectionCollection returns the collection name of a Guardian section.
func SectionCollection(section string) string { return "section/" + section }

// FeedCollection returns the collection name of an RSS feed.
func FeedCollection(name string) string { return "feed/" + name }

// Collection is a published article list with its loading and error flags.
type Collection struct {
	Name      string         `json:"name"`
	Articles  []news.Article `json:"articles"`
	Loading   bool           `json:"loading"`
	Err       error          `json:"-"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Event announces that a collection changed.
type Event struct {
	Collection string
}

// collection tracks sequence numbers so that a completion older than the
// last settled fetch is discarded.
type collection struct {
	articles  []news.Article
	err       error
	updatedAt time.Time
	issued    uint64
	settled   uint64
}

func (c *collection) loading() bool {
	return c.issued > c.settled
}

func (c *collection) snapshot(name string) Collection {
	out := Collection{
		Name:      name,
		Articles:  slices.Clone(c.articles),
		Loading:   c.loading(),
		Err:       c.err,
		UpdatedAt: c.updatedAt,
	}
	if c.err != nil {
		out.Error = c.err.Error()
	}
	return out
}
