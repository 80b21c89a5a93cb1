package database

// Summary is a cached article summary.
type Summary struct {
	URL         string
	Summary     string
	KeyPoints   []string
	Generator   string // "llm" or "template"
	GeneratedAt *string
}

// RefreshRun records one refresh cycle.
type RefreshRun struct {
	ID        int64
	Trigger   string // "manual", "scheduler" or "startup"
	Country   *string
	StartedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Settings    int
	Summaries   int
	RefreshRuns int
	LastRefresh *string
}
