// Package app wires configuration, storage, providers and the aggregator
// into one runnable news client.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/aggregator"
	"github.com/TobiSchelling/newsdesk/internal/cache"
	"github.com/TobiSchelling/newsdesk/internal/config"
	"github.com/TobiSchelling/newsdesk/internal/database"
	"github.com/TobiSchelling/newsdesk/internal/fetch"
	"github.com/TobiSchelling/newsdesk/internal/llm"
	"github.com/TobiSchelling/newsdesk/internal/prefs"
	"github.com/TobiSchelling/newsdesk/internal/provider"
	"github.com/TobiSchelling/newsdesk/internal/scheduler"
	"github.com/TobiSchelling/newsdesk/internal/summary"
)

// Refresh triggers recorded in the database.
const (
	TriggerManual    = "manual"
	TriggerScheduler = "scheduler"
	TriggerStartup   = "startup"
)

// App owns every long-lived component.
type App struct {
	Config    *config.Config
	DB        *database.DB
	Prefs     *prefs.Store
	Router    *provider.Router
	Feeds     *provider.Feeds
	Weather   *provider.Weather
	Cache     *cache.Cache
	News      *aggregator.Aggregator
	Scheduler *scheduler.Scheduler
	Summaries *summary.Service
}

// Options overrides components built from config, for tests.
type Options struct {
	Providers []provider.Provider
	LLM       llm.Provider
	NoLLM     bool
}

// New builds the application from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	db, err := database.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	store, err := prefs.Open(db, prefs.Defaults{
		Country:            cfg.Preferences.DefaultCountry,
		AutoRefreshMinutes: cfg.Preferences.AutoRefresh,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening preferences: %w", err)
	}

	a := &App{Config: cfg, DB: db, Prefs: store}

	feeds := make([]provider.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, provider.Feed{Name: f.Name, URL: f.URL})
	}
	a.Feeds = provider.NewFeeds(feeds, provider.Options{Timeout: cfg.Providers.Timeout})
	weatherOpts := providerOptions(cfg.Providers.Weather, cfg.Providers.Timeout)
	if !cfg.Providers.Weather.Enabled {
		weatherOpts.APIKey = ""
	}
	a.Weather = provider.NewWeather(weatherOpts)

	providers := opts.Providers
	if providers == nil {
		providers = buildProviders(cfg, a.Feeds)
	}
	a.Router = provider.NewRouter(providers...)

	var cacheOpts []cache.Option
	for kind, ttl := range cfg.Cache.TTLs() {
		cacheOpts = append(cacheOpts, cache.WithTTL(kind, ttl))
	}
	a.Cache = cache.New(cacheOpts...)
	a.News = aggregator.New(a.Router, a.Cache, store)

	llmProvider := opts.LLM
	if llmProvider == nil && !opts.NoLLM {
		llmProvider = createLLM(cfg.Summarization)
	}
	var enricher summary.Enricher
	if cfg.Summarization.FetchFullText {
		enricher = fetch.NewContentFetcher(cfg.Providers.Timeout)
	}
	a.Summaries = summary.NewService(db, llmProvider, enricher)

	a.Scheduler = scheduler.New(func() {
		a.Refresh(context.Background(), TriggerScheduler)
	})

	return a, nil
}

func providerOptions(p config.ProviderConfig, timeout time.Duration) provider.Options {
	return provider.Options{APIKey: p.APIKey(), BaseURL: p.BaseURL, Timeout: timeout}
}

// buildProviders returns the enabled providers in routing order: the
// configured news backend first, then Guardian, then feeds.
func buildProviders(cfg *config.Config, feeds *provider.Feeds) []provider.Provider {
	pc := cfg.Providers
	var out []provider.Provider

	switch pc.NewsBackend {
	case "newsdata":
		if pc.NewsData.Enabled {
			out = append(out, provider.NewNewsData(providerOptions(pc.NewsData, pc.Timeout)))
		}
	default:
		if pc.NewsAPI.Enabled {
			out = append(out, provider.NewNewsAPI(providerOptions(pc.NewsAPI, pc.Timeout)))
		}
	}
	if pc.Guardian.Enabled {
		out = append(out, provider.NewGuardian(providerOptions(pc.Guardian, pc.Timeout)))
	}
	if len(feeds.List()) > 0 {
		out = append(out, feeds)
	}
	return out
}

func createLLM(s config.Summarization) llm.Provider {
	var key string
	if s.APIKeyEnv != "" {
		key = os.Getenv(s.APIKeyEnv)
	}
	return llm.CreateProvider(llm.Config{
		Provider:      s.Provider,
		Model:         s.Model,
		OllamaURL:     s.OllamaURL,
		OpenAIModel:   s.OpenAIModel,
		OpenAIBaseURL: s.OpenAIBaseURL,
		APIKey:        key,
	})
}

// Refresh records a refresh run and starts refreshing every collection.
// It returns before the fetches complete.
func (a *App) Refresh(ctx context.Context, trigger string) {
	country := a.Prefs.Country()
	if _, err := a.DB.InsertRefreshRun(trigger, country); err != nil {
		log.Printf("Error recording refresh run: %v", err)
	}
	log.Printf("Refreshing news (%s, country=%s)", trigger, country)
	a.News.RefreshAll(ctx)
}

// Run arms the auto-refresh scheduler from preferences and keeps it in
// sync with the interval setting until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Refresh(ctx, TriggerStartup)
	a.Scheduler.Watch(ctx, a.Prefs)
}

// Status summarizes the running configuration and stored data.
type Status struct {
	Providers     []string
	NewsBackend   string
	Feeds         int
	Country       string
	AutoRefresh   scheduler.State
	CachedQueries int
	DBPath        string
	SchemaVersion int
	Stats         *database.Stats
}

// Status collects the current application status.
func (a *App) Status() (*Status, error) {
	stats, err := a.DB.GetStats()
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	version, err := a.DB.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}

	auto := a.Scheduler.State()
	if !auto.Armed && a.Prefs.AutoRefreshInterval() > 0 {
		auto.Interval = time.Duration(a.Prefs.AutoRefreshInterval()) * time.Minute
	}

	return &Status{
		Providers:     a.Router.Names(),
		NewsBackend:   a.Config.Providers.NewsBackend,
		Feeds:         len(a.Feeds.List()),
		Country:       a.Prefs.Country(),
		AutoRefresh:   auto,
		CachedQueries: a.Cache.Len(),
		DBPath:        a.DB.Path(),
		SchemaVersion: version,
		Stats:         stats,
	}, nil
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	a.Scheduler.Stop()
	a.News.Wait()
	return a.DB.Close()
}
