package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

const appName = "newsdesk"

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Providers     Providers     `yaml:"providers"`
	Feeds         []Feed        `yaml:"feeds"`
	Cache         Cache         `yaml:"cache"`
	Preferences   Preferences   `yaml:"preferences"`
	Summarization Summarization `yaml:"summarization"`
	Output        Output        `yaml:"output"`
	Server        Server        `yaml:"server"`
	Logging       Logging       `yaml:"logging"`
}

type Providers struct {
	// NewsBackend selects the API that serves headlines, categories and
	// search: "newsapi" or "newsdata".
	NewsBackend string         `yaml:"news_backend"`
	Timeout     time.Duration  `yaml:"timeout"`
	NewsAPI     ProviderConfig `yaml:"newsapi"`
	NewsData    ProviderConfig `yaml:"newsdata"`
	Guardian    ProviderConfig `yaml:"guardian"`
	Weather     ProviderConfig `yaml:"weather"`
}

type ProviderConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// APIKey reads the provider's key from its environment variable.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Cache holds per-kind cache lifetimes. Zero disables caching for a kind.
type Cache struct {
	Headlines       time.Duration `yaml:"headlines"`
	Category        time.Duration `yaml:"category"`
	Search          time.Duration `yaml:"search"`
	Personalized    time.Duration `yaml:"personalized"`
	GuardianSection time.Duration `yaml:"guardian_section"`
	Feed            time.Duration `yaml:"feed"`
}

// TTLs returns the lifetimes keyed by query kind.
func (c Cache) TTLs() map[news.Kind]time.Duration {
	return map[news.Kind]time.Duration{
		news.KindHeadlines:       c.Headlines,
		news.KindCategory:        c.Category,
		news.KindSearch:          c.Search,
		news.KindPersonalized:    c.Personalized,
		news.KindGuardianSection: c.GuardianSection,
		news.KindFeed:            c.Feed,
	}
}

type Preferences struct {
	DefaultCountry string `yaml:"default_country"`
	// AutoRefresh is the initial auto-refresh interval in minutes; 0 disables.
	AutoRefresh int `yaml:"auto_refresh"`
}

type Summarization struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	OllamaURL     string `yaml:"ollama_url"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
	FetchFullText bool   `yaml:"fetch_full_text"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newsdesk.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir returns the XDG data directory for newsdesk.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// ResolveConfigPath finds the config file following priority:
// explicit path > $XDG_CONFIG_HOME/newsdesk/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsdesk init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Providers: Providers{
			NewsBackend: "newsapi",
			Timeout:     20 * time.Second,
			NewsAPI:     ProviderConfig{Enabled: true, APIKeyEnv: "NEWSAPI_KEY"},
			NewsData:    ProviderConfig{APIKeyEnv: "NEWSDATA_KEY"},
			Guardian:    ProviderConfig{Enabled: true, APIKeyEnv: "GUARDIAN_API_KEY"},
			Weather:     ProviderConfig{Enabled: true, APIKeyEnv: "OPENWEATHER_API_KEY"},
		},
		Cache: Cache{
			Headlines:       15 * time.Minute,
			Category:        15 * time.Minute,
			Search:          0,
			Personalized:    7*time.Minute + 30*time.Second,
			GuardianSection: 15 * time.Minute,
			Feed:            15 * time.Minute,
		},
		Preferences: Preferences{
			DefaultCountry: "us",
			AutoRefresh:    15,
		},
		Summarization: Summarization{
			Provider:      "ollama",
			Model:         "qwen2.5:7b",
			OllamaURL:     "http://localhost:11434",
			OpenAIModel:   "gpt-4o-mini",
			APIKeyEnv:     "OPENAI_API_KEY",
			FetchFullText: true,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Providers.NewsBackend {
	case "newsapi", "newsdata":
	default:
		return fmt.Errorf("invalid news_backend %q: must be newsapi or newsdata", c.Providers.NewsBackend)
	}
	if c.Preferences.AutoRefresh < 0 {
		return fmt.Errorf("invalid auto_refresh %d: must be >= 0", c.Preferences.AutoRefresh)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Providers.Timeout)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "newsdesk.db")
}
