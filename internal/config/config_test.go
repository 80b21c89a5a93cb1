package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	if cfg.Providers.NewsBackend != "newsapi" {
		t.Errorf("expected backend 'newsapi', got %q", cfg.Providers.NewsBackend)
	}
	if cfg.Providers.Timeout != 20*time.Second {
		t.Errorf("expected 20s timeout, got %s", cfg.Providers.Timeout)
	}
	if cfg.Summarization.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Summarization.Provider)
	}
	if cfg.Preferences.DefaultCountry != "us" || cfg.Preferences.AutoRefresh != 15 {
		t.Errorf("unexpected preferences %+v", cfg.Preferences)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestDefaultCacheTTLs(t *testing.T) {
	ttls := Default().Cache.TTLs()
	want := map[news.Kind]time.Duration{
		news.KindHeadlines:       15 * time.Minute,
		news.KindCategory:        15 * time.Minute,
		news.KindSearch:          0,
		news.KindPersonalized:    450 * time.Second,
		news.KindGuardianSection: 15 * time.Minute,
		news.KindFeed:            15 * time.Minute,
	}
	for kind, d := range want {
		if ttls[kind] != d {
			t.Errorf("TTL(%s) = %s, want %s", kind, ttls[kind], d)
		}
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
summarization:
  provider: openai
  model: gpt-4o
cache:
  headlines: 5m
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Summarization.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Summarization.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Cache.Headlines != 5*time.Minute {
		t.Errorf("expected 5m headlines TTL, got %s", cfg.Cache.Headlines)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Summarization.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Summarization.OllamaURL)
	}
	if cfg.Cache.Category != 15*time.Minute {
		t.Errorf("expected default category TTL, got %s", cfg.Cache.Category)
	}
	if cfg.Providers.NewsAPI.APIKeyEnv != "NEWSAPI_KEY" {
		t.Errorf("expected default newsapi key env, got %q", cfg.Providers.NewsAPI.APIKeyEnv)
	}
}

func TestParseInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"backend":      "providers:\n  news_backend: bing\n",
		"auto_refresh": "preferences:\n  auto_refresh: -5\n",
		"timeout":      "providers:\n  timeout: 0s\n",
		"yaml":         "server: [",
	}
	for name, data := range cases {
		if _, err := parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("NEWSDESK_TEST_KEY", "secret")
	p := ProviderConfig{APIKeyEnv: "NEWSDESK_TEST_KEY"}
	if p.APIKey() != "secret" {
		t.Errorf("expected key from env, got %q", p.APIKey())
	}
	if (ProviderConfig{}).APIKey() != "" {
		t.Error("expected empty key without env name")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, DefaultConfigYAML, 0o644)
	got, err := ResolveConfigPath(path)
	if err != nil || got != path {
		t.Errorf("ResolveConfigPath = %q, %v", got, err)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected custom data dir, got %q", cfg.GetDataDir())
	}
	if !strings.HasSuffix(cfg.DBPath(), "newsdesk.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}
