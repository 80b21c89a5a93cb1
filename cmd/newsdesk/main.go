package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/newsdesk/internal/app"
	"github.com/TobiSchelling/newsdesk/internal/config"
	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/TobiSchelling/newsdesk/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	envFile    string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsdesk",
	Short:   "Multi-source news reader",
	Long:    "newsdesk aggregates headlines, search results, Guardian sections and RSS feeds, tracks trending topics and keeps your bookmarks and reading history.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			if configPath != "" {
				return err
			}
			log.Println("No config file found, using built-in defaults")
			cfg = config.Default()
			return nil
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with API key environment variables")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsdesk", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in the XDG config directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure providers, feeds and the summary model.")
		fmt.Println("API keys are read from the environment or a .env file (NEWSAPI_KEY, GUARDIAN_API_KEY, ...).")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status()
		if err != nil {
			return err
		}

		fmt.Println("Providers:")
		fmt.Printf("  News backend: %s\n", st.NewsBackend)
		fmt.Printf("  Active: %s\n", strings.Join(st.Providers, ", "))
		fmt.Printf("  Feeds: %d\n", st.Feeds)
		fmt.Printf("  Weather: %v\n", a.Weather.IsConfigured())
		fmt.Println("\nPreferences:")
		fmt.Printf("  Country: %s\n", countryLabel(st.Country))
		fmt.Printf("  Auto-refresh: %s\n", autoRefreshLabel(a.Prefs.AutoRefreshInterval()))
		fmt.Printf("  Interests: %d\n", len(a.Prefs.Interests()))
		fmt.Printf("  Bookmarks: %d\n", len(a.Prefs.Bookmarks()))
		fmt.Println("\nDatabase:")
		fmt.Printf("  Path: %s\n", st.DBPath)
		fmt.Printf("  Schema version: %d\n", st.SchemaVersion)
		fmt.Printf("  Stored settings: %d\n", st.Stats.Settings)
		fmt.Printf("  Cached summaries: %d\n", st.Stats.Summaries)
		fmt.Printf("  Refresh runs: %d\n", st.Stats.RefreshRuns)
		if st.Stats.LastRefresh != nil {
			fmt.Printf("  Last refresh: %s\n", *st.Stats.LastRefresh)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local reading API with auto-refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAppWithLLM()
		if err != nil {
			return err
		}
		defer a.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, a, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// openApp builds the application without probing LLM backends.
func openApp() (*app.App, error) {
	return app.New(cfg, app.Options{NoLLM: true})
}

// openAppWithLLM builds the application including the summary model.
func openAppWithLLM() (*app.App, error) {
	return app.New(cfg, app.Options{})
}

func countryLabel(code string) string {
	c := news.LookupCountry(code)
	return fmt.Sprintf("%s (%s)", c.Name, c.Code)
}

func autoRefreshLabel(minutes int) string {
	if minutes <= 0 {
		return "disabled"
	}
	return fmt.Sprintf("every %d min", minutes)
}
