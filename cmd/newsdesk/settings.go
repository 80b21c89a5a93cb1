package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/TobiSchelling/newsdesk/internal/prefs"
	"github.com/TobiSchelling/newsdesk/internal/provider"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Prefs.Snapshot()
		fmt.Printf("Country:        %s\n", countryLabel(s.Country))
		fmt.Printf("Theme:          %s\n", s.Theme)
		fmt.Printf("Dark mode:      %v\n", s.DarkMode)
		fmt.Printf("Font size:      %s\n", s.FontSize)
		fmt.Printf("Notifications:  %v\n", s.NotificationsEnabled)
		fmt.Printf("Auto-refresh:   %s\n", autoRefreshLabel(s.AutoRefreshMinutes))
		fmt.Printf("Categories:     %s\n", strings.Join(a.Prefs.VisibleCategories(), ", "))
		fmt.Printf("Interests:      %s\n", strings.Join(s.Interests, ", "))
		fmt.Printf("Bookmarks:      %d\n", len(s.Bookmarks))
		fmt.Printf("Read articles:  %d\n", len(s.ReadArticles))
		return nil
	},
}

var settingsCountryCmd = &cobra.Command{
	Use:   "country [code]",
	Short: "Set the headline country, or list countries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, c := range news.Countries {
				fmt.Printf("  %s  %s\n", c.Code, c.Name)
			}
			return nil
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Prefs.SetCountry(args[0]); err != nil {
			return err
		}
		fmt.Printf("Country set to %s\n", countryLabel(a.Prefs.Country()))
		return nil
	},
}

var settingsThemeCmd = &cobra.Command{
	Use:   "theme [system|light|dark|blue|green|orange]",
	Short: "Set the color theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := prefs.ParseTheme(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.SetTheme(t)
		fmt.Printf("Theme set to %s\n", t)
		return nil
	},
}

var settingsFontCmd = &cobra.Command{
	Use:   "font [small|medium|large]",
	Short: "Set the reading font size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := prefs.ParseFontSize(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.SetFontSize(f)
		fmt.Printf("Font size set to %s\n", f)
		return nil
	},
}

var settingsRefreshCmd = &cobra.Command{
	Use:   "refresh [minutes]",
	Short: "Set the auto-refresh interval in minutes (0 disables)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid interval: %s", args[0])
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.SetAutoRefreshInterval(minutes)
		fmt.Printf("Auto-refresh: %s\n", autoRefreshLabel(a.Prefs.AutoRefreshInterval()))
		return nil
	},
}

var settingsCategoryCmd = &cobra.Command{
	Use:   "category [name] [on|off]",
	Short: "Show or hide a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var visible bool
		switch strings.ToLower(args[1]) {
		case "on", "show", "true":
			visible = true
		case "off", "hide", "false":
			visible = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.ToggleCategoryVisibility(args[0], visible)
		fmt.Printf("Visible categories: %s\n", strings.Join(a.Prefs.VisibleCategories(), ", "))
		return nil
	},
}

var settingsBoolCmd = &cobra.Command{
	Use:       "toggle [dark-mode|notifications]",
	Short:     "Flip a boolean preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dark-mode", "notifications"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		switch args[0] {
		case "dark-mode":
			a.Prefs.SetDarkMode(!a.Prefs.DarkMode())
			fmt.Printf("Dark mode: %v\n", a.Prefs.DarkMode())
		case "notifications":
			a.Prefs.SetNotificationsEnabled(!a.Prefs.NotificationsEnabled())
			fmt.Printf("Notifications: %v\n", a.Prefs.NotificationsEnabled())
		default:
			return fmt.Errorf("unknown setting %q", args[0])
		}
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsCountryCmd)
	settingsCmd.AddCommand(settingsThemeCmd)
	settingsCmd.AddCommand(settingsFontCmd)
	settingsCmd.AddCommand(settingsRefreshCmd)
	settingsCmd.AddCommand(settingsCategoryCmd)
	settingsCmd.AddCommand(settingsBoolCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(weatherCmd)
}

// --- weather command ---

var weatherCmd = &cobra.Command{
	Use:   "weather [lat] [lon]",
	Short: "Show current weather and the next 24 hours",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err1 := strconv.ParseFloat(args[0], 64)
		lon, err2 := strconv.ParseFloat(args[1], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("invalid coordinates: %s %s", args[0], args[1])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Weather.IsConfigured() {
			return fmt.Errorf("weather: %w (set %s)", news.ErrNoProvider, cfg.Providers.Weather.APIKeyEnv)
		}

		current, err := a.Weather.Current(cmd.Context(), lat, lon)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %.1f°C (feels like %.1f°C), humidity %d%%\n",
			current.Name, current.Main.Temp, current.Main.FeelsLike, current.Main.Humidity)
		if len(current.Weather) > 0 {
			fmt.Printf("  %s\n", current.Weather[0].Description)
		}
		if current.Wind != nil {
			fmt.Printf("  Wind %.1f m/s %s\n", current.Wind.Speed, provider.WindDirection(current.Wind.Deg))
		}

		forecast, err := a.Weather.Forecast(cmd.Context(), lat, lon)
		if err != nil {
			return err
		}
		fmt.Println("\nForecast:")
		for _, f := range forecast.List {
			desc := ""
			if len(f.Weather) > 0 {
				desc = f.Weather[0].Description
			}
			fmt.Printf("  %s  %5.1f°C  %s\n", f.Time().Local().Format("Mon 15:04"), f.Main.Temp, desc)
		}
		return nil
	},
}
