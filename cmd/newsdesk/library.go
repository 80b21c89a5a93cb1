package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// --- bookmarks command ---

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Manage bookmarked articles",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		bookmarks := a.Prefs.Bookmarks()
		if len(bookmarks) == 0 {
			fmt.Println("No bookmarks. Add one with: newsdesk bookmarks toggle <url>")
			return nil
		}
		printArticles(a, bookmarks)
		return nil
	},
}

var bookmarkTitle string

var bookmarksToggleCmd = &cobra.Command{
	Use:   "toggle [url]",
	Short: "Bookmark an article, or remove an existing bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		article, ok := findSaved(a, args[0])
		if !ok {
			article = adHocArticle(args[0], bookmarkTitle)
		}
		if a.Prefs.ToggleBookmark(article) {
			fmt.Printf("Bookmarked: %s\n", article.Title)
		} else {
			fmt.Printf("Removed bookmark: %s\n", article.Title)
		}
		return nil
	},
}

func init() {
	bookmarksToggleCmd.Flags().StringVar(&bookmarkTitle, "title", "", "Article title for new bookmarks")
	bookmarksCmd.AddCommand(bookmarksListCmd)
	bookmarksCmd.AddCommand(bookmarksToggleCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

// --- interests command ---

var interestsCmd = &cobra.Command{
	Use:   "interests",
	Short: "Manage interests used for personalized news",
}

var interestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interests",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		interests := a.Prefs.Interests()
		if len(interests) == 0 {
			fmt.Println("No interests set. See suggestions with: newsdesk interests suggest")
			return nil
		}
		for _, i := range interests {
			fmt.Printf("  %s\n", i)
		}
		return nil
	},
}

var interestsToggleCmd = &cobra.Command{
	Use:   "toggle [term]",
	Short: "Add an interest, or remove it if present",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		term := strings.Join(args, " ")
		if a.Prefs.ToggleInterest(term) {
			fmt.Printf("Added interest: %s\n", term)
		} else {
			fmt.Printf("Removed interest: %s\n", term)
		}
		return nil
	},
}

var interestsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all interests",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.ClearAllInterests()
		fmt.Println("Interests cleared.")
		return nil
	},
}

var interestsSuggestCmd = &cobra.Command{
	Use:   "suggest [category]",
	Short: "Suggest interests, optionally for one category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var category string
		if len(args) == 1 {
			category = args[0]
		}
		current := make(map[string]bool)
		for _, i := range a.Prefs.Interests() {
			current[i] = true
		}
		for _, s := range a.Prefs.SuggestedInterests(category) {
			mark := " "
			if current[s] {
				mark = "*"
			}
			fmt.Printf("  %s %s\n", mark, s)
		}
		return nil
	},
}

func init() {
	interestsCmd.AddCommand(interestsListCmd)
	interestsCmd.AddCommand(interestsToggleCmd)
	interestsCmd.AddCommand(interestsClearCmd)
	interestsCmd.AddCommand(interestsSuggestCmd)
	rootCmd.AddCommand(interestsCmd)
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear reading history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently read articles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		history := a.Prefs.History()
		if len(history) == 0 {
			fmt.Println("Reading history is empty.")
			return nil
		}
		if historyLimit > 0 && len(history) > historyLimit {
			history = history[:historyLimit]
		}
		for _, h := range history {
			fmt.Printf("  %s  %3.0f%%  %s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Progress*100, h.Article.Title)
			fmt.Printf("      %s\n", h.Article.URL)
		}
		return nil
	},
}

var historyReadCmd = &cobra.Command{
	Use:   "read [url]",
	Short: "Record an article as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		article, ok := findSaved(a, args[0])
		if !ok {
			article = adHocArticle(args[0], "")
		}
		entry := a.Prefs.MarkAsRead(article)
		fmt.Printf("Marked as read: %s (%s)\n", article.Title, entry.ID)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear reading history and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Prefs.ClearReadingHistory()
		fmt.Println("Reading history cleared.")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyReadCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
