package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/newsdesk/internal/aggregator"
	"github.com/TobiSchelling/newsdesk/internal/app"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

var (
	pageSize int
	page     int
	country  string
	sortBy   string
)

func init() {
	for _, c := range []*cobra.Command{headlinesCmd, categoryCmd} {
		c.Flags().StringVar(&country, "country", "", "Country code (defaults to the saved preference)")
	}
	for _, c := range []*cobra.Command{headlinesCmd, categoryCmd, searchCmd, personalizedCmd, sectionCmd} {
		c.Flags().IntVarP(&pageSize, "limit", "n", 0, "Number of articles")
	}
	for _, c := range []*cobra.Command{headlinesCmd, searchCmd} {
		c.Flags().IntVar(&page, "page", 1, "Result page")
	}
	searchCmd.Flags().StringVar(&sortBy, "sort", "relevancy", "Sort order: relevancy, popularity or publishedAt")

	rootCmd.AddCommand(headlinesCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(personalizedCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(summaryCmd)
}

var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Show top headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c := country
		if c == "" {
			c = a.Prefs.Country()
		}
		articles, err := a.News.FetchTopHeadlines(cmd.Context(), c, pageSize, page)
		if err != nil {
			return err
		}
		fmt.Printf("Top headlines: %s\n\n", countryLabel(c))
		printArticles(a, articles)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category [name]",
	Short: "Show headlines for a category",
	Long:  "Show headlines for a category. Categories: " + strings.Join(news.DefaultCategories, ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c := country
		if c == "" {
			c = a.Prefs.Country()
		}
		articles, err := a.News.FetchCategoryNews(cmd.Context(), args[0], c, pageSize)
		if err != nil {
			return err
		}
		printArticles(a, articles)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search all articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		articles, err := a.News.SearchNews(cmd.Context(), strings.Join(args, " "), sortBy, pageSize, page)
		if err != nil {
			return err
		}
		printArticles(a, articles)
		return nil
	},
}

var personalizedCmd = &cobra.Command{
	Use:   "personalized",
	Short: "Show articles matching your interests",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		interests := a.Prefs.Interests()
		if len(interests) == 0 {
			fmt.Println("No interests set. Add one with: newsdesk interests toggle <term>")
			return nil
		}
		articles, err := a.News.FetchPersonalizedNews(cmd.Context(), interests, pageSize)
		if err != nil {
			return err
		}
		fmt.Printf("For you: %s\n\n", aggregator.InterestQuery(interests))
		printArticles(a, articles)
		return nil
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section [name]",
	Short: "Show long-form articles from a Guardian section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		articles, err := a.News.FetchGuardianSection(cmd.Context(), args[0], pageSize)
		if err != nil {
			return err
		}
		printArticles(a, articles)
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed [name]",
	Short: "Show a configured RSS feed, or list feeds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			feeds := a.Feeds.List()
			if len(feeds) == 0 {
				fmt.Println("No feeds configured.")
				return nil
			}
			fmt.Println("Feeds:")
			for _, f := range feeds {
				fmt.Printf("  %s  %s\n", f.Name, f.URL)
			}
			return nil
		}

		articles, err := a.News.FetchFeed(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printArticles(a, articles)
		return nil
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show trending topics from the current headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.News.FetchTopHeadlines(cmd.Context(), a.Prefs.Country(), 0, 1); err != nil {
			return err
		}
		topics := a.News.TrendingTopics()
		if len(topics) == 0 {
			fmt.Println("No trending topics.")
			return nil
		}
		fmt.Println("Trending:")
		for i, t := range topics {
			fmt.Printf("  %2d. %s (%d)\n", i+1, t.Term, t.Frequency)
		}
		return nil
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related [url]",
	Short: "Find articles related to a bookmarked or read article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		seed, ok := findSaved(a, args[0])
		if !ok {
			return fmt.Errorf("article not in bookmarks or history: %s", args[0])
		}
		articles, err := a.News.FetchRelatedArticles(cmd.Context(), seed)
		if err != nil {
			return err
		}
		printArticles(a, articles)
		return nil
	},
}

var summaryTitle string

var summaryCmd = &cobra.Command{
	Use:   "summary [url]",
	Short: "Summarize an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAppWithLLM()
		if err != nil {
			return err
		}
		defer a.Close()

		article, ok := findSaved(a, args[0])
		if !ok {
			article = adHocArticle(args[0], summaryTitle)
		}
		sum, err := a.Summaries.Summarize(cmd.Context(), article)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n%s\n", article.Title, sum.Markdown())
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryTitle, "title", "", "Article title when the URL is not bookmarked")
}

// findSaved looks an article up in bookmarks and reading history.
func findSaved(a *app.App, u string) (news.Article, bool) {
	for _, b := range a.Prefs.Bookmarks() {
		if b.URL == u {
			return b, true
		}
	}
	for _, h := range a.Prefs.History() {
		if h.Article.URL == u {
			return h.Article, true
		}
	}
	return news.Article{}, false
}

// adHocArticle builds a minimal article for a URL given on the command line.
func adHocArticle(rawURL, title string) news.Article {
	source := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		source = strings.TrimPrefix(u.Host, "www.")
	}
	if title == "" {
		title = rawURL
	}
	return news.Article{Source: news.Source{Name: source}, Title: title, URL: rawURL}
}

func printArticles(a *app.App, articles []news.Article) {
	if len(articles) == 0 {
		fmt.Println("No articles.")
		return
	}
	for i, art := range articles {
		var flags string
		if a.Prefs.IsBookmarked(art.URL) {
			flags += "*"
		}
		if a.Prefs.IsRead(art.URL) {
			flags += "✓"
		}
		fmt.Printf("%2d. %s %s\n", i+1, art.Title, flags)
		fmt.Printf("    %s · %d min read", art.Source.Name, art.ReadingTimeMinutes())
		if art.PublishedAt != "" {
			fmt.Printf(" · %s", art.PublishedAt)
		}
		fmt.Printf("\n    %s\n", art.URL)
	}
}
