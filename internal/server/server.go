// Package server exposes the news client as a local JSON API and a small
// HTML reading view.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/newsdesk/internal/aggregator"
	"github.com/TobiSchelling/newsdesk/internal/app"
	"github.com/TobiSchelling/newsdesk/internal/news"
	"github.com/TobiSchelling/newsdesk/internal/prefs"
	"github.com/TobiSchelling/newsdesk/internal/provider"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the reading API.
type Server struct {
	app   *app.App
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(a *app.App) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref":    news.Deref,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so that the "content" and
	// "title" blocks do not collide.
	pageNames := []string{"index.html", "summary.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{app: a, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /summary", s.handleSummary)

	s.mux.HandleFunc("GET /api/headlines", s.handleHeadlines)
	s.mux.HandleFunc("GET /api/category/{name}", s.handleCategory)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/personalized", s.handlePersonalized)
	s.mux.HandleFunc("GET /api/section/{name}", s.handleSection)
	s.mux.HandleFunc("GET /api/feed/{name}", s.handleFeed)
	s.mux.HandleFunc("GET /api/trending", s.handleTrending)
	s.mux.HandleFunc("GET /api/related", s.handleRelated)
	s.mux.HandleFunc("GET /api/preferences", s.handlePreferences)
	s.mux.HandleFunc("GET /api/weather", s.handleWeather)

	s.mux.HandleFunc("POST /api/bookmarks/toggle", s.handleToggleBookmark)
	s.mux.HandleFunc("POST /api/read", s.handleMarkRead)
	s.mux.HandleFunc("POST /api/progress", s.handleProgress)
	s.mux.HandleFunc("POST /api/interests/toggle", s.handleToggleInterest)
	s.mux.HandleFunc("POST /api/interests/clear", s.handleClearInterests)
	s.mux.HandleFunc("POST /api/categories/visibility", s.handleCategoryVisibility)
	s.mux.HandleFunc("POST /api/settings", s.handleSettings)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	headlines, _ := s.app.News.Snapshot(aggregator.Headlines)
	s.render(w, "index.html", map[string]any{
		"Headlines": headlines,
		"Topics":    s.app.News.TrendingTopics(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	article, ok := s.lookup(url)
	if !ok {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	sum, err := s.app.Summaries.Summarize(r.Context(), article)
	if err != nil {
		log.Printf("Error summarizing %s: %v", url, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "summary.html", map[string]any{
		"Article":  article,
		"Summary":  sum,
		"Markdown": sum.Markdown(),
	})
}

// Feed endpoints respond with the collection they updated.

func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	if country == "" {
		country = s.app.Prefs.Country()
	}
	_, err := s.app.News.FetchTopHeadlines(r.Context(), country, intParam(q.Get("pageSize")), intParam(q.Get("page")))
	s.respondCollection(w, aggregator.Headlines, err)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(r.PathValue("name"))
	country := r.URL.Query().Get("country")
	if country == "" {
		country = s.app.Prefs.Country()
	}
	_, err := s.app.News.FetchCategoryNews(r.Context(), category, country, intParam(r.URL.Query().Get("pageSize")))
	s.respondCollection(w, aggregator.CategoryCollection(category), err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	_, err := s.app.News.SearchNews(r.Context(), q.Get("q"), q.Get("sortBy"), intParam(q.Get("pageSize")), intParam(q.Get("page")))
	s.respondCollection(w, aggregator.Search, err)
}

func (s *Server) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	_, err := s.app.News.FetchPersonalizedNews(r.Context(), s.app.Prefs.Interests(), intParam(r.URL.Query().Get("pageSize")))
	s.respondCollection(w, aggregator.Personalized, err)
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section := strings.ToLower(r.PathValue("name"))
	_, err := s.app.News.FetchGuardianSection(r.Context(), section, intParam(r.URL.Query().Get("pageSize")))
	s.respondCollection(w, aggregator.SectionCollection(section), err)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	_, err := s.app.News.FetchFeed(r.Context(), name)
	s.respondCollection(w, aggregator.FeedCollection(name), err)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": s.app.News.TrendingTopics()})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	seed, ok := s.lookup(r.URL.Query().Get("url"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("article not found"))
		return
	}
	_, err := s.app.News.FetchRelatedArticles(r.Context(), seed)
	s.respondCollection(w, aggregator.Related, err)
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Prefs.Snapshot())
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if !s.app.Weather.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("weather: %w", news.ErrNoProvider))
		return
	}
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, errors.New("lat and lon are required"))
		return
	}

	current, err := s.app.Weather.Current(r.Context(), lat, lon)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	forecast, err := s.app.Weather.Forecast(r.Context(), lat, lon)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var wind string
	if current.Wind != nil {
		wind = provider.WindDirection(current.Wind.Deg)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current":       current,
		"forecast":      forecast,
		"windDirection": wind,
	})
}

type articleRequest struct {
	URL      string  `json:"url"`
	Progress float64 `json:"progress"`
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	article, ok := s.lookup(req.URL)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("article not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": s.app.Prefs.ToggleBookmark(article)})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	article, ok := s.lookup(req.URL)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("article not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.app.Prefs.MarkAsRead(article))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, news.ErrEmptyInput)
		return
	}
	s.app.Prefs.UpdateProgress(req.URL, req.Progress)
	writeJSON(w, http.StatusOK, map[string]float64{"progress": s.app.Prefs.Progress(req.URL)})
}

func (s *Server) handleToggleInterest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		writeError(w, http.StatusBadRequest, news.ErrEmptyInput)
		return
	}
	present := s.app.Prefs.ToggleInterest(req.Term)
	writeJSON(w, http.StatusOK, map[string]any{"interest": present, "interests": s.app.Prefs.Interests()})
}

func (s *Server) handleClearInterests(w http.ResponseWriter, r *http.Request) {
	s.app.Prefs.ClearAllInterests()
	writeJSON(w, http.StatusOK, map[string]any{"interests": []string{}})
}

func (s *Server) handleCategoryVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Visible  bool   `json:"visible"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.app.Prefs.ToggleCategoryVisibility(req.Category, req.Visible)
	writeJSON(w, http.StatusOK, map[string]any{"visible": s.app.Prefs.VisibleCategories()})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country       *string `json:"country"`
		DarkMode      *bool   `json:"darkMode"`
		Notifications *bool   `json:"notificationsEnabled"`
		FontSize      *string `json:"fontSize"`
		Theme         *string `json:"theme"`
		AutoRefresh   *int    `json:"autoRefreshMinutes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p := s.app.Prefs
	if req.Country != nil {
		if err := p.SetCountry(*req.Country); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.FontSize != nil {
		f, err := prefs.ParseFontSize(*req.FontSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p.SetFontSize(f)
	}
	if req.Theme != nil {
		t, err := prefs.ParseTheme(*req.Theme)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p.SetTheme(t)
	}
	if req.DarkMode != nil {
		p.SetDarkMode(*req.DarkMode)
	}
	if req.Notifications != nil {
		p.SetNotificationsEnabled(*req.Notifications)
	}
	if req.AutoRefresh != nil {
		p.SetAutoRefreshInterval(*req.AutoRefresh)
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Refresh outlives the request.
	s.app.Refresh(context.WithoutCancel(r.Context()), app.TriggerManual)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// lookup finds an article by URL in the published collections, then in
// bookmarks and reading history.
func (s *Server) lookup(url string) (news.Article, bool) {
	if url == "" {
		return news.Article{}, false
	}
	if a, ok := s.app.News.FindArticle(url); ok {
		return a, true
	}
	for _, a := range s.app.Prefs.Bookmarks() {
		if a.URL == url {
			return a, true
		}
	}
	for _, h := range s.app.Prefs.History() {
		if h.Article.URL == url {
			return h.Article, true
		}
	}
	return news.Article{}, false
}

func (s *Server) respondCollection(w http.ResponseWriter, name string, err error) {
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	c, ok := s.app.News.Snapshot(name)
	if !ok {
		c = aggregator.Collection{Name: name, Articles: []news.Article{}}
	}
	writeJSON(w, http.StatusOK, c)
}

// statusFor maps fetch errors to HTTP status codes.
func statusFor(err error) int {
	var httpErr *news.HTTPError
	switch {
	case errors.Is(err, news.ErrEmptyInput), errors.Is(err, news.ErrUnsupportedQuery):
		return http.StatusBadRequest
	case errors.Is(err, news.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	snap := s.app.Prefs.Snapshot()
	data["Theme"] = snap.Theme
	data["FontSize"] = snap.FontSize
	if snap.DarkMode {
		data["Theme"] = "dark"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and runs the auto-refresh
// scheduler until ctx is done.
func Serve(ctx context.Context, a *app.App, port int) error {
	srv, err := New(a)
	if err != nil {
		return err
	}

	go a.Run(ctx)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Println("Shutting down server...")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
