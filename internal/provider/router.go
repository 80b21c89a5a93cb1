package provider

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/newsdesk/internal/news"
)

// Router dispatches each query to the first registered provider that
// supports its kind.
type Router struct {
	providers []Provider
}

// NewRouter creates a router over providers, in priority order.
func NewRouter(providers ...Provider) *Router {
	return &Router{providers: providers}
}

func (r *Router) Name() string { return "router" }

// For returns the provider serving kind.
func (r *Router) For(kind news.Kind) (Provider, error) {
	for _, p := range r.providers {
		if p.Supports(kind) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", news.ErrNoProvider, kind)
}

func (r *Router) Supports(kind news.Kind) bool {
	_, err := r.For(kind)
	return err == nil
}

func (r *Router) Fetch(ctx context.Context, q news.Query) ([]news.Article, error) {
	p, err := r.For(q.Kind)
	if err != nil {
		return nil, err
	}
	return p.Fetch(ctx, q)
}

// Names lists the registered providers.
func (r *Router) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}
