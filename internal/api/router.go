// Package api exposes the widget over HTTP: a JSON API for the front end,
// the rendered widget fragment, and the cover image proxy.
package api

import (
	"context"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/cache"
	"github.com/Belphemur/DoubanRecommend/internal/client"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/widget"
)

// ProxyPath is the route of the cover image proxy; card fallbacks point here.
const ProxyPath = "/proxy"

// Widget is the state the API drives.
type Widget interface {
	Snapshot() widget.Snapshot
	Enabled() bool
	SetEnabled(ctx context.Context, enabled bool) error
	SwitchCategory(category models.Category) (bool, error)
	SelectTag(tag string) (bool, error)
	NextPage() int
	Refresh(ctx context.Context) error
	Wait(ctx context.Context) error
}

// TagEditor edits the per-category tag lists.
type TagEditor interface {
	Tags(category models.Category) []string
	Add(ctx context.Context, category models.Category, tag string) error
	Delete(ctx context.Context, category models.Category, tag string) error
	Reset(ctx context.Context, category models.Category) error
}

// Catalog is the part of the catalog client used directly by handlers.
type Catalog interface {
	SearchTags(ctx context.Context, category models.Category) ([]string, error)
	FetchAsset(ctx context.Context, target string) (*client.Asset, error)
}

// Options configures the router.
type Options struct {
	// AllowedHosts lists the registrable domains the proxy may fetch from.
	// Subdomains are allowed.
	AllowedHosts []string
	// CORSOrigins defaults to any origin.
	CORSOrigins []string
}

// Router wires handlers to their dependencies.
type Router struct {
	widget       Widget
	editor       TagEditor
	catalog      Catalog
	covers       cache.Cache
	allowedHosts []string
	corsOrigins  []string
	logger       zerolog.Logger
}

// NewRouter creates a router. covers may be nil to disable proxy caching.
func NewRouter(w Widget, editor TagEditor, catalog Catalog, covers cache.Cache, opts Options) *Router {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Router{
		widget:       w,
		editor:       editor,
		catalog:      catalog,
		covers:       covers,
		allowedHosts: opts.AllowedHosts,
		corsOrigins:  origins,
		logger:       config.GetLogger(),
	}
}

// Handler builds the chi handler with the full middleware stack.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog(router.logger))
	r.Use(chimiddleware.Recoverer)
	if sentry.CurrentHub().Client() != nil {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(Metrics)

	r.Get("/healthz", router.Health)
	r.Get("/widget", router.WidgetHTML)
	r.Get("/widget/cards", router.WidgetCards)
	r.Get("/widget/tags", router.WidgetTags)
	r.Get(ProxyPath, router.Proxy)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/widget", router.WidgetState)

		r.Get("/recommendations", router.Recommendations)
		r.Post("/recommendations/next", router.NextPage)
		r.Put("/category", router.SwitchCategory)
		r.Put("/tag", router.SelectTag)

		r.Route("/tags/{category}", func(r chi.Router) {
			r.Get("/", router.ListTags)
			r.Post("/", router.AddTag)
			r.Post("/reset", router.ResetTags)
			r.Get("/suggestions", router.TagSuggestions)
			r.Delete("/{tag}", router.DeleteTag)
		})

		r.Get("/settings/enabled", router.GetEnabled)
		r.Put("/settings/enabled", router.SetEnabled)
	})

	return r
}
