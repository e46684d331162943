package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig holds everything NewRouter wires together
type RouterConfig struct {
	Map            *MapHandler
	Events         http.Handler // SSE stream
	MetricsHandler http.Handler // Prometheus exposition; nil disables /metrics
	Observer       HTTPObserver // nil disables request metrics
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Logger(logger))
	if cfg.Observer != nil {
		r.Use(Metrics(cfg.Observer))
	}
	r.Use(CORS(cfg.AllowedOrigins))

	h := cfg.Map
	r.Route("/api", func(r chi.Router) {
		r.Get("/network", h.GetNetwork)
		r.Get("/layout", h.GetLayout)

		r.Route("/versions", func(r chi.Router) {
			r.Get("/", h.ListVersions)
			r.Post("/", h.SaveVersion)
			r.Delete("/", h.DestroyVersions)
			r.Post("/reset", h.ResetLayout)
			r.Post("/import", h.ImportVersion)
			r.Get("/active/export", h.ExportVersion)
			r.Post("/{id}/load", h.LoadVersion)
		})

		r.Post("/stations/{id}/drag", h.DragStation)
		r.Post("/stations/{id}/tap", h.TapStation)
		r.Get("/selection", h.GetSelection)
		r.Post("/background/tap", h.TapBackground)
		r.Post("/label", h.LabelKey)
	})

	if cfg.Events != nil {
		r.Method(http.MethodGet, "/events", cfg.Events)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	return r
}
