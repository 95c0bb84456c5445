package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/middleware"
)

// Paths that bypass rate limiting.
const (
	pathHealthz      = "/healthz"
	pathPipelineLogs = "/api/pipeline-logs"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
}

// NewRouter mounts every endpoint on a chi router. ctx bounds background
// work owned by the middleware chain.
func NewRouter(ctx context.Context, h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		ExemptPaths:       []string{pathHealthz, pathPipelineLogs},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limiter.Handler)

	r.Get(pathHealthz, h.healthz)
	r.Get("/openapi.json", h.openAPIDocument)

	r.Route("/api", func(r chi.Router) {
		r.Get("/schemas", h.getSchemas)
		r.Post("/schemas/parse", h.parseSchemas)
		r.Post("/normalize", h.normalize)
		r.Get("/manifest", h.getManifest)

		r.Post("/ingest", h.ingest)
		r.Get("/history", h.listHistory)
		r.Get("/history/stats", h.historyStats)

		r.Route("/workspace", func(r chi.Router) {
			r.Get("/", h.getWorkspace)
			r.Post("/reload", h.reloadWorkspace)
			r.Post("/mappings/{id}/toggle", h.toggleMapping)
			r.Put("/tables/{table}/approval", h.setTableApproval)
			r.Post("/approve-all", h.approveAll)
		})

		r.Get("/export", h.downloadExport)
		r.Post("/export", h.publishExport)
		r.Get("/report", h.getReport)

		r.Post("/upload", h.upload)
		r.Get("/pipeline-logs", h.pipelineLogs)
	})
	return r
}
