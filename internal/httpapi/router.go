package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	oteltrace "go.opentelemetry.io/otel/trace"

	"weather-widget/internal/observability"
	"weather-widget/internal/web"
)

const serviceName = "weather-widget"

type RouterOptions struct {
	AllowedOrigins []string
	// Tracer and Metrics are optional; tests leave them nil.
	Tracer    oteltrace.Tracer
	Metrics   http.Handler
	StaticDir string
}

// NewRouter mounts the JSON API under /api next to the widget page.
func NewRouter(s *Server, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.Tracer != nil {
		r.Use(observability.MetricsAndTracingMiddleware(opts.Tracer, serviceName))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		s.RegisterRoutes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("route not found", "method", r.Method, "path", r.URL.Path)
			writeErrorMessage(w, http.StatusNotFound, "not found")
		})
	})

	r.Handle("/*", web.Handler(opts.StaticDir))
	return r
}
