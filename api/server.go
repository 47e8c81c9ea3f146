/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging through zap
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /api/metrics/*        Current bundle, read-only
  /api/employees/*      Employee metrics
  /api/opportunities    Ranked opportunities
  /api/matches          Matcher diagnostics
  /api/loads/*          Upload, reload, history
  /api/scenarios/*      Sample datasets

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/metrics", func(r chi.Router) {
			r.Get("/", h.GetMetrics)
			r.Get("/financial", h.GetFinancial)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{name}", h.GetEmployee)
		})

		r.Get("/opportunities", h.ListOpportunities)
		r.Get("/unmatched", h.ListUnmatched)
		r.Get("/quality", h.GetQuality)
		r.Get("/selfcheck", h.GetSelfCheck)
		r.Get("/matches", h.FindMatches)

		r.Route("/loads", func(r chi.Router) {
			r.Get("/", h.ListLoads)
			r.Post("/", h.UploadLoad)
			r.Post("/reload", h.ReloadSources)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
