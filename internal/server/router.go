package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/metrics"
)

// Router assembles the middleware chain and every route. An empty apiKeys
// disables authentication.
func (s *Server) Router(apiKeys []string) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, domain.StatusIllegalArgument, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, domain.StatusIllegalArgument, "method not allowed")
	})

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/version", s.Version)
	r.Get("/status", s.Status)

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.ListTables)
		r.Post("/", s.CreateTable)
		r.Route("/{table}", func(r chi.Router) {
			r.Use(tableLogger)
			r.Get("/", s.DescribeTable)
			r.Delete("/", s.DeleteTable)
			r.Get("/count", s.CountTable)
			r.Post("/vectors", s.Insert)
			r.Post("/search", s.Search)
			r.Post("/preload", s.PreloadTable)
			r.Put("/index", s.CreateIndex)
			r.Get("/index", s.DescribeIndex)
			r.Delete("/index", s.DropIndex)
		})
	})
	return r
}
