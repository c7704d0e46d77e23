/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Wires URLs to handlers via chi and sets up the middleware stack:
  request IDs, panic recovery, structured request logging (zerolog) and
  CORS for the frontend.
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates the router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProperty)
				r.Put("/", h.UpdateProperty)
				r.Delete("/", h.DeleteProperty)

				r.Get("/tenancies", h.ListTenancies)
				r.Post("/tenancies", h.CreateTenancy)

				r.Get("/charges", h.ListCharges)
				r.Post("/charges", h.CreateCharge)

				r.Get("/statements", h.GenerateStatements)

				r.Get("/billing-periods", h.ListBillingPeriods)
				r.Post("/billing-periods/{month}/{year}/finalize", h.FinalizeBillingPeriod)
				r.Post("/billing-periods/{month}/{year}/recalculate", h.RecalculateBillingPeriod)

				r.Get("/occupancy/stats", h.OccupancyStatistics)
			})
		})

		r.Route("/tenancies/{id}", func(r chi.Router) {
			r.Get("/", h.GetTenancy)
			r.Put("/", h.AmendTenancy)
			r.Post("/terminate", h.TerminateTenancy)
			r.Get("/history", h.TenancyHistory)
		})

		r.Route("/charges/{id}", func(r chi.Router) {
			r.Get("/", h.GetCharge)
			r.Put("/", h.UpdateCharge)
			r.Delete("/", h.DeleteCharge)
			r.Get("/allocations", h.ListAllocations)
			r.Post("/allocations/recompute", h.RecomputeAllocations)
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
