package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Edbro78/investeringsprognose/internal/metrics"
)

// CorrelationHeader carries the request correlation ID in both directions.
const CorrelationHeader = "X-Correlation-ID"

type correlationKey struct{}

// NewRouter wires the service endpoints, metrics and middleware. Requests that
// run longer than timeout have their context cancelled.
func NewRouter(svc *Service, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlation)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(metrics.Middleware)

	r.Get("/health", svc.Health)

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/projection", svc.Projection)
		r.Post("/goalseek/{target}", svc.GoalSeek)
		r.Post("/montecarlo/{report}", svc.MonteCarlo)
		r.Post("/sample", svc.Sample)

		// Numbered-line text interchange.
		r.Post("/params/export", svc.ExportText)
		r.Post("/params/import", svc.ImportText)
	})
	return r
}

// correlation propagates the caller's correlation ID, or assigns a new UUID, and
// echoes it on the response.
func correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

func correlationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
