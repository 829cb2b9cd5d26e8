// Package metrics provides Prometheus instrumentation for the projection service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProjectionsTotal counts projections run, partitioned by return source.
	ProjectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prognose_projections_total",
		Help: "Total number of projections run",
	}, []string{"returns"})

	// GoalSeeksTotal counts goal seeks by target field and outcome.
	GoalSeeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prognose_goal_seeks_total",
		Help: "Total number of goal seeks",
	}, []string{"field", "outcome"})

	// MonteCarloRunsTotal counts Monte Carlo runs by report kind.
	MonteCarloRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prognose_monte_carlo_runs_total",
		Help: "Total number of Monte Carlo runs",
	}, []string{"kind"})

	// MonteCarloTrialsTotal counts simulated trials across all runs.
	MonteCarloTrialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prognose_monte_carlo_trials_total",
		Help: "Total number of Monte Carlo trials simulated",
	})

	// MonteCarloDuration tracks the wall time of a Monte Carlo run.
	MonteCarloDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prognose_monte_carlo_duration_seconds",
		Help:    "Monte Carlo run duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prognose_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prognose_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "path"})
)

// ObserveMonteCarlo records one finished Monte Carlo run.
func ObserveMonteCarlo(kind string, trials int, d time.Duration) {
	MonteCarloRunsTotal.WithLabelValues(kind).Inc()
	MonteCarloTrialsTotal.Add(float64(trials))
	MonteCarloDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// The route pattern keeps the path label bounded.
		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
