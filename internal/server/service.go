// Package server exposes the projection engine over HTTP.
//
// Every endpoint takes a plan as JSON. Fields that are left out keep the value
// from domain.DefaultParameters, so `{}` projects the default plan.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Edbro78/investeringsprognose/internal/calculation"
	"github.com/Edbro78/investeringsprognose/internal/domain"
	"github.com/Edbro78/investeringsprognose/internal/metrics"
	"github.com/Edbro78/investeringsprognose/internal/paramtext"
)

// maxBodyBytes bounds request bodies; a full plan is well under 16 KiB.
const maxBodyBytes = 1 << 20

// Service handles projection, goal-seek and Monte Carlo requests.
type Service struct {
	engine *calculation.CalculationEngine
	logger *slog.Logger
}

// NewService creates a new service around engine. A nil logger uses slog.Default.
func NewService(engine *calculation.CalculationEngine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, logger: logger}
}

// --- Request/Response types ---

// ProjectionRequest is the JSON body for POST /projection: a plan plus an
// optional return series in percent per year.
type ProjectionRequest struct {
	domain.SimulationParameters
	Returns *domain.ReturnSeries `json:"returns,omitempty"`
}

// SampleRequest is the JSON body for POST /sample. Seed 0 draws a fresh seed.
type SampleRequest struct {
	domain.SimulationParameters
	Seed int64 `json:"seed,omitempty"`
}

// SampleResponse carries one sampled return path and the seed that produced it.
type SampleResponse struct {
	Seed    int64               `json:"seed"`
	Returns domain.ReturnSeries `json:"returns"`
}

// GoalSeekResponse is the JSON body returned from POST /goalseek/{target}.
type GoalSeekResponse struct {
	Result     domain.GoalSeekResult       `json:"result"`
	Parameters domain.SimulationParameters `json:"parameters"`
}

// goalSeekTargets maps URL targets to the field they solve for.
var goalSeekTargets = map[string]domain.GoalSeekField{
	"savings":    domain.GoalSeekAnnualSavings,
	"payout":     domain.GoalSeekConsumptionPayout,
	"portfolio1": domain.GoalSeekPortfolio1,
}

// --- HTTP Handlers ---

// Health handles GET /health
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "prognose"})
}

// Projection handles POST /api/v1/projection
func (s *Service) Projection(w http.ResponseWriter, r *http.Request) {
	req := ProjectionRequest{SimulationParameters: domain.DefaultParameters()}
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report, err := s.engine.RunProjection(req.SimulationParameters, req.Returns)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	source := "expected"
	if req.Returns != nil {
		source = "supplied"
	}
	metrics.ProjectionsTotal.WithLabelValues(source).Inc()
	writeJSON(w, http.StatusOK, report)
}

// GoalSeek handles POST /api/v1/goalseek/{target}
// Responds 204 when the plan has no payout years to solve against.
func (s *Service) GoalSeek(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	field, ok := goalSeekTargets[target]
	if !ok {
		writeError(w, "target must be savings, payout or portfolio1", http.StatusNotFound)
		return
	}
	params := domain.DefaultParameters()
	if err := decode(r, &params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, updated, solved, err := s.engine.GoalSeek(params, field)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if !solved {
		metrics.GoalSeeksTotal.WithLabelValues(target, "skipped").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	outcome := "converged"
	switch {
	case !res.Bracketed:
		outcome = "capped"
	case !res.Converged:
		outcome = "exhausted"
	}
	metrics.GoalSeeksTotal.WithLabelValues(target, outcome).Inc()

	s.logger.Info("goal seek solved",
		"target", target,
		"value", res.Value,
		"iterations", res.Iterations,
		"request_id", correlationIDFrom(r.Context()),
	)
	writeJSON(w, http.StatusOK, GoalSeekResponse{Result: *res, Parameters: updated})
}

// MonteCarlo handles POST /api/v1/montecarlo/{report}
// The run stops when the client goes away or the request times out.
func (s *Service) MonteCarlo(w http.ResponseWriter, r *http.Request) {
	kind := domain.MonteCarloKind(chi.URLParam(r, "report"))
	if kind != domain.MonteCarloPayout && kind != domain.MonteCarloPortfolio {
		writeError(w, "report must be payout or portfolio", http.StatusNotFound)
		return
	}
	params := domain.DefaultParameters()
	if err := decode(r, &params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	report, err := s.engine.RunMonteCarlo(r.Context(), params, kind)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	metrics.ObserveMonteCarlo(string(kind), report.Trials, time.Since(start))

	s.logger.Info("monte carlo finished",
		"run_id", report.RunID.String(),
		"kind", string(kind),
		"trials", report.Trials,
		"duration", report.Duration,
		"request_id", correlationIDFrom(r.Context()),
	)
	writeJSON(w, http.StatusOK, report)
}

// Sample handles POST /api/v1/sample
func (s *Service) Sample(w http.ResponseWriter, r *http.Request) {
	req := SampleRequest{SimulationParameters: domain.DefaultParameters()}
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p := req.SimulationParameters.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = calculation.NewSeed()
	}
	series := calculation.NewReturnSampler(seed).SampleSeriesRounded(p, p.TotalYears())
	writeJSON(w, http.StatusOK, SampleResponse{Seed: seed, Returns: series})
}

// ExportText handles POST /api/v1/params/export
// Responds with the numbered-line text form of the posted plan.
func (s *Service) ExportText(w http.ResponseWriter, r *http.Request) {
	params := domain.DefaultParameters()
	if err := decode(r, &params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, paramtext.Export(params.Normalize())+"\n")
}

// ImportText handles POST /api/v1/params/import
// The body is numbered-line text; lines it omits keep their default.
func (s *Service) ImportText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, "could not read request body", http.StatusBadRequest)
		return
	}
	params, err := paramtext.Import(string(body), domain.DefaultParameters())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := params.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// --- helpers ---

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Service) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calculation.ErrInvalidParameters):
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
	case r.Context().Err() != nil:
		s.logger.Warn("request cancelled", "err", err, "request_id", correlationIDFrom(r.Context()))
		writeError(w, "request cancelled or timed out", http.StatusServiceUnavailable)
	default:
		s.logger.Error("engine error", "err", err, "request_id", correlationIDFrom(r.Context()))
		writeError(w, strings.TrimSpace(err.Error()), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
