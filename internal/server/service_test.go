package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edbro78/investeringsprognose/internal/calculation"
	"github.com/Edbro78/investeringsprognose/internal/domain"
	"github.com/Edbro78/investeringsprognose/internal/server"
)

// newTestRouter builds the full router around an engine with a small, seeded
// Monte Carlo configuration.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	engine := calculation.NewCalculationEngine()
	engine.MonteCarlo = calculation.MonteCarloConfig{Trials: 30, Workers: 2, Seed: 5}
	return server.NewRouter(server.NewService(engine, nil), 10*time.Second)
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestProjection(t *testing.T) {
	router := newTestRouter(t)

	t.Run("defaults", func(t *testing.T) {
		w := post(t, router, "/api/v1/projection", `{}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report domain.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Len(t, report.Projection.Records, 11)
		assert.Equal(t, "start", report.Projection.Records[0].Label)
		assert.Equal(t, int64(10_000_000), report.Projection.Records[0].EndValue)
	})
	t.Run("supplied returns", func(t *testing.T) {
		body := `{"portfolio1": 1000000, "investment_years": 2, "tax_calculation_enabled": false,
			"returns": {"stock": [10, 10], "bond": [10, 10]}}`
		w := post(t, router, "/api/v1/projection", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report domain.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, int64(1_210_000), report.Projection.Final().EndValue)
		assert.Len(t, report.Accumulated, 3)
	})
	t.Run("invalid parameters", func(t *testing.T) {
		w := post(t, router, "/api/v1/projection", `{"portfolio1_stock_allocation": 140}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "invalid parameters")
	})
	t.Run("malformed body", func(t *testing.T) {
		w := post(t, router, "/api/v1/projection", `{"portfolio1": "lots"`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("unknown field", func(t *testing.T) {
		w := post(t, router, "/api/v1/projection", `{"portefolje": 1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGoalSeek(t *testing.T) {
	router := newTestRouter(t)
	plan := `{"portfolio1": 1000000, "portfolio1_stock_allocation": 50, "payout_years": 10, "desired_consumption_payout": 500000}`

	t.Run("savings", func(t *testing.T) {
		w := post(t, router, "/api/v1/goalseek/savings", plan)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp server.GoalSeekResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.GoalSeekAnnualSavings, resp.Result.Field)
		assert.Positive(t, resp.Result.Value)
		assert.Equal(t, resp.Result.Value, resp.Parameters.AnnualSavings)
	})
	t.Run("no payout years", func(t *testing.T) {
		w := post(t, router, "/api/v1/goalseek/payout", `{"payout_years": 0}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
	t.Run("unknown target", func(t *testing.T) {
		w := post(t, router, "/api/v1/goalseek/pension", plan)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMonteCarlo(t *testing.T) {
	router := newTestRouter(t)

	w := post(t, router, "/api/v1/montecarlo/portfolio", `{"portfolio1_stock_allocation": 60}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report domain.MonteCarloReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, domain.MonteCarloPortfolio, report.Kind)
	assert.Len(t, report.Samples, 30)
	assert.Equal(t, int64(5), report.Seed)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	w = post(t, router, "/api/v1/montecarlo/pension", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSample(t *testing.T) {
	router := newTestRouter(t)

	w := post(t, router, "/api/v1/sample", `{"seed": 99, "investment_years": 3, "payout_years": 2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp server.SampleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(99), resp.Seed)

	p := domain.DefaultParameters()
	p.InvestmentYears, p.PayoutYears = 3, 2
	want := calculation.NewReturnSampler(99).SampleSeriesRounded(p, 5)
	assert.Equal(t, want, resp.Returns)
}

func TestSample_DrawsSeedFromProvider(t *testing.T) {
	calculation.SetSeedFunc(func() int64 { return 1234 })
	t.Cleanup(func() { calculation.SetSeedFunc(func() int64 { return time.Now().UnixNano() }) })
	router := newTestRouter(t)

	w := post(t, router, "/api/v1/sample", `{"seed": 0, "investment_years": 2, "payout_years": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp server.SampleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1234), resp.Seed)

	p := domain.DefaultParameters()
	p.InvestmentYears, p.PayoutYears = 2, 1
	assert.Equal(t, calculation.NewReturnSampler(1234).SampleSeriesRounded(p, 3), resp.Returns)
}

func TestParamsTextRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	w := post(t, router, "/api/v1/params/export", `{"portfolio2": 2000000, "investor_type": "Corporate"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "3 Portefølje II : 2 000 000")
	assert.Contains(t, w.Body.String(), "25 Investortype : AS")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/params/import", bytes.NewReader(w.Body.Bytes()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var params domain.SimulationParameters
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.Equal(t, 2_000_000.0, params.Portfolio2)
	assert.Equal(t, domain.InvestorCorporate, params.InvestorType)

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/params/import", strings.NewReader("1 Portefølje I : mye"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorrelationHeader(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(w.Header().Get(server.CorrelationHeader))
	assert.NoError(t, err, "a fresh UUID is assigned")

	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.CorrelationHeader, id)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(server.CorrelationHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	post(t, router, "/api/v1/projection", `{}`)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prognose_projections_total")
	assert.Contains(t, w.Body.String(), "prognose_http_requests_total")
}
