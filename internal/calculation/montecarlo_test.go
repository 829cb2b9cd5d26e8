package calculation

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

func monteCarloPlan() domain.SimulationParameters {
	p := domain.DefaultParameters()
	p.Portfolio1StockAllocation = 60
	p.InvestmentYears = 10
	p.PayoutYears = 15
	p.AnnualSavings = 100_000
	return p
}

func TestMonteCarloSimulator_Defaults(t *testing.T) {
	sim := NewMonteCarloSimulator(MonteCarloConfig{})
	assert.Equal(t, DefaultTrials, sim.Config().Trials)
	assert.Positive(t, sim.Config().Workers)
}

func TestMonteCarloSimulator_SampleCountAndOrder(t *testing.T) {
	sim := NewMonteCarloSimulator(MonteCarloConfig{Seed: 12345, Workers: 4})
	ctx := context.Background()

	payout, err := sim.RunPayoutDistribution(ctx, monteCarloPlan())
	require.NoError(t, err)
	portfolio, err := sim.RunPortfolioDistribution(ctx, monteCarloPlan())
	require.NoError(t, err)

	for _, report := range []*domain.MonteCarloReport{payout, portfolio} {
		assert.Len(t, report.Samples, DefaultTrials)
		assert.Equal(t, DefaultTrials, report.Trials)
		assert.True(t, sort.Float64sAreSorted(report.Samples), "%s samples sorted", report.Kind)
		assert.Equal(t, DefaultTrials, report.Distribution.Count)
		assert.Len(t, report.Distribution.FrequencyTable, 10)
		assert.Equal(t, int64(12345), report.Seed)
	}
	assert.Equal(t, domain.MonteCarloPayout, payout.Kind)
	assert.Equal(t, domain.MonteCarloPortfolio, portfolio.Kind)
	assert.NotEqual(t, payout.RunID, portfolio.RunID)
}

func TestMonteCarloSimulator_ReproducibleAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()
	p := monteCarloPlan()

	one, err := NewMonteCarloSimulator(MonteCarloConfig{Trials: 200, Seed: 77, Workers: 1}).RunPayoutDistribution(ctx, p)
	require.NoError(t, err)
	many, err := NewMonteCarloSimulator(MonteCarloConfig{Trials: 200, Seed: 77, Workers: 8}).RunPayoutDistribution(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, one.Samples, many.Samples)
}

func TestMonteCarloSimulator_SeedFromProvider(t *testing.T) {
	orig := seedFunc
	SetSeedFunc(func() int64 { return 555 })
	t.Cleanup(func() { SetSeedFunc(orig) })

	report, err := NewMonteCarloSimulator(MonteCarloConfig{Trials: 10}).RunPortfolioDistribution(context.Background(), monteCarloPlan())
	require.NoError(t, err)
	assert.Equal(t, int64(555), report.Seed)
}

func TestMonteCarloSimulator_EmptyReports(t *testing.T) {
	ctx := context.Background()
	sim := NewMonteCarloSimulator(MonteCarloConfig{Seed: 1})

	noPayout := monteCarloPlan()
	noPayout.PayoutYears = 0
	report, err := sim.RunPayoutDistribution(ctx, noPayout)
	require.NoError(t, err)
	assert.Empty(t, report.Samples)
	assert.Empty(t, report.Distribution.FrequencyTable)

	noInvestment := monteCarloPlan()
	noInvestment.InvestmentYears = 0
	report, err = sim.RunPortfolioDistribution(ctx, noInvestment)
	require.NoError(t, err)
	assert.Empty(t, report.Samples)
	assert.Zero(t, report.Trials)
}

func TestMonteCarloSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMonteCarloSimulator(MonteCarloConfig{Seed: 3}).RunPayoutDistribution(ctx, monteCarloPlan())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMaxPayoutForPath(t *testing.T) {
	p := domain.DefaultParameters()
	p.Portfolio1 = 1_000_000
	p.InvestmentYears = 0
	p.PayoutYears = 10
	flat := domain.ReturnSeries{Stock: make([]float64, 10), Bond: make([]float64, 10)}
	schedule := AnnualStockPercentages(0, 10, 0)

	got := maxPayoutForPath(p, schedule, flat)
	assert.InDelta(t, 100_000, got, payoutSearchTolerance)
	assert.LessOrEqual(t, got, 100_000.0)

	p.PayoutYears = 0
	assert.Zero(t, maxPayoutForPath(p, nil, domain.ReturnSeries{}))
}

func TestMaxPayoutForPath_SavingsAndGrowth(t *testing.T) {
	p := domain.DefaultParameters()
	p.Portfolio1 = 1_000_000
	p.InvestmentYears = 1
	p.PayoutYears = 1
	p.AnnualSavings = 100_000
	series := domain.ReturnSeries{Stock: []float64{0, 0}, Bond: []float64{10, 0}}
	schedule := AnnualStockPercentages(1, 1, 0)

	// (1M + 100k) * 1.1 is available for the single payout year.
	assert.InDelta(t, 1_210_000, maxPayoutForPath(p, schedule, series), payoutSearchTolerance)
}

func TestPortfolioValueForPath(t *testing.T) {
	p := domain.DefaultParameters()
	p.Portfolio1 = 10_000_000
	p.InvestmentYears = 10
	bond := make([]float64, 10)
	for i := range bond {
		bond[i] = 5
	}
	series := domain.ReturnSeries{Stock: make([]float64, 10), Bond: bond}
	schedule := AnnualStockPercentages(10, 0, 0)

	assert.InDelta(t, 10_000_000*math.Pow(1.05, 10), portfolioValueForPath(p, schedule, series), 1e-3)
}
