package calculation

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// DefaultTrials is the number of sampled return paths per Monte Carlo run.
const DefaultTrials = 1000

// payoutSearchTolerance is the bracket width, in currency units, at which the
// per-path payout search stops.
const payoutSearchTolerance = 100.0

// MonteCarloConfig holds the run settings.
type MonteCarloConfig struct {
	Trials  int   `json:"trials"`
	Workers int   `json:"workers"`
	Seed    int64 `json:"seed"` // 0 draws a seed from the seed provider
}

// MonteCarloSimulator runs Monte Carlo distributions over sampled return paths.
type MonteCarloSimulator struct {
	config MonteCarloConfig
	Logger Logger
}

// NewMonteCarloSimulator creates a simulator, filling unset config values with defaults.
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	if config.Trials <= 0 {
		config.Trials = DefaultTrials
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	return &MonteCarloSimulator{config: config, Logger: NopLogger{}}
}

// Config returns the effective configuration.
func (mcs *MonteCarloSimulator) Config() MonteCarloConfig {
	return mcs.config
}

// RunPayoutDistribution samples the total lifetime payout: for every path, the
// largest constant payout that keeps the path solvent, times the payout years.
// The report is empty when there are no payout years.
func (mcs *MonteCarloSimulator) RunPayoutDistribution(ctx context.Context, params domain.SimulationParameters) (*domain.MonteCarloReport, error) {
	years := params.TotalYears()
	if years == 0 || params.PayoutYears <= 0 {
		return mcs.emptyReport(domain.MonteCarloPayout), nil
	}
	schedule := AnnualStockPercentages(params.InvestmentYears, params.PayoutYears, params.InitialStockAllocation())
	return mcs.run(ctx, domain.MonteCarloPayout, params, years, func(series domain.ReturnSeries) float64 {
		return maxPayoutForPath(params, schedule, series) * float64(params.PayoutYears)
	})
}

// RunPortfolioDistribution samples the portfolio value at the end of the
// investment period. The report is empty when there are no investment years.
func (mcs *MonteCarloSimulator) RunPortfolioDistribution(ctx context.Context, params domain.SimulationParameters) (*domain.MonteCarloReport, error) {
	if params.InvestmentYears <= 0 {
		return mcs.emptyReport(domain.MonteCarloPortfolio), nil
	}
	schedule := AnnualStockPercentages(params.InvestmentYears, params.PayoutYears, params.InitialStockAllocation())
	return mcs.run(ctx, domain.MonteCarloPortfolio, params, params.InvestmentYears, func(series domain.ReturnSeries) float64 {
		return portfolioValueForPath(params, schedule, series)
	})
}

func (mcs *MonteCarloSimulator) emptyReport(kind domain.MonteCarloKind) *domain.MonteCarloReport {
	return &domain.MonteCarloReport{
		RunID:        uuid.New(),
		Kind:         kind,
		Samples:      []float64{},
		Distribution: Summarize(nil),
	}
}

func (mcs *MonteCarloSimulator) run(ctx context.Context, kind domain.MonteCarloKind, params domain.SimulationParameters, years int, trial func(domain.ReturnSeries) float64) (*domain.MonteCarloReport, error) {
	start := nowFunc()
	seed := mcs.config.Seed
	if seed == 0 {
		seed = seedFunc()
	}

	// Trial seeds come from one master stream so results do not depend on scheduling.
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, mcs.config.Trials)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	samples := make([]float64, mcs.config.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mcs.config.Workers)
	for i := range samples {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sampler := NewReturnSampler(seeds[i])
			samples[i] = trial(sampler.SampleSeries(params, years))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo %s run cancelled: %w", kind, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("monte carlo %s run cancelled: %w", kind, err)
	}

	sort.Float64s(samples)
	report := &domain.MonteCarloReport{
		RunID:        uuid.New(),
		Kind:         kind,
		Trials:       len(samples),
		Seed:         seed,
		Samples:      samples,
		Distribution: Summarize(samples),
		Duration:     nowFunc().Sub(start),
	}
	mcs.Logger.Debugf("monte carlo %s run %s: %d trials, mean %.0f, std dev %.0f",
		kind, report.RunID, report.Trials, report.Distribution.Mean, report.Distribution.StdDev)
	return report, nil
}

// pathGrowth is the allocation-weighted return of year i as a fraction.
func pathGrowth(schedule []float64, series domain.ReturnSeries, i int) float64 {
	stockShare := schedule[i] / 100
	return stockShare*series.Stock[i]/100 + (1-stockShare)*series.Bond[i]/100
}

// maxPayoutForPath bisects for the largest constant annual payout that keeps the
// path's value non-negative through the final payout year. The path model is the
// lightweight one: savings and allocation-weighted growth, no taxes or events.
func maxPayoutForPath(params domain.SimulationParameters, schedule []float64, series domain.ReturnSeries) float64 {
	total := params.TotalYears()
	if total == 0 {
		return 0
	}
	initial := params.TotalSeed()
	low, high := 0.0, initial*2
	var maxPayout float64
	for high-low > payoutSearchTolerance {
		payout := (low + high) / 2
		value := initial
		for i := 0; i < total; i++ {
			investmentYear := i < params.InvestmentYears
			if investmentYear && params.AnnualSavings > 0 {
				value += params.AnnualSavings
			}
			value *= 1 + pathGrowth(schedule, series, i)
			if !investmentYear {
				value -= payout
				if value < 0 {
					break
				}
			}
		}
		if value < 0 {
			high = payout
		} else {
			maxPayout = payout
			low = payout
		}
	}
	return maxPayout
}

// portfolioValueForPath grows the seed portfolios with savings through the
// investment years only.
func portfolioValueForPath(params domain.SimulationParameters, schedule []float64, series domain.ReturnSeries) float64 {
	value := params.TotalSeed()
	for i := 0; i < params.InvestmentYears; i++ {
		if params.AnnualSavings > 0 {
			value += params.AnnualSavings
		}
		value *= 1 + pathGrowth(schedule, series, i)
	}
	return value
}
