package calculation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ErrInvalidParameters wraps every parameter validation failure.
var ErrInvalidParameters = errors.New("invalid parameters")

// CalculationEngine orchestrates projections, goal seeks and Monte Carlo runs. It
// validates parameters at the boundary; the functions it calls never fail.
type CalculationEngine struct {
	MonteCarlo MonteCarloConfig
	Logger     Logger
}

// NewCalculationEngine creates a new calculation engine
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{
		MonteCarlo: MonteCarloConfig{Trials: DefaultTrials},
		Logger:     NopLogger{},
	}
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// prepare normalizes and validates params.
func (ce *CalculationEngine) prepare(params domain.SimulationParameters) (domain.SimulationParameters, error) {
	p := params.Normalize()
	if p.InvestedCapital != params.InvestedCapital {
		ce.Logger.Debugf("invested capital clamped from %.0f to %.0f", params.InvestedCapital, p.InvestedCapital)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return p, nil
}

// RunProjection runs one projection. A nil returns series uses expected rates.
func (ce *CalculationEngine) RunProjection(params domain.SimulationParameters, returns *domain.ReturnSeries) (*domain.Report, error) {
	p, err := ce.prepare(params)
	if err != nil {
		return nil, err
	}
	if returns != nil && returns.Len() > 0 && returns.Len() < p.TotalYears() {
		ce.Logger.Warnf("return series covers %d of %d years; expected rates used for the rest", returns.Len(), p.TotalYears())
	}

	proj := Project(p, returns)
	report := &domain.Report{
		Parameters:  p,
		Projection:  proj,
		Returns:     returns,
		Composition: Decompose(p, proj, returns),
		GeneratedAt: nowFunc(),
	}
	if returns != nil {
		report.Accumulated = AccumulatedReturn(proj, *returns)
	}
	ce.Logger.Infof("projection over %d years: terminal value %.0f", proj.Years(), proj.TerminalValue)
	return report, nil
}

// RunSimulatedProjection samples one return path, rounded to two decimals, and
// projects it. seed 0 draws a seed from the seed provider.
func (ce *CalculationEngine) RunSimulatedProjection(params domain.SimulationParameters, seed int64) (*domain.Report, error) {
	p, err := ce.prepare(params)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = seedFunc()
	}
	series := NewReturnSampler(seed).SampleSeriesRounded(p, p.TotalYears())
	return ce.RunProjection(p, &series)
}

// GoalSeek solves for field and returns the result with params updated to it. ok
// is false when no payout years are configured; params are then returned unchanged.
func (ce *CalculationEngine) GoalSeek(params domain.SimulationParameters, field domain.GoalSeekField) (res *domain.GoalSeekResult, updated domain.SimulationParameters, ok bool, err error) {
	p, err := ce.prepare(params)
	if err != nil {
		return nil, params, false, err
	}

	var r domain.GoalSeekResult
	switch field {
	case domain.GoalSeekAnnualSavings:
		r, ok = SolveAnnualSavings(p)
	case domain.GoalSeekConsumptionPayout:
		r, ok = SolveConsumptionPayout(p)
	case domain.GoalSeekPortfolio1:
		r, ok = SolvePortfolio1(p)
	default:
		return nil, p, false, fmt.Errorf("unknown goal seek field %q", field)
	}
	if !ok {
		ce.Logger.Infof("goal seek %s skipped: no payout years", field)
		return nil, p, false, nil
	}
	if !r.Bracketed {
		ce.Logger.Warnf("goal seek %s hit its search cap; %.0f is a domain boundary", field, r.Value)
	}
	ce.Logger.Infof("goal seek %s: %.0f -> %.0f after %d iterations", field, r.Original, r.Value, r.Iterations)
	return &r, ApplyGoalSeek(p, r), true, nil
}

// RunMonteCarlo runs the distribution selected by kind.
func (ce *CalculationEngine) RunMonteCarlo(ctx context.Context, params domain.SimulationParameters, kind domain.MonteCarloKind) (*domain.MonteCarloReport, error) {
	p, err := ce.prepare(params)
	if err != nil {
		return nil, err
	}
	sim := NewMonteCarloSimulator(ce.MonteCarlo)
	sim.Logger = ce.Logger
	switch kind {
	case domain.MonteCarloPayout:
		return sim.RunPayoutDistribution(ctx, p)
	case domain.MonteCarloPortfolio:
		return sim.RunPortfolioDistribution(ctx, p)
	default:
		return nil, fmt.Errorf("unknown monte carlo report %q", kind)
	}
}
