package calculation

import (
	"math"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

const (
	goalSeekTolerance     = 1000.0
	goalSeekMaxBisections = 50
	goalSeekMaxDoublings  = 20

	savingsMinHigh = 10_000.0
	savingsCap     = 100_000_000.0
	savingsStep    = 10_000.0

	payoutMinHigh  = 10_000.0
	payoutCap      = 100_000_000.0
	payoutFallback = 10_000_000.0
	payoutStep     = 100_000.0

	portfolio1MinHigh  = 1_000_000.0
	portfolio1Cap      = 1_000_000_000.0
	portfolio1Fallback = 100_000_000.0
	portfolio1Step     = 10_000.0
)

// seekSpec describes one goal seek. The terminal value is assumed monotone in the
// searched field: increasing when increasing is set, decreasing otherwise.
type seekSpec struct {
	field      domain.GoalSeekField
	original   float64
	minHigh    float64
	cap        float64
	fallback   float64
	increasing bool
	eval       func(x float64) float64
	round      func(x float64) float64
}

// SolveAnnualSavings finds the smallest annual savings that brings the terminal
// value to zero. It returns false when no payout years are configured.
func SolveAnnualSavings(params domain.SimulationParameters) (domain.GoalSeekResult, bool) {
	if params.PayoutYears <= 0 {
		return domain.GoalSeekResult{}, false
	}
	base := params.Clone()
	return seek(seekSpec{
		field:      domain.GoalSeekAnnualSavings,
		original:   params.AnnualSavings,
		minHigh:    math.Max(params.AnnualSavings, savingsMinHigh),
		cap:        savingsCap,
		increasing: true,
		eval: func(x float64) float64 {
			p := base
			p.AnnualSavings = x
			return TerminalValue(p)
		},
		round: func(x float64) float64 { return math.Ceil(x/savingsStep) * savingsStep },
	}), true
}

// SolveConsumptionPayout finds the largest annual consumption payout that keeps the
// terminal value non-negative. The wealth tax payout is folded into consumption and
// searched at zero.
func SolveConsumptionPayout(params domain.SimulationParameters) (domain.GoalSeekResult, bool) {
	if params.PayoutYears <= 0 {
		return domain.GoalSeekResult{}, false
	}
	base := params.Clone()
	base.DesiredWealthTaxPayout = 0
	return seek(seekSpec{
		field:    domain.GoalSeekConsumptionPayout,
		original: params.DesiredConsumptionPayout,
		minHigh:  math.Max(params.DesiredConsumptionPayout, payoutMinHigh),
		cap:      payoutCap,
		fallback: payoutFallback,
		eval: func(x float64) float64 {
			p := base
			p.DesiredConsumptionPayout = x
			return TerminalValue(p)
		},
		round: func(x float64) float64 { return domain.RoundHalfUp(x/payoutStep) * payoutStep },
	}), true
}

// SolvePortfolio1 finds the smallest portfolio 1 seed that brings the terminal value
// to zero.
func SolvePortfolio1(params domain.SimulationParameters) (domain.GoalSeekResult, bool) {
	if params.PayoutYears <= 0 {
		return domain.GoalSeekResult{}, false
	}
	base := params.Clone()
	return seek(seekSpec{
		field:      domain.GoalSeekPortfolio1,
		original:   params.Portfolio1,
		minHigh:    math.Max(params.Portfolio1, portfolio1MinHigh),
		cap:        portfolio1Cap,
		fallback:   portfolio1Fallback,
		increasing: true,
		eval: func(x float64) float64 {
			p := base
			p.Portfolio1 = x
			return TerminalValue(p)
		},
		round: func(x float64) float64 { return domain.RoundHalfUp(x/portfolio1Step) * portfolio1Step },
	}), true
}

// seek brackets the root by doubling the upper bound, then bisects. When doubling
// hits the cap without bracketing, it bisects [0, fallback] (or [0, high] when no
// fallback is set) and the result is the boundary of the search domain.
func seek(s seekSpec) domain.GoalSeekResult {
	// short reports that the root lies above the evaluated point.
	short := func(v float64) bool {
		if s.increasing {
			return v < 0
		}
		return v >= 0
	}

	low, high := 0.0, s.minHigh
	last := s.eval(high)
	for attempts := 0; short(last) && high < s.cap && attempts < goalSeekMaxDoublings; attempts++ {
		high *= 2
		last = s.eval(high)
	}

	res := domain.GoalSeekResult{Field: s.field, Original: s.original, Bracketed: !short(last)}
	if !res.Bracketed && s.fallback > 0 {
		high = s.fallback
	}

	for i := 0; i < goalSeekMaxBisections; i++ {
		mid := (low + high) / 2
		v := s.eval(mid)
		res.Iterations++
		if math.Abs(v) < goalSeekTolerance {
			low = mid
			res.Converged = true
			break
		}
		if short(v) {
			low = mid
		} else {
			high = mid
		}
	}

	res.Raw = low
	res.Value = s.round(low)
	return res
}

// ApplyGoalSeek writes a goal seek result into a copy of params, including the
// report fields that carry the last payout and portfolio 1 results.
func ApplyGoalSeek(params domain.SimulationParameters, res domain.GoalSeekResult) domain.SimulationParameters {
	p := params.Clone()
	switch res.Field {
	case domain.GoalSeekAnnualSavings:
		p.AnnualSavings = res.Value
	case domain.GoalSeekConsumptionPayout:
		p.DesiredConsumptionPayout = res.Value
		p.DesiredWealthTaxPayout = 0
		p.GoalSeekPayoutResult = res.Value
	case domain.GoalSeekPortfolio1:
		p.Portfolio1 = res.Value
		p.GoalSeekPortfolio1Result = res.Value
	}
	return p
}
