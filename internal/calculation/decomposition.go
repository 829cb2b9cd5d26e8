package calculation

import (
	"math"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// Decompose splits every projection row into stock and bond principal and
// accumulated stock and bond return. Inflows are added to principal using portfolio
// 1's allocation. Outflows are taken from accumulated return first and then from
// principal, proportionally across the two asset classes; no component goes negative.
// returns must be the series the projection was run with, or nil for expected rates.
func Decompose(params domain.SimulationParameters, proj domain.Projection, returns *domain.ReturnSeries) []domain.Composition {
	n := len(proj.Records)
	if n == 0 {
		return nil
	}
	stockReturns, bondReturns := annualReturnsByAssetClass(params, proj, returns)

	a1 := params.Portfolio1StockAllocation / 100
	a2 := params.Portfolio2StockAllocation / 100

	out := make([]domain.Composition, n)
	sPrin := domain.RoundHalfUp(params.Portfolio1*a1 + params.Portfolio2*a2)
	bPrin := domain.RoundHalfUp(params.Portfolio1*(1-a1) + params.Portfolio2*(1-a2) + params.LiquidityFund)
	var sRet, bRet float64
	out[0] = domain.Composition{
		Label:          proj.Records[0].Label,
		StockPrincipal: int64(sPrin),
		BondPrincipal:  int64(bPrin),
	}

	for i := 1; i < n; i++ {
		rec := proj.Records[i]
		sRet += stockReturns[i]
		bRet += bondReturns[i]

		inflow := float64(rec.Savings) + math.Max(0, float64(rec.EventNet))
		sPrin += inflow * a1
		bPrin += inflow * (1 - a1)

		outflow := recordOutflow(rec)
		takeS, takeB := allocateFromTwo(outflow, sRet, bRet)
		sRet -= takeS
		bRet -= takeB
		if rest := outflow - takeS - takeB; rest > 0 {
			takeS, takeB = allocateFromTwo(rest, sPrin, bPrin)
			sPrin = math.Max(0, sPrin-takeS)
			bPrin = math.Max(0, bPrin-takeB)
		}

		// Each row is rounded and the next year builds on the rounded figures.
		sRet = domain.RoundHalfUp(math.Max(0, sRet))
		bRet = domain.RoundHalfUp(math.Max(0, bRet))
		sPrin = domain.RoundHalfUp(math.Max(0, sPrin))
		bPrin = domain.RoundHalfUp(math.Max(0, bPrin))
		out[i] = domain.Composition{
			Label:          rec.Label,
			StockPrincipal: int64(sPrin),
			BondPrincipal:  int64(bPrin),
			StockReturn:    int64(sRet),
			BondReturn:     int64(bRet),
		}
	}
	return out
}

// annualReturnsByAssetClass grows the three portfolios individually from their
// start-of-year values and returns the rounded stock and bond return of every row.
func annualReturnsByAssetClass(params domain.SimulationParameters, proj domain.Projection, returns *domain.ReturnSeries) ([]float64, []float64) {
	n := len(proj.Records)
	stockReturns := make([]float64, n)
	bondReturns := make([]float64, n)

	deduction := (params.KPIRate + params.AdvisoryFeeRate) / 100
	a1 := params.Portfolio1StockAllocation / 100
	a2 := params.Portfolio2StockAllocation / 100
	p1, p2, p3 := params.Portfolio1, params.Portfolio2, params.LiquidityFund
	sampled := returns != nil && returns.Len() > 0

	for i := 1; i < n; i++ {
		rec := proj.Records[i]
		if i-1 < params.InvestmentYears && rec.Savings > 0 {
			p1 += float64(rec.Savings)
		}
		if rec.EventNet > 0 {
			p1 += float64(rec.EventNet)
		}

		stockRate, bondRate := params.StockReturnRate/100, params.BondReturnRate/100
		if sampled && i-1 < returns.Len() {
			stockRate, bondRate = returns.Stock[i-1]/100, returns.Bond[i-1]/100
		}
		s1 := p1 * a1 * (stockRate - deduction)
		b1 := p1 * (1 - a1) * (bondRate - deduction)
		s2 := p2 * a2 * (stockRate - deduction)
		b2 := p2 * (1 - a2) * (bondRate - deduction)
		b3 := p3 * (bondRate - deduction)

		stockReturns[i] = domain.RoundHalfUp(s1 + s2)
		bondReturns[i] = domain.RoundHalfUp(b1 + b2 + b3)

		p1 += s1 + b1
		p2 += s2 + b2
		p3 += b3

		if outflow, total := recordOutflow(rec), p1+p2+p3; outflow > 0 && total > 0 {
			p1 = math.Max(0, p1-outflow*p1/total)
			p2 = math.Max(0, p2-outflow*p2/total)
			p3 = math.Max(0, p3-outflow*p3/total)
		}
	}
	return stockReturns, bondReturns
}

// recordOutflow is the cash leaving the portfolio in a row: negative events plus
// the net payout.
func recordOutflow(rec domain.YearRecord) float64 {
	return -math.Min(0, float64(rec.EventNet)) - math.Min(0, float64(rec.NetWithdrawal))
}

// allocateFromTwo takes amount from two buckets in proportion to their size,
// never taking more than a bucket holds.
func allocateFromTwo(amount, a, b float64) (float64, float64) {
	total := a + b
	if amount <= 0 || total <= 0 {
		return 0, 0
	}
	if amount >= total {
		return a, b
	}
	takeA := math.Min(a/total*amount, a)
	takeB := amount - takeA
	if takeB > b {
		takeB = b
		takeA = amount - takeB
	}
	return takeA, takeB
}
