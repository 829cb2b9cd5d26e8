package calculation

import (
	"math"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// reconcileEpsilon is the drift tolerated between the aggregate portfolio and the
// sum of its sub-portfolios before they are rescaled.
const reconcileEpsilon = 0.01

// YearState is the engine state carried from one simulated year to the next.
type YearState struct {
	Portfolio      float64
	Portfolio1     float64
	Portfolio2     float64
	Portfolio3     float64
	TaxFreeCapital float64
	Pools          domain.TaxPools
}

// NewYearState returns the opening state for params.
func NewYearState(params domain.SimulationParameters) YearState {
	return YearState{
		Portfolio:      params.TotalSeed(),
		Portfolio1:     params.Portfolio1,
		Portfolio2:     params.Portfolio2,
		Portfolio3:     params.LiquidityFund,
		TaxFreeCapital: params.InvestedCapital,
	}
}

// SubTotal is the sum of the three sub-portfolios.
func (s YearState) SubTotal() float64 {
	return s.Portfolio1 + s.Portfolio2 + s.Portfolio3
}

// YearRates carries the market inputs of one year: stock and bond returns in
// percent, and the scheduled stock allocation used when every sub-portfolio is empty.
type YearRates struct {
	Stock             float64
	Bond              float64
	ScheduledStockPct float64
}

// Project runs the year-by-year projection. A nil or empty returns series uses the
// expected return rates for every year; a series shorter than the horizon falls back
// to the expected rates for the remaining years.
func Project(params domain.SimulationParameters, returns *domain.ReturnSeries) domain.Projection {
	initial := params.InitialStockAllocation()
	total := params.TotalYears()
	schedule := AnnualStockPercentages(params.InvestmentYears, params.PayoutYears, initial)

	sampled := returns != nil && returns.Len() > 0
	state := NewYearState(params)

	records := make([]domain.YearRecord, 0, total+1)
	records = append(records, startRecord(params, initial))
	for i := 0; i < total; i++ {
		rates := YearRates{
			Stock:             params.StockReturnRate,
			Bond:              params.BondReturnRate,
			ScheduledStockPct: schedule[i],
		}
		if sampled && i < returns.Len() {
			rates.Stock = returns.Stock[i]
			rates.Bond = returns.Bond[i]
		}
		var rec domain.YearRecord
		state, rec = AdvanceOneYear(state, params, i, rates)
		records = append(records, rec)
	}

	return domain.Projection{Records: records, TerminalValue: state.Portfolio}
}

// TerminalValue runs Project and returns only the unrounded final portfolio value.
func TerminalValue(params domain.SimulationParameters) float64 {
	return Project(params, nil).TerminalValue
}

func startRecord(params domain.SimulationParameters, initialStockPct float64) domain.YearRecord {
	seed := params.TotalSeed()
	return domain.YearRecord{
		Label:           domain.StartLabel,
		Principal:       roundInt(seed),
		StockPct:        roundInt(initialStockPct),
		BondPct:         roundInt(100 - initialStockPct),
		InvestedCapital: roundInt(params.InvestedCapital),
		Portfolio1:      roundInt(params.Portfolio1),
		Portfolio2:      roundInt(params.Portfolio2),
		Portfolio3:      roundInt(params.LiquidityFund),
		EndValue:        roundInt(seed),
	}
}

// AdvanceOneYear applies one simulated year to state. year is zero based; the
// calendar year is params.StartYear + year.
func AdvanceOneYear(state YearState, params domain.SimulationParameters, year int, rates YearRates) (YearState, domain.YearRecord) {
	taxesEnabled := params.TaxCalculationEnabled
	deferBondTax := taxesEnabled && params.DeferredInterestTax
	calendarYear := params.StartYear + year
	investmentYear := year < params.InvestmentYears
	startValue := state.Portfolio

	// Settle last year's deferred liabilities.
	var eventTaxPaid, deferredBondTaxPaid float64
	if taxesEnabled {
		eventTaxPaid = state.Pools.DeferredEventTax
		deferredBondTaxPaid = state.Pools.DeferredBondTax
		state.Portfolio -= eventTaxPaid + deferredBondTaxPaid
	}
	state.Pools.DeferredEventTax = 0
	state.Pools.DeferredBondTax = 0

	state.TaxFreeCapital *= 1 + params.ShieldingRate/100

	// Inflows. Savings and positive events are booked to portfolio 1.
	var savings float64
	if investmentYear {
		savings = params.AnnualSavings
	}
	inflow := savings
	var eventNet, eventWithdrawal, eventInflow, eventCapital float64
	for _, e := range params.Events {
		if !e.ActiveIn(calendarYear) {
			continue
		}
		eventNet += e.Amount
		if e.Amount > 0 {
			inflow += e.Amount
			eventInflow += e.Amount
			if e.AffectsInvestedCapital {
				eventCapital += e.Amount
			}
		} else {
			eventWithdrawal += e.Amount
		}
	}
	if savings > 0 {
		state.Portfolio1 += savings
	}
	state.Portfolio1 += eventInflow
	state.Portfolio += inflow

	subTotal := state.SubTotal()
	stockPct := rates.ScheduledStockPct
	if subTotal > 0 {
		weighted := state.Portfolio1*params.Portfolio1StockAllocation + state.Portfolio2*params.Portfolio2StockAllocation
		stockPct = domain.RoundHalfUp(weighted / subTotal)
	}
	bondPct := 100 - stockPct

	var savingsCapital float64
	if savings > 0 {
		if params.IsPrivate() {
			savingsCapital = savings * params.Portfolio1StockAllocation / 100
		} else {
			savingsCapital = savings
		}
	}
	state.TaxFreeCapital += savingsCapital + eventCapital

	// Growth and running bond tax.
	var netReturn, runningBondTax float64
	if state.Portfolio > 0 {
		stockRate := rates.Stock / 100
		bondRate := rates.Bond / 100
		deduction := (params.KPIRate + params.AdvisoryFeeRate) / 100

		stockValue := state.Portfolio * stockPct / 100
		bondValue := state.Portfolio * bondPct / 100
		grossBond := bondValue * bondRate
		netStock := stockValue*stockRate - stockValue*deduction
		netBond := grossBond - bondValue*deduction
		netReturn = netStock + netBond

		var runningBondTaxRate float64
		switch {
		case deferBondTax:
			state.Pools.UntaxedBondReturnPool += grossBond
		case taxesEnabled:
			runningBondTaxRate = params.BondTaxRate / 100
			runningBondTax = grossBond * runningBondTaxRate
		}
		state.Portfolio += netReturn - runningBondTax

		if subTotal > 0 {
			state.Portfolio1 += subPortfolioReturn(state.Portfolio1, params.Portfolio1StockAllocation, stockRate, bondRate, deduction, runningBondTaxRate)
			state.Portfolio2 += subPortfolioReturn(state.Portfolio2, params.Portfolio2StockAllocation, stockRate, bondRate, deduction, runningBondTaxRate)
			state.Portfolio3 += subPortfolioReturn(state.Portfolio3, 0, stockRate, bondRate, deduction, runningBondTaxRate)
		}
	}

	stockShare := stockPct / 100
	var netWithdrawal float64
	if desired := params.DesiredPayout(); !investmentYear && desired > 0 {
		state = realizeOrdinary(state, params, desired, stockShare)
		netWithdrawal = desired
	}
	if eventWithdrawal < 0 {
		state = realizeEvent(state, params, -eventWithdrawal, stockShare)
	}

	state = reconcile(state)

	rec := domain.YearRecord{
		Label:              domain.YearLabel(params.StartYear, year),
		Principal:          roundInt(startValue),
		Return:             roundInt(netReturn),
		Savings:            roundInt(savings),
		EventNet:           roundInt(eventNet),
		NetWithdrawal:      roundInt(-netWithdrawal),
		EventTax:           roundInt(-eventTaxPaid),
		BondTax:            roundInt(-(deferredBondTaxPaid + runningBondTax)),
		StockPct:           roundInt(stockPct),
		BondPct:            roundInt(bondPct),
		InvestedCapital:    roundInt(state.TaxFreeCapital),
		Portfolio1:         roundInt(state.Portfolio1),
		Portfolio2:         roundInt(state.Portfolio2),
		Portfolio3:         roundInt(state.Portfolio3),
		EndValue:           roundInt(state.Portfolio),
		DeferredTaxAccrued: roundInt(state.Pools.Deferred()),
	}
	return state, rec
}

// subPortfolioReturn grows one sub-portfolio against its own stock allocation.
func subPortfolioReturn(value, stockPct, stockRate, bondRate, deduction, bondTaxRate float64) float64 {
	stockShare := stockPct / 100
	bondShare := (100 - stockPct) / 100
	gross := value * (stockShare*stockRate + bondShare*bondRate)
	return gross - value*deduction - value*bondShare*bondRate*bondTaxRate
}

// realizeOrdinary pays the recurring payout. Tax-free capital is used first; the
// shortfall is taxed and the tax deferred to next year. Realization from the
// untaxed bond pool is measured against the bond value after this year's return.
func realizeOrdinary(state YearState, params domain.SimulationParameters, desired, stockShare float64) YearState {
	bondShare := 1 - stockShare
	stockTaxRate := params.StockTaxRate / 100
	bondTaxRate := params.BondTaxRate / 100

	eligible := desired * stockShare
	if !params.IsPrivate() {
		eligible = desired
	}
	fromTaxFree := math.Min(eligible, state.TaxFreeCapital)
	state.TaxFreeCapital -= fromTaxFree
	remaining := desired - fromTaxFree

	if remaining > 0 && params.TaxCalculationEnabled {
		equityTax := remaining * stockTaxRate
		if params.IsPrivate() {
			equityTax = math.Max(0, desired*stockShare-fromTaxFree) * stockTaxRate
		}
		var bondTax float64
		if params.DeferredInterestTax && bondShare > 0 {
			fromBond := remaining * bondShare
			bondTax = fromBond * bondTaxRate
			state.Pools.UntaxedBondReturnPool -= realizedFromPool(state.Pools.UntaxedBondReturnPool, fromBond, state.Portfolio*bondShare)
		}
		state.Pools.DeferredEventTax += equityTax
		state.Pools.DeferredBondTax += bondTax
	}

	state.Portfolio -= fromTaxFree + remaining
	return state
}

// realizeEvent pays a one-off event withdrawal. Realization from the untaxed bond
// pool is measured against the bond value before the withdrawal.
func realizeEvent(state YearState, params domain.SimulationParameters, amount, stockShare float64) YearState {
	bondShare := 1 - stockShare
	stockTaxRate := params.StockTaxRate / 100
	bondTaxRate := params.BondTaxRate / 100
	preValue := state.Portfolio
	bondValue := preValue * bondShare

	if params.IsPrivate() {
		stockPortion := amount * stockShare
		covered := math.Min(stockPortion, state.TaxFreeCapital)
		state.TaxFreeCapital -= covered
		taxableStock := math.Max(0, stockPortion-covered)
		taxableBond := amount * bondShare

		if params.TaxCalculationEnabled {
			var bondTax float64
			if params.DeferredInterestTax && bondShare > 0 {
				bondTax = taxableBond * bondTaxRate
				state.Pools.UntaxedBondReturnPool -= realizedFromPool(state.Pools.UntaxedBondReturnPool, taxableBond, bondValue)
			}
			state.Pools.DeferredEventTax += taxableStock * stockTaxRate
			state.Pools.DeferredBondTax += bondTax
		}
	} else {
		covered := math.Min(amount, state.TaxFreeCapital)
		state.TaxFreeCapital -= covered
		taxable := amount - covered

		if params.TaxCalculationEnabled && taxable > 0 {
			var bondTax float64
			if params.DeferredInterestTax && bondShare > 0 {
				fromBond := taxable * bondShare
				bondTax = fromBond * bondTaxRate
				state.Pools.UntaxedBondReturnPool -= realizedFromPool(state.Pools.UntaxedBondReturnPool, fromBond, bondValue)
			}
			state.Pools.DeferredEventTax += taxable * stockTaxRate
			state.Pools.DeferredBondTax += bondTax
		}
	}

	state.Portfolio = preValue - amount
	return state
}

// realizedFromPool is the share of the untaxed bond pool realized by withdrawing
// amount out of a bond holding worth bondValue.
func realizedFromPool(pool, amount, bondValue float64) float64 {
	if bondValue <= 0 {
		return 0
	}
	return math.Min(pool, pool*(amount/bondValue))
}

// reconcile rescales the sub-portfolios so they sum to the aggregate value.
func reconcile(state YearState) YearState {
	sum := state.SubTotal()
	if math.Abs(state.Portfolio-sum) <= reconcileEpsilon {
		return state
	}
	switch {
	case sum > 0:
		scale := state.Portfolio / sum
		state.Portfolio1 *= scale
		state.Portfolio2 *= scale
		state.Portfolio3 *= scale
	case state.Portfolio > 0:
		state.Portfolio1 = state.Portfolio
		state.Portfolio2 = 0
		state.Portfolio3 = 0
	}
	return state
}

func roundInt(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int64(domain.RoundHalfUp(x))
}
