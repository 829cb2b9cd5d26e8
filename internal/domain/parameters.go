package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// DefaultStartYear is the first calendar year of a projection.
const DefaultStartYear = 2026

// MaxEvents is the number of one-off or recurring cash-flow events a plan may carry.
const MaxEvents = 4

// InvestorType selects the tax treatment of withdrawals and contributions.
type InvestorType string

const (
	// InvestorPrivate is a private individual (aksjesparekonto-style rules).
	InvestorPrivate InvestorType = "Private"
	// InvestorCorporate is a closely-held holding company (AS).
	InvestorCorporate InvestorType = "Corporate"
)

// Valid reports whether t is a known investor type.
func (t InvestorType) Valid() bool {
	return t == InvestorPrivate || t == InvestorCorporate
}

// Event is a cash flow applied in every calendar year of [StartYear, EndYear].
// Positive amounts are deposits, negative amounts withdrawals.
type Event struct {
	Amount                 float64 `yaml:"amount" json:"amount"`
	StartYear              int     `yaml:"start_year" json:"start_year"`
	EndYear                int     `yaml:"end_year" json:"end_year"`
	AffectsInvestedCapital bool    `yaml:"affects_invested_capital" json:"affects_invested_capital"`
	Label                  string  `yaml:"label" json:"label"`
}

// eventFields decodes an Event without its custom unmarshalers.
type eventFields Event

// UnmarshalYAML decodes an event. A missing affects_invested_capital key means true.
func (e *Event) UnmarshalYAML(value *yaml.Node) error {
	aux := eventFields{AffectsInvestedCapital: true}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*e = Event(aux)
	return nil
}

// UnmarshalJSON decodes an event. A missing affects_invested_capital key means true.
func (e *Event) UnmarshalJSON(b []byte) error {
	aux := eventFields{AffectsInvestedCapital: true}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*e = Event(aux)
	return nil
}

// ActiveIn reports whether the event applies to the given calendar year.
func (e Event) ActiveIn(year int) bool {
	return year >= e.StartYear && year <= e.EndYear
}

// SimulationParameters is the complete input of one projection. Every field is
// populated; callers start from DefaultParameters and override what they need.
// Percentages are whole numbers, so 37.84 means 37.84 %.
type SimulationParameters struct {
	Portfolio1                float64 `yaml:"portfolio1" json:"portfolio1"`
	Portfolio2                float64 `yaml:"portfolio2" json:"portfolio2"`
	LiquidityFund             float64 `yaml:"liquidity_fund" json:"liquidity_fund"`
	Portfolio1StockAllocation float64 `yaml:"portfolio1_stock_allocation" json:"portfolio1_stock_allocation"`
	Portfolio2StockAllocation float64 `yaml:"portfolio2_stock_allocation" json:"portfolio2_stock_allocation"`
	InvestedCapital           float64 `yaml:"invested_capital" json:"invested_capital"`

	InvestmentYears int     `yaml:"investment_years" json:"investment_years"`
	PayoutYears     int     `yaml:"payout_years" json:"payout_years"`
	AnnualSavings   float64 `yaml:"annual_savings" json:"annual_savings"`
	Events          []Event `yaml:"events" json:"events"`
	StartYear       int     `yaml:"start_year" json:"start_year"`

	StockReturnRate float64 `yaml:"stock_return_rate" json:"stock_return_rate"`
	BondReturnRate  float64 `yaml:"bond_return_rate" json:"bond_return_rate"`
	StockStdDev     float64 `yaml:"stock_std_dev" json:"stock_std_dev"`
	BondStdDev      float64 `yaml:"bond_std_dev" json:"bond_std_dev"`
	KPIRate         float64 `yaml:"kpi_rate" json:"kpi_rate"`
	AdvisoryFeeRate float64 `yaml:"advisory_fee_rate" json:"advisory_fee_rate"`

	ShieldingRate         float64      `yaml:"shielding_rate" json:"shielding_rate"`
	StockTaxRate          float64      `yaml:"stock_tax_rate" json:"stock_tax_rate"`
	BondTaxRate           float64      `yaml:"bond_tax_rate" json:"bond_tax_rate"`
	InvestorType          InvestorType `yaml:"investor_type" json:"investor_type"`
	TaxCalculationEnabled bool         `yaml:"tax_calculation_enabled" json:"tax_calculation_enabled"`
	DeferredInterestTax   bool         `yaml:"deferred_interest_tax" json:"deferred_interest_tax"`

	DesiredConsumptionPayout float64 `yaml:"desired_consumption_payout" json:"desired_consumption_payout"`
	DesiredWealthTaxPayout   float64 `yaml:"desired_wealth_tax_payout" json:"desired_wealth_tax_payout"`

	// Results of the last goal seek, carried so they round-trip through exports.
	GoalSeekPayoutResult     float64 `yaml:"goal_seek_payout_result" json:"goal_seek_payout_result"`
	GoalSeekPortfolio1Result float64 `yaml:"goal_seek_portfolio1_result" json:"goal_seek_portfolio1_result"`
}

// DefaultParameters returns the advisor's starting plan: a 10 MNOK bond portfolio
// held for ten years by a private investor with taxes enabled.
func DefaultParameters() SimulationParameters {
	return SimulationParameters{
		Portfolio1:            10_000_000,
		InvestmentYears:       10,
		StartYear:             DefaultStartYear,
		StockReturnRate:       8.0,
		BondReturnRate:        5.0,
		StockStdDev:           12.0,
		BondStdDev:            3.0,
		ShieldingRate:         3.9,
		StockTaxRate:          37.84,
		BondTaxRate:           22.0,
		InvestorType:          InvestorPrivate,
		TaxCalculationEnabled: true,
		Events:                []Event{},
	}
}

// TotalSeed is the combined opening value of the three portfolios.
func (p SimulationParameters) TotalSeed() float64 {
	return p.Portfolio1 + p.Portfolio2 + p.LiquidityFund
}

// TotalYears is the number of simulated years after the start row.
func (p SimulationParameters) TotalYears() int {
	return p.InvestmentYears + p.PayoutYears
}

// DesiredPayout is the combined annual withdrawal during payout years.
func (p SimulationParameters) DesiredPayout() float64 {
	return p.DesiredConsumptionPayout + p.DesiredWealthTaxPayout
}

// IsPrivate reports whether private-investor rules apply.
func (p SimulationParameters) IsPrivate() bool {
	return p.InvestorType != InvestorCorporate
}

// InitialStockAllocation is the size-weighted stock percentage of the three
// portfolios. The liquidity fund holds no stocks. When every portfolio is empty the
// unweighted average of the three allocations is used instead.
func (p SimulationParameters) InitialStockAllocation() float64 {
	p1 := math.Max(0, p.Portfolio1)
	p2 := math.Max(0, p.Portfolio2)
	lf := math.Max(0, p.LiquidityFund)
	total := p1 + p2 + lf
	if total <= 0 {
		return RoundHalfUp((p.Portfolio1StockAllocation + p.Portfolio2StockAllocation + 0) / 3)
	}
	weighted := p1*p.Portfolio1StockAllocation + p2*p.Portfolio2StockAllocation + lf*0
	return RoundHalfUp(weighted / total)
}

// Normalize clamps InvestedCapital to the combined seed portfolios and fills a
// missing start year. It returns the adjusted copy.
func (p SimulationParameters) Normalize() SimulationParameters {
	if p.StartYear == 0 {
		p.StartYear = DefaultStartYear
	}
	if p.InvestedCapital > p.TotalSeed() {
		p.InvestedCapital = p.TotalSeed()
	}
	if p.InvestedCapital < 0 {
		p.InvestedCapital = 0
	}
	if p.InvestorType == "" {
		p.InvestorType = InvestorPrivate
	}
	if p.Events == nil {
		p.Events = []Event{}
	}
	return p
}

// Clone returns a deep copy so callers can vary one field without aliasing events.
func (p SimulationParameters) Clone() SimulationParameters {
	c := p
	c.Events = append([]Event(nil), p.Events...)
	return c
}

// Validate checks the parameter ranges the engine relies on.
func (p SimulationParameters) Validate() error {
	if p.Portfolio1 < 0 || p.Portfolio2 < 0 || p.LiquidityFund < 0 {
		return fmt.Errorf("portfolio sizes cannot be negative")
	}
	if p.Portfolio1StockAllocation < 0 || p.Portfolio1StockAllocation > 100 {
		return fmt.Errorf("portfolio 1 stock allocation must be between 0 and 100, got %.2f", p.Portfolio1StockAllocation)
	}
	if p.Portfolio2StockAllocation < 0 || p.Portfolio2StockAllocation > 100 {
		return fmt.Errorf("portfolio 2 stock allocation must be between 0 and 100, got %.2f", p.Portfolio2StockAllocation)
	}
	if p.InvestedCapital < 0 {
		return fmt.Errorf("invested capital cannot be negative")
	}
	if p.InvestmentYears < 0 || p.PayoutYears < 0 {
		return fmt.Errorf("investment and payout years cannot be negative")
	}
	if p.TotalYears() > 100 {
		return fmt.Errorf("investment and payout years cannot exceed 100 in total, got %d", p.TotalYears())
	}
	if p.AnnualSavings < 0 {
		return fmt.Errorf("annual savings cannot be negative")
	}
	if p.DesiredConsumptionPayout < 0 || p.DesiredWealthTaxPayout < 0 {
		return fmt.Errorf("desired payouts cannot be negative")
	}
	if p.StockStdDev < 0 || p.BondStdDev < 0 {
		return fmt.Errorf("standard deviations cannot be negative")
	}
	if p.StockTaxRate < 0 || p.StockTaxRate > 100 || p.BondTaxRate < 0 || p.BondTaxRate > 100 {
		return fmt.Errorf("tax rates must be between 0 and 100")
	}
	if !p.InvestorType.Valid() {
		return fmt.Errorf("investor type must be %q or %q, got %q", InvestorPrivate, InvestorCorporate, p.InvestorType)
	}
	if len(p.Events) > MaxEvents {
		return fmt.Errorf("at most %d events are supported, got %d", MaxEvents, len(p.Events))
	}
	for i, e := range p.Events {
		if e.EndYear < e.StartYear {
			return fmt.Errorf("event %d: end year %d is before start year %d", i+1, e.EndYear, e.StartYear)
		}
	}
	return nil
}

// RoundHalfUp rounds to the nearest integer with halves going towards +Inf.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
