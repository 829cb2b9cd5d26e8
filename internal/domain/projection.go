package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// StartLabel labels the opening row of every projection.
const StartLabel = "start"

// YearRecord represents one row of a projection. All money figures are whole
// currency units, rounded half up from the engine's floating point state.
type YearRecord struct {
	Label string `json:"label" yaml:"label"`
	// Principal (hovedstol) is the portfolio value at the start of the year.
	Principal int64 `json:"principal" yaml:"principal"`
	// Return (avkastning) is net of KPI and advisory fee, before tax.
	Return        int64 `json:"return" yaml:"return"`
	Savings       int64 `json:"savings" yaml:"savings"`
	EventNet      int64 `json:"event_net" yaml:"event_net"`
	NetWithdrawal int64 `json:"net_withdrawal" yaml:"net_withdrawal"`
	// EventTax is the deferred event tax settled this year, as a negative figure.
	EventTax int64 `json:"event_tax" yaml:"event_tax"`
	// BondTax is last year's deferred bond tax plus this year's running bond tax, negative.
	BondTax  int64 `json:"bond_tax" yaml:"bond_tax"`
	StockPct int64 `json:"stock_pct" yaml:"stock_pct"`
	BondPct  int64 `json:"bond_pct" yaml:"bond_pct"`
	// InvestedCapital is the remaining tax-free capital.
	InvestedCapital int64 `json:"invested_capital" yaml:"invested_capital"`

	Portfolio1         int64 `json:"portfolio1" yaml:"portfolio1"`
	Portfolio2         int64 `json:"portfolio2" yaml:"portfolio2"`
	Portfolio3         int64 `json:"portfolio3" yaml:"portfolio3"`
	EndValue           int64 `json:"end_value" yaml:"end_value"`
	DeferredTaxAccrued int64 `json:"deferred_tax_accrued" yaml:"deferred_tax_accrued"`
}

// YearLabel returns the label of the i-th simulated year (zero based).
func YearLabel(startYear, i int) string {
	return strconv.Itoa(startYear + i)
}

// Projection is the result of one engine run.
type Projection struct {
	Records       []YearRecord `json:"records" yaml:"records"`
	TerminalValue float64      `json:"terminal_value" yaml:"terminal_value"`
}

// Years returns the number of simulated years, excluding the start row.
func (p Projection) Years() int {
	if len(p.Records) == 0 {
		return 0
	}
	return len(p.Records) - 1
}

// Final returns the last record, or the zero record for an empty projection.
func (p Projection) Final() YearRecord {
	if len(p.Records) == 0 {
		return YearRecord{}
	}
	return p.Records[len(p.Records)-1]
}

// ReturnSeries holds annual stock and bond returns in percent, one entry per
// simulated year.
type ReturnSeries struct {
	Stock []float64 `json:"stock" yaml:"stock"`
	Bond  []float64 `json:"bond" yaml:"bond"`
}

// Len is the number of years both series cover.
func (r ReturnSeries) Len() int {
	if len(r.Stock) < len(r.Bond) {
		return len(r.Stock)
	}
	return len(r.Bond)
}

// TaxPools are the tax liabilities carried between years.
type TaxPools struct {
	DeferredEventTax      float64 `json:"deferred_event_tax"`
	DeferredBondTax       float64 `json:"deferred_bond_tax"`
	UntaxedBondReturnPool float64 `json:"untaxed_bond_return_pool"`
}

// Deferred is the total liability payable at the start of next year.
func (t TaxPools) Deferred() float64 {
	return t.DeferredEventTax + t.DeferredBondTax
}

// GoalSeekField names the parameter a goal seek solves for.
type GoalSeekField string

const (
	GoalSeekAnnualSavings     GoalSeekField = "annual_savings"
	GoalSeekConsumptionPayout GoalSeekField = "desired_consumption_payout"
	GoalSeekPortfolio1        GoalSeekField = "portfolio1"
)

// GoalSeekResult reports the outcome of a goal seek. Value is rounded to the
// field's slider step; Raw is the bisection result before rounding. Converged is
// set when the search stopped inside the terminal value tolerance and Bracketed is
// false when the doubling search hit its cap.
type GoalSeekResult struct {
	Field      GoalSeekField `json:"field" yaml:"field"`
	Original   float64       `json:"original" yaml:"original"`
	Value      float64       `json:"value" yaml:"value"`
	Raw        float64       `json:"raw" yaml:"raw"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Converged  bool          `json:"converged" yaml:"converged"`
	Bracketed  bool          `json:"bracketed" yaml:"bracketed"`
}

// FrequencyBin is one row of a Monte Carlo frequency table, keyed by bin center.
type FrequencyBin struct {
	Value float64 `json:"value" yaml:"value"`
	Count int     `json:"count" yaml:"count"`
}

// Distribution summarizes a sorted Monte Carlo sample set.
type Distribution struct {
	Count          int            `json:"count" yaml:"count"`
	Mean           float64        `json:"mean" yaml:"mean"`
	StdDev         float64        `json:"std_dev" yaml:"std_dev"`
	Min            float64        `json:"min" yaml:"min"`
	Max            float64        `json:"max" yaml:"max"`
	StartX         float64        `json:"start_x" yaml:"start_x"`
	Step           float64        `json:"step" yaml:"step"`
	Curve          []float64      `json:"curve,omitempty" yaml:"curve,omitempty"`
	Histogram      []int          `json:"histogram,omitempty" yaml:"histogram,omitempty"`
	MaxCurveValue  float64        `json:"max_curve_value" yaml:"max_curve_value"`
	MarkerIndexes  map[string]int `json:"marker_indexes,omitempty" yaml:"marker_indexes,omitempty"`
	FrequencyTable []FrequencyBin `json:"frequency_table" yaml:"frequency_table"`
}

// MonteCarloKind selects which quantity a Monte Carlo run samples.
type MonteCarloKind string

const (
	MonteCarloPayout    MonteCarloKind = "payout"
	MonteCarloPortfolio MonteCarloKind = "portfolio"
)

// MonteCarloReport is the outcome of one Monte Carlo run.
type MonteCarloReport struct {
	RunID        uuid.UUID      `json:"run_id" yaml:"run_id"`
	Kind         MonteCarloKind `json:"kind" yaml:"kind"`
	Trials       int            `json:"trials" yaml:"trials"`
	Seed         int64          `json:"seed" yaml:"seed"`
	Samples      []float64      `json:"samples" yaml:"samples"`
	Distribution Distribution   `json:"distribution" yaml:"distribution"`
	Duration     time.Duration  `json:"duration" yaml:"duration"`
}

// Composition splits one year's portfolio into principal and accumulated return
// per asset class.
type Composition struct {
	Label          string `json:"label" yaml:"label"`
	StockPrincipal int64  `json:"stock_principal" yaml:"stock_principal"`
	BondPrincipal  int64  `json:"bond_principal" yaml:"bond_principal"`
	StockReturn    int64  `json:"stock_return" yaml:"stock_return"`
	BondReturn     int64  `json:"bond_return" yaml:"bond_return"`
}

// AccumulatedPoint is one year of the accumulated return index.
type AccumulatedPoint struct {
	Label   string  `json:"label" yaml:"label"`
	Index   float64 `json:"index" yaml:"index"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Report bundles everything a formatter can render.
type Report struct {
	Parameters  SimulationParameters `json:"parameters" yaml:"parameters"`
	Projection  Projection           `json:"projection" yaml:"projection"`
	Returns     *ReturnSeries        `json:"returns,omitempty" yaml:"returns,omitempty"`
	Composition []Composition        `json:"composition,omitempty" yaml:"composition,omitempty"`
	Accumulated []AccumulatedPoint   `json:"accumulated,omitempty" yaml:"accumulated,omitempty"`
	GoalSeek    *GoalSeekResult      `json:"goal_seek,omitempty" yaml:"goal_seek,omitempty"`
	MonteCarlo  *MonteCarloReport    `json:"monte_carlo,omitempty" yaml:"monte_carlo,omitempty"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
}
