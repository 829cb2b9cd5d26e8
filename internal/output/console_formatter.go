package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ConsoleFormatter renders the projection as an aligned table followed by the
// goal-seek and Monte Carlo sections when the report has them.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string      { return "console" }
func (c ConsoleFormatter) Extension() string { return "txt" }

func (c ConsoleFormatter) Format(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	p := report.Parameters

	fmt.Fprintln(&buf, "INVESTMENT PROJECTION")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Investor: %s  Taxes: %s  Deferred interest tax: %s\n",
		p.InvestorType, onOff(p.TaxCalculationEnabled), onOff(p.DeferredInterestTax))
	fmt.Fprintf(&buf, "Portfolios: %s / %s / %s  Invested capital: %s\n",
		FormatAmount(p.Portfolio1), FormatAmount(p.Portfolio2), FormatAmount(p.LiquidityFund), FormatAmount(p.InvestedCapital))
	fmt.Fprintf(&buf, "Years: %d investing, %d paying out from %d\n", p.InvestmentYears, p.PayoutYears, p.StartYear)
	if report.Returns != nil {
		fmt.Fprintln(&buf, "Returns: sampled path")
	} else {
		fmt.Fprintf(&buf, "Returns: stocks %s, bonds %s\n", FormatPercentage(p.StockReturnRate), FormatPercentage(p.BondReturnRate))
	}
	fmt.Fprintln(&buf)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tPrincipal\tReturn\tSavings\tEvents\tWithdrawal\tEvent tax\tBond tax\tStocks\tEnd value\t")
	for _, r := range report.Projection.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d%%\t%s\t\n",
			r.Label,
			FormatAmount(float64(r.Principal)),
			FormatAmount(float64(r.Return)),
			FormatAmount(float64(r.Savings)),
			FormatAmount(float64(r.EventNet)),
			FormatAmount(float64(r.NetWithdrawal)),
			FormatAmount(float64(r.EventTax)),
			FormatAmount(float64(r.BondTax)),
			r.StockPct,
			FormatAmount(float64(r.EndValue)),
		)
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "\nTerminal value: %s\n", FormatCurrency(report.Projection.Final().EndValue))

	if gs := report.GoalSeek; gs != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "GOAL SEEK")
		fmt.Fprintf(&buf, "%s: %s -> %s (iterations %d, converged %s)\n",
			gs.Field, FormatAmount(gs.Original), FormatAmount(gs.Value), gs.Iterations, boolToString(gs.Converged))
		if !gs.Bracketed {
			fmt.Fprintln(&buf, "Search cap reached; the value is the upper bound of the search range.")
		}
	}

	if mc := report.MonteCarlo; mc != nil {
		fmt.Fprintln(&buf)
		writeMonteCarloSummary(&buf, mc)
	}
	return buf.Bytes(), nil
}

func writeMonteCarloSummary(buf *bytes.Buffer, mc *domain.MonteCarloReport) {
	d := mc.Distribution
	fmt.Fprintf(buf, "MONTE CARLO (%s, %d trials, seed %d)\n", mc.Kind, mc.Trials, mc.Seed)
	if d.Count == 0 {
		fmt.Fprintln(buf, "No samples.")
		return
	}
	fmt.Fprintf(buf, "Mean %s  Std dev %s  Min %s  Max %s\n",
		FormatAmount(d.Mean), FormatAmount(d.StdDev), FormatAmount(d.Min), FormatAmount(d.Max))
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Value\tCount\t")
	for _, bin := range d.FrequencyTable {
		fmt.Fprintf(tw, "%s\t%d\t\n", FormatAmount(bin.Value), bin.Count)
	}
	_ = tw.Flush()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
