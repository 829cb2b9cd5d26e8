package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// CSVExporter writes one row per projection year with every record field.
type CSVExporter struct{}

func (c CSVExporter) Name() string      { return "csv" }
func (c CSVExporter) Extension() string { return "csv" }

func (c CSVExporter) Format(report *domain.Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Principal", "Return", "Savings", "EventNet", "NetWithdrawal", "EventTax", "BondTax", "StockPct", "BondPct", "InvestedCapital", "Portfolio1", "Portfolio2", "Portfolio3", "EndValue", "DeferredTaxAccrued"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range report.Projection.Records {
		row := []string{
			r.Label,
			intToString(r.Principal),
			intToString(r.Return),
			intToString(r.Savings),
			intToString(r.EventNet),
			intToString(r.NetWithdrawal),
			intToString(r.EventTax),
			intToString(r.BondTax),
			intToString(r.StockPct),
			intToString(r.BondPct),
			intToString(r.InvestedCapital),
			intToString(r.Portfolio1),
			intToString(r.Portfolio2),
			intToString(r.Portfolio3),
			intToString(r.EndValue),
			intToString(r.DeferredTaxAccrued),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CSVDetailedExporter adds the principal/return split, the sampled returns and the
// accumulated return index to each year. Columns a report does not carry are left
// empty.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string      { return "detailed-csv" }
func (c CSVDetailedExporter) Extension() string { return "csv" }

func (c CSVDetailedExporter) Format(report *domain.Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "EndValue", "StockPrincipal", "BondPrincipal", "StockReturn", "BondReturn", "SampledStockReturn", "SampledBondReturn", "AccumulatedIndex", "AccumulatedPercent"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i, r := range report.Projection.Records {
		row := make([]string, len(header))
		row[0] = r.Label
		row[1] = intToString(r.EndValue)
		if i < len(report.Composition) {
			comp := report.Composition[i]
			row[2] = intToString(comp.StockPrincipal)
			row[3] = intToString(comp.BondPrincipal)
			row[4] = intToString(comp.StockReturn)
			row[5] = intToString(comp.BondReturn)
		}
		// Row i covers sampled year i-1; the start row has no return.
		if ret := report.Returns; ret != nil && i > 0 && i-1 < ret.Len() {
			row[6] = strconv.FormatFloat(ret.Stock[i-1], 'f', 2, 64)
			row[7] = strconv.FormatFloat(ret.Bond[i-1], 'f', 2, 64)
		}
		if i < len(report.Accumulated) {
			row[8] = strconv.FormatFloat(report.Accumulated[i].Index, 'f', 4, 64)
			row[9] = strconv.FormatFloat(report.Accumulated[i].Percent, 'f', 2, 64)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
