package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ErrNoMonteCarlo is returned when a Monte Carlo format is asked for a report
// without Monte Carlo results.
var ErrNoMonteCarlo = errors.New("report has no Monte Carlo results")

// MonteCarloCSVFormatter exports the summary statistics followed by the frequency
// table of a Monte Carlo run.
type MonteCarloCSVFormatter struct {
	// IncludeSamples appends every sorted sample as a third section.
	IncludeSamples bool
}

func (m MonteCarloCSVFormatter) Name() string      { return "montecarlo-csv" }
func (m MonteCarloCSVFormatter) Extension() string { return "csv" }

func (m MonteCarloCSVFormatter) Format(report *domain.Report) ([]byte, error) {
	mc := report.MonteCarlo
	if mc == nil {
		return nil, ErrNoMonteCarlo
	}
	d := mc.Distribution

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"Metric", "Value", "Description"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	summaryData := [][]string{
		{"Run ID", mc.RunID.String(), "Identifier of this run"},
		{"Report", string(mc.Kind), "Sampled quantity"},
		{"Number of Simulations", strconv.Itoa(mc.Trials), "Total number of trials run"},
		{"Seed", strconv.FormatInt(mc.Seed, 10), "Master seed; rerunning with it reproduces the samples"},
		{"Mean", formatFixed(d.Mean), "Mean of all samples"},
		{"Standard Deviation", formatFixed(d.StdDev), "Population standard deviation"},
		{"Min", formatFixed(d.Min), "Smallest sample"},
		{"Max", formatFixed(d.Max), "Largest sample"},
	}
	for _, row := range summaryData {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write data row: %w", err)
		}
	}

	if err := writer.Write([]string{}); err != nil {
		return nil, err
	}
	if err := writer.Write([]string{"BinCenter", "Count"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, bin := range d.FrequencyTable {
		if err := writer.Write([]string{formatFixed(bin.Value), strconv.Itoa(bin.Count)}); err != nil {
			return nil, fmt.Errorf("failed to write frequency row: %w", err)
		}
	}

	if m.IncludeSamples {
		if err := writer.Write([]string{}); err != nil {
			return nil, err
		}
		if err := writer.Write([]string{"Trial", "Sample"}); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		for i, s := range mc.Samples {
			if err := writer.Write([]string{strconv.Itoa(i + 1), formatFixed(s)}); err != nil {
				return nil, fmt.Errorf("failed to write sample row: %w", err)
			}
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
