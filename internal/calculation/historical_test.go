package calculation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

const historicalCSV = `year,stock,bond
2003,20,4
2001,-10,6
2002,10,5
2005,30,2
bad,1,1
2006,x,1
`

func TestReadHistoricalReturns(t *testing.T) {
	ds, err := ReadHistoricalReturns(strings.NewReader(historicalCSV))
	require.NoError(t, err)

	assert.Equal(t, 2001, ds.MinYear)
	assert.Equal(t, 2005, ds.MaxYear)
	assert.Equal(t, []int{2004}, ds.MissingYears)
	require.Len(t, ds.DataPoints, 4)
	assert.Equal(t, 2001, ds.DataPoints[0].Year, "rows are sorted by year")

	assert.Equal(t, 4, ds.Stock.Count)
	assert.True(t, ds.Stock.Mean.Equal(decimal.NewFromFloat(12.5)), "mean %s", ds.Stock.Mean)
	assert.True(t, ds.Stock.Min.Equal(decimal.NewFromInt(-10)))
	assert.True(t, ds.Bond.Max.Equal(decimal.NewFromInt(6)))
	assert.InDelta(t, 1.4790, ds.Bond.StdDev.InexactFloat64(), 1e-3)
}

func TestReadHistoricalReturns_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too few columns", "year,stock\n2001,5\n"},
		{"no usable rows", "year,stock,bond\nx,y,z\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHistoricalReturns(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}

	_, err := ReadHistoricalReturns(strings.NewReader("year,stock,bond\n"))
	assert.ErrorIs(t, err, ErrNoHistoricalData)
}

func TestHistoricalDataSet_Series(t *testing.T) {
	ds, err := ReadHistoricalReturns(strings.NewReader(historicalCSV))
	require.NoError(t, err)

	series, err := ds.Series(0, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{-10, 10, 20}, series.Stock, "stops at the first missing year")
	assert.Equal(t, []float64{6, 5, 4}, series.Bond)

	series, err = ds.Series(2002, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, series.Stock)

	_, err = ds.Series(1990, 5)
	assert.Error(t, err)
}

func TestLoadHistoricalReturns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.csv")
	require.NoError(t, os.WriteFile(path, []byte(historicalCSV), 0o600))

	ds, err := LoadHistoricalReturns(path)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Name)

	_, err = LoadHistoricalReturns(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCalculationEngine_RunHistoricalProjection(t *testing.T) {
	ds, err := ReadHistoricalReturns(strings.NewReader("year,stock,bond\n2001,10,10\n2002,10,10\n"))
	require.NoError(t, err)

	p := domain.DefaultParameters()
	p.Portfolio1 = 1_000_000
	p.InvestmentYears = 2
	p.TaxCalculationEnabled = false

	ce := NewCalculationEngine()
	report, err := ce.RunHistoricalProjection(p, ds, 2001)
	require.NoError(t, err)
	assert.Equal(t, int64(1_210_000), report.Projection.Final().EndValue)
	require.NotNil(t, report.Returns)
	assert.Equal(t, 2, report.Returns.Len())

	_, err = ce.RunHistoricalProjection(p, nil, 0)
	assert.ErrorIs(t, err, ErrNoHistoricalData)
}

func TestCalculationEngine_RunHistoricalProjection_InvalidYears(t *testing.T) {
	ds, err := ReadHistoricalReturns(strings.NewReader("year,stock,bond\n2001,10,10\n"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate   func(p *domain.SimulationParameters)
	}{
		{"negative investment years", func(p *domain.SimulationParameters) { p.InvestmentYears = -5 }},
		{"negative payout years", func(p *domain.SimulationParameters) { p.PayoutYears = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.DefaultParameters()
			tt.mutate(&p)

			var report *domain.Report
			assert.NotPanics(t, func() {
				report, err = NewCalculationEngine().RunHistoricalProjection(p, ds, 2001)
			})
			assert.ErrorIs(t, err, ErrInvalidParameters)
			assert.Nil(t, report)
		})
	}
}
