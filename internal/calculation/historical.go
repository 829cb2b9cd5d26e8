package calculation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ErrNoHistoricalData is returned when a returns file holds no usable rows.
var ErrNoHistoricalData = errors.New("no historical data")

// HistoricalDataPoint is one year of recorded returns in percent.
type HistoricalDataPoint struct {
	Year  int             `json:"year"`
	Stock decimal.Decimal `json:"stock"`
	Bond  decimal.Decimal `json:"bond"`
}

// HistoricalStatistics summarizes one column of a dataset.
type HistoricalStatistics struct {
	Mean   decimal.Decimal `json:"mean"`
	StdDev decimal.Decimal `json:"std_dev"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Count  int             `json:"count"`
}

// HistoricalDataSet is a year-ordered series of recorded stock and bond returns
// that can be replayed through a projection.
type HistoricalDataSet struct {
	Name         string                `json:"name"`
	DataPoints   []HistoricalDataPoint `json:"data_points"`
	MinYear      int                   `json:"min_year"`
	MaxYear      int                   `json:"max_year"`
	MissingYears []int                 `json:"missing_years,omitempty"`
	Stock        HistoricalStatistics  `json:"stock"`
	Bond         HistoricalStatistics  `json:"bond"`
}

// LoadHistoricalReturns reads a Year,Stock,Bond CSV file.
func LoadHistoricalReturns(filePath string) (*HistoricalDataSet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	ds, err := ReadHistoricalReturns(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	ds.Name = filePath
	return ds, nil
}

// ReadHistoricalReturns parses CSV rows of year, stock return and bond return,
// in percent. The first row is a header. Rows with an unparsable year or value
// are skipped; duplicate years keep the last row.
func ReadHistoricalReturns(r io.Reader) (*HistoricalDataSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("invalid CSV format: expected year, stock and bond columns")
	}

	byYear := make(map[int]HistoricalDataPoint)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		stock, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		bond, err := decimal.NewFromString(strings.TrimSpace(record[2]))
		if err != nil {
			continue
		}
		byYear[year] = HistoricalDataPoint{Year: year, Stock: stock, Bond: bond}
	}
	if len(byYear) == 0 {
		return nil, ErrNoHistoricalData
	}

	points := make([]HistoricalDataPoint, 0, len(byYear))
	for _, dp := range byYear {
		points = append(points, dp)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })

	ds := &HistoricalDataSet{
		DataPoints: points,
		MinYear:    points[0].Year,
		MaxYear:    points[len(points)-1].Year,
	}
	for year := ds.MinYear; year <= ds.MaxYear; year++ {
		if _, ok := byYear[year]; !ok {
			ds.MissingYears = append(ds.MissingYears, year)
		}
	}

	stocks := make([]decimal.Decimal, len(points))
	bonds := make([]decimal.Decimal, len(points))
	for i, dp := range points {
		stocks[i], bonds[i] = dp.Stock, dp.Bond
	}
	ds.Stock = calculateStatistics(stocks)
	ds.Bond = calculateStatistics(bonds)
	return ds, nil
}

// calculateStatistics returns the mean, population standard deviation and range of values.
func calculateStatistics(values []decimal.Decimal) HistoricalStatistics {
	if len(values) == 0 {
		return HistoricalStatistics{}
	}
	sum := decimal.Zero
	min, max := values[0], values[0]
	for _, v := range values {
		sum = sum.Add(v)
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
	}
	n := decimal.NewFromInt(int64(len(values)))
	mean := sum.Div(n)

	varianceSum := decimal.Zero
	for _, v := range values {
		diff := v.Sub(mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	variance, _ := varianceSum.Div(n).Float64()

	return HistoricalStatistics{
		Mean:   mean,
		StdDev: decimal.NewFromFloat(math.Sqrt(variance)),
		Min:    min,
		Max:    max,
		Count:  len(values),
	}
}

// Series returns up to years consecutive returns starting at fromYear, stopping
// at the first year without data. fromYear 0 starts at the first recorded year.
// Projection years past the end of the series use the expected rates.
func (ds *HistoricalDataSet) Series(fromYear, years int) (domain.ReturnSeries, error) {
	if fromYear == 0 {
		fromYear = ds.MinYear
	}
	if fromYear < ds.MinYear || fromYear > ds.MaxYear {
		return domain.ReturnSeries{}, fmt.Errorf("year %d outside recorded range %d-%d", fromYear, ds.MinYear, ds.MaxYear)
	}

	index := make(map[int]HistoricalDataPoint, len(ds.DataPoints))
	for _, dp := range ds.DataPoints {
		index[dp.Year] = dp
	}
	series := domain.ReturnSeries{Stock: make([]float64, 0, years), Bond: make([]float64, 0, years)}
	for year := fromYear; year < fromYear+years; year++ {
		dp, ok := index[year]
		if !ok {
			break
		}
		series.Stock = append(series.Stock, dp.Stock.InexactFloat64())
		series.Bond = append(series.Bond, dp.Bond.InexactFloat64())
	}
	return series, nil
}

// RunHistoricalProjection replays ds from fromYear through a projection.
func (ce *CalculationEngine) RunHistoricalProjection(params domain.SimulationParameters, ds *HistoricalDataSet, fromYear int) (*domain.Report, error) {
	if ds == nil {
		return nil, ErrNoHistoricalData
	}
	p, err := ce.prepare(params)
	if err != nil {
		return nil, err
	}
	series, err := ds.Series(fromYear, p.TotalYears())
	if err != nil {
		return nil, err
	}
	ce.Logger.Infof("replaying %d recorded years from %s (stocks mean %s%%, bonds mean %s%%)",
		series.Len(), ds.Name, ds.Stock.Mean.StringFixed(2), ds.Bond.Mean.StringFixed(2))
	return ce.RunProjection(p, &series)
}
