package calculation

import "github.com/Edbro78/investeringsprognose/internal/domain"

// accumulatedIndexBase is the index value of the start row.
const accumulatedIndexBase = 100.0

// AccumulatedReturn compounds an index from 100 with the allocation-weighted
// sampled return of every year, using the stock allocation recorded in proj. It
// returns nil when returns is empty.
func AccumulatedReturn(proj domain.Projection, returns domain.ReturnSeries) []domain.AccumulatedPoint {
	if returns.Len() == 0 || len(proj.Records) == 0 {
		return nil
	}
	points := make([]domain.AccumulatedPoint, 0, len(proj.Records))
	points = append(points, domain.AccumulatedPoint{Label: proj.Records[0].Label, Index: accumulatedIndexBase})

	index := accumulatedIndexBase
	for i := 1; i < len(proj.Records); i++ {
		if i-1 < returns.Len() {
			stockShare := float64(proj.Records[i].StockPct) / 100
			weighted := stockShare*returns.Stock[i-1]/100 + (1-stockShare)*returns.Bond[i-1]/100
			index *= 1 + weighted
		}
		points = append(points, domain.AccumulatedPoint{
			Label:   proj.Records[i].Label,
			Index:   index,
			Percent: (index/accumulatedIndexBase - 1) * 100,
		})
	}
	return points
}
