package calculation

// AnnualStockPercentages returns the static stock allocation for every simulated
// year. Accumulation years hold the initial allocation; payout years are frozen at
// the last accumulation year's value, or the initial allocation when there are no
// accumulation years.
func AnnualStockPercentages(investmentYears, payoutYears int, initial float64) []float64 {
	if investmentYears < 0 {
		investmentYears = 0
	}
	if payoutYears < 0 {
		payoutYears = 0
	}
	total := investmentYears + payoutYears
	pcts := make([]float64, 0, total)
	for i := 0; i < total; i++ {
		if i < investmentYears {
			pcts = append(pcts, initial)
			continue
		}
		if investmentYears > 0 {
			pcts = append(pcts, pcts[investmentYears-1])
		} else {
			pcts = append(pcts, initial)
		}
	}
	return pcts
}
