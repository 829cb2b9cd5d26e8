package calculation

import (
	"math"
	"sort"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

const (
	curvePoints        = 200
	curvePaddingShare  = 0.1
	curveScale         = 50.0
	frequencyTableBins = 10
)

// Summarize computes the statistics of a Monte Carlo sample set: mean, population
// standard deviation, a Gaussian curve and histogram over curvePoints buckets, and a
// frequency table over mean ± 2σ. samples need not be sorted.
func Summarize(samples []float64) domain.Distribution {
	dist := domain.Distribution{Count: len(samples), FrequencyTable: []domain.FrequencyBin{}}
	if len(samples) == 0 {
		return dist
	}

	n := float64(len(samples))
	var sum float64
	dist.Min, dist.Max = samples[0], samples[0]
	for _, v := range samples {
		sum += v
		dist.Min = math.Min(dist.Min, v)
		dist.Max = math.Max(dist.Max, v)
	}
	mean := sum / n
	var sq float64
	for _, v := range samples {
		sq += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sq / n)
	dist.Mean, dist.StdDev = mean, stdDev

	requiredMin := math.Min(mean-2*stdDev, dist.Min)
	requiredMax := math.Max(mean+2*stdDev, dist.Max)
	padding := (requiredMax - requiredMin) * curvePaddingShare
	span := requiredMax - requiredMin + 2*padding
	dist.StartX = requiredMin - padding
	dist.Step = span / curvePoints

	dist.Curve = make([]float64, curvePoints)
	if stdDev > 0 {
		for i := range dist.Curve {
			x := dist.StartX + float64(i)*dist.Step
			dist.Curve[i] = normalDensity(x, mean, stdDev) * n * dist.Step * curveScale
			dist.MaxCurveValue = math.Max(dist.MaxCurveValue, dist.Curve[i])
		}
	}

	dist.Histogram = make([]int, curvePoints)
	if span > 0 {
		for _, v := range samples {
			idx := int(math.Floor((v - dist.StartX) / span * curvePoints))
			if idx > curvePoints-1 {
				idx = curvePoints - 1
			}
			if idx >= 0 {
				dist.Histogram[idx]++
			}
		}
		dist.MarkerIndexes = map[string]int{}
		for name, x := range map[string]float64{
			"mean":         mean,
			"mean_plus_1":  mean + stdDev,
			"mean_minus_1": mean - stdDev,
			"mean_plus_2":  mean + 2*stdDev,
			"mean_minus_2": mean - 2*stdDev,
		} {
			idx := int(domain.RoundHalfUp((x - dist.StartX) / span * curvePoints))
			if idx >= 0 && idx < curvePoints {
				dist.MarkerIndexes[name] = idx
			}
		}
	}

	dist.FrequencyTable = FrequencyTable(samples, mean, stdDev)
	return dist
}

// FrequencyTable counts samples in frequencyTableBins equal bins over
// [mean-2σ, mean+2σ]. The last bin includes its upper edge and samples outside the
// span are not counted. Rows are sorted by bin center, highest first. Degenerate
// statistics yield an empty table.
func FrequencyTable(samples []float64, mean, stdDev float64) []domain.FrequencyBin {
	if math.IsNaN(mean) || math.IsNaN(stdDev) || math.IsInf(mean, 0) || math.IsInf(stdDev, 0) || stdDev <= 0 {
		return []domain.FrequencyBin{}
	}
	lower := mean - 2*stdDev
	width := 4 * stdDev / frequencyTableBins

	bins := make([]domain.FrequencyBin, frequencyTableBins)
	for i := range bins {
		bins[i].Value = lower + float64(i)*width + width/2
	}
	for _, v := range samples {
		for i := range bins {
			start := lower + float64(i)*width
			end := lower + float64(i+1)*width
			last := i == len(bins)-1
			if v >= start && (v < end || (last && v <= end)) {
				bins[i].Count++
				break
			}
		}
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Value > bins[j].Value })
	return bins
}

func normalDensity(x, mean, stdDev float64) float64 {
	z := (x - mean) / stdDev
	return math.Exp(-0.5*z*z) / (stdDev * math.Sqrt(2*math.Pi))
}
