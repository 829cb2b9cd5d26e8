package calculation

import (
	"math"
	"math/rand"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ReturnSampler draws normally distributed annual returns. It is not safe for
// concurrent use; give every goroutine its own sampler.
type ReturnSampler struct {
	rng *rand.Rand
}

// NewReturnSampler creates a sampler seeded with seed.
func NewReturnSampler(seed int64) *ReturnSampler {
	return &ReturnSampler{rng: rand.New(rand.NewSource(seed))}
}

// NewReturnSamplerFromSeedFunc creates a sampler seeded from the package seed provider.
func NewReturnSamplerFromSeedFunc() *ReturnSampler {
	return NewReturnSampler(seedFunc())
}

// uniform returns a value in (0, 1]; rand.Float64 is [0, 1).
func (s *ReturnSampler) uniform() float64 {
	return 1 - s.rng.Float64()
}

// Sample draws one value from N(mean, stdDev²) using the Box-Muller transform.
func (s *ReturnSampler) Sample(mean, stdDev float64) float64 {
	u1 := s.uniform()
	u2 := s.uniform()
	return mean + boxMullerTransform(u1, u2)*stdDev
}

// boxMullerTransform maps two uniforms in (0, 1] to a standard normal deviate.
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// SampleSeries draws one stock and one bond return per year, in percent.
func (s *ReturnSampler) SampleSeries(params domain.SimulationParameters, years int) domain.ReturnSeries {
	series := domain.ReturnSeries{
		Stock: make([]float64, 0, years),
		Bond:  make([]float64, 0, years),
	}
	for i := 0; i < years; i++ {
		series.Stock = append(series.Stock, s.Sample(params.StockReturnRate, params.StockStdDev))
		series.Bond = append(series.Bond, s.Sample(params.BondReturnRate, params.BondStdDev))
	}
	return series
}

// SampleSeriesRounded is SampleSeries with every return rounded to two decimals,
// the resolution the single simulated path is presented with.
func (s *ReturnSampler) SampleSeriesRounded(params domain.SimulationParameters, years int) domain.ReturnSeries {
	series := s.SampleSeries(params, years)
	for i := range series.Stock {
		series.Stock[i] = roundTo(series.Stock[i], 2)
		series.Bond[i] = roundTo(series.Bond[i], 2)
	}
	return series
}

func roundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return domain.RoundHalfUp(x*scale) / scale
}
