package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnualStockPercentages(t *testing.T) {
	tests := []struct {
		name       string
		investment int
		payout     int
		initial    float64
		want       []float64
	}{
		{"accumulation only", 3, 0, 60, []float64{60, 60, 60}},
		{"payout frozen at last accumulation year", 2, 3, 55, []float64{55, 55, 55, 55, 55}},
		{"payout only uses initial", 0, 2, 40, []float64{40, 40}},
		{"empty horizon", 0, 0, 40, []float64{}},
		{"negative years clamp", -1, 2, 30, []float64{30, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualStockPercentages(tt.investment, tt.payout, tt.initial)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnualStockPercentages_LengthMatchesHorizon(t *testing.T) {
	for investment := 0; investment <= 5; investment++ {
		for payout := 0; payout <= 5; payout++ {
			got := AnnualStockPercentages(investment, payout, 70)
			assert.Len(t, got, investment+payout)
			for i := investment; i < len(got); i++ {
				assert.Equal(t, 70.0, got[i])
			}
		}
	}
}
