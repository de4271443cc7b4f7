package earning_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/clarifyx/clarifyx/internal/core/earning"
)

func TestCalculate_GoldenValues(t *testing.T) {
	tests := []struct {
		name           string
		price          float64
		premium        bool
		wantFeePercent int
		wantAuthor     float64
		wantCompany    float64
		wantFee        float64
	}{
		{
			name:           "hundred_dollars_standard_buyer",
			price:          100,
			premium:        false,
			wantFeePercent: 40,
			wantAuthor:     42.00,
			wantCompany:    28.00,
			wantFee:        30.00,
		},
		{
			name:           "hundred_dollars_premium_buyer",
			price:          100,
			premium:        true,
			wantFeePercent: 30,
			wantAuthor:     49.00,
			wantCompany:    21.00,
			wantFee:        30.00,
		},
		{
			// discounted = 34.993; author share 24.4951 rounds up,
			// company remainder 10.4979 rounds up. The cent of drift
			// against the rounded base is accepted by design.
			name:           "fractional_cents_premium_buyer",
			price:          49.99,
			premium:        true,
			wantFeePercent: 30,
			wantAuthor:     24.50,
			wantCompany:    10.50,
			wantFee:        15.00,
		},
		{
			name:           "free_asset",
			price:          0,
			premium:        false,
			wantFeePercent: 40,
			wantAuthor:     0,
			wantCompany:    0,
			wantFee:        0,
		},
		{
			name:           "single_cent",
			price:          0.01,
			premium:        false,
			wantFeePercent: 40,
			wantAuthor:     0, // 0.0042 rounds down
			wantCompany:    0, // 0.0028 rounds down
			wantFee:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := earning.Calculate(tt.price, tt.premium)

			assert.Equal(t, tt.wantFeePercent, got.PlatformFeePercentage)
			assert.InDelta(t, tt.wantAuthor, got.AuthorEarning, 0.001)
			assert.InDelta(t, tt.wantCompany, got.CompanyEarning, 0.001)
			assert.InDelta(t, tt.wantFee, got.PlatformFee, 0.001)
		})
	}
}

// The two rounded shares must never drift more than one cent from the
// rounded discounted base, for any price.
func TestCalculate_SharesSumWithinOneCent(t *testing.T) {
	prices := []float64{0, 0.01, 0.99, 1, 9.99, 19.95, 49.99, 100, 123.45, 999.99, 12345.67, 1e6}

	for _, price := range prices {
		for _, premium := range []bool{true, false} {
			got := earning.Calculate(price, premium)

			discounted := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(0.7)).Round(2)
			sum := decimal.NewFromFloat(got.AuthorEarning).Add(decimal.NewFromFloat(got.CompanyEarning))
			drift := sum.Sub(discounted).Abs()

			assert.True(t, drift.LessThanOrEqual(decimal.NewFromFloat(0.01)),
				"price %.2f premium %v: author %.2f + company %.2f drifts %.4f from %.2f",
				price, premium, got.AuthorEarning, got.CompanyEarning, drift.InexactFloat64(), discounted.InexactFloat64())
		}
	}
}
