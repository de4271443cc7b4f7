/*
Package earning implements the revenue engine: the split calculator,
the per-sale ledger with its reconciliation pass, and time-bucketed
revenue aggregation.

# Split model

Every sale first yields the platform a 30% baseline cut of the listed
price. The remaining 70% is then divided between the author and the
company according to the buyer's membership: premium buyers earn the
author 70% of that base (fee percentage 30), everyone else 60% (fee
percentage 40).
*/
package earning

import "github.com/shopspring/decimal"

// Fee percentages by buyer membership.
const (
	FeePercentPremium  = 30
	FeePercentStandard = 40
)

var (
	discountFactor = decimal.NewFromFloat(0.7)
	premiumShare   = decimal.NewFromFloat(0.7)
	standardShare  = decimal.NewFromFloat(0.6)
)

// Breakdown is the result of splitting one sale.
type Breakdown struct {
	// PlatformFeePercentage is 30 for premium buyers, 40 otherwise.
	PlatformFeePercentage int     `json:"platformFeePercentage"`
	AuthorEarning         float64 `json:"authorEarning"`
	CompanyEarning        float64 `json:"companyEarning"`
	// PlatformFee is the 30% baseline cut taken off the listed price.
	PlatformFee float64 `json:"platformFee"`
}

/*
Calculate splits an asset sale between author and company.

The author share is computed from the unrounded discounted base and
rounded to 2 decimals half away from zero; the company share is the
unrounded remainder rounded the same way. The two rounded shares may
exceed the rounded base by at most one cent.

Pure and deterministic; the single source of truth for every revenue
split in the system.
*/
func Calculate(assetPrice float64, isPremiumBuyer bool) Breakdown {
	price := decimal.NewFromFloat(assetPrice)
	discounted := price.Mul(discountFactor)

	share := standardShare
	feePercent := FeePercentStandard
	if isPremiumBuyer {
		share = premiumShare
		feePercent = FeePercentPremium
	}

	author := discounted.Mul(share)
	company := discounted.Sub(author)

	return Breakdown{
		PlatformFeePercentage: feePercent,
		AuthorEarning:         author.Round(2).InexactFloat64(),
		CompanyEarning:        company.Round(2).InexactFloat64(),
		PlatformFee:           price.Sub(discounted).Round(2).InexactFloat64(),
	}
}
