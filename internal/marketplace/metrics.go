// Package marketplace is the opportunity marketplace engine: metric
// calculators, filter predicates, the filter pipeline, the sort engine, the
// auto-invest rule matcher and the stats aggregator. Every function here is
// pure and synchronous; anything time-dependent takes now as an argument.
package marketplace

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
)

// ExpiringSoonDays is the window used by IsExpiringSoon.
const ExpiringSoonDays = 3

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// FundingPercentage returns funded / requested * 100.
func FundingPercentage(o models.Opportunity) (float64, error) {
	if !o.RequestedAmount.IsPositive() {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidOpportunity, "requested amount must be positive")
	}
	pct, _ := o.FundedAmount.Div(o.RequestedAmount).Mul(hundred).Float64()
	return pct, nil
}

// RemainingAmount returns the funding gap, never negative.
func RemainingAmount(o models.Opportunity) decimal.Decimal {
	remaining := o.RequestedAmount.Sub(o.FundedAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ExpectedReturn is the simple-interest payoff of investing amount in o over
// its full term: amount * (1 + apr/100 * term/12), rounded to cents.
func ExpectedReturn(amount decimal.Decimal, o models.Opportunity) decimal.Decimal {
	rate := decimal.NewFromFloat(o.APR).Div(hundred).
		Mul(decimal.NewFromInt(int64(o.TermMonths))).
		Div(twelve)
	return amount.Mul(decimal.NewFromInt(1).Add(rate)).Round(2)
}

// DaysUntilExpiry returns the whole days left before o expires, rounded up.
// Negative once the expiry date has passed.
func DaysUntilExpiry(o models.Opportunity, now time.Time) int {
	return int(math.Ceil(o.ExpiryDate.Sub(now).Hours() / 24))
}

// IsExpiringWithin reports whether o has not yet expired and expires within days.
func IsExpiringWithin(o models.Opportunity, now time.Time, days int) bool {
	if !o.ExpiryDate.After(now) {
		return false
	}
	return DaysUntilExpiry(o, now) <= days
}

// IsExpiringSoon reports whether o expires within ExpiringSoonDays.
func IsExpiringSoon(o models.Opportunity, now time.Time) bool {
	return IsExpiringWithin(o, now, ExpiringSoonDays)
}

// IsExpired reports whether the expiry date has passed.
func IsExpired(o models.Opportunity, now time.Time) bool {
	return now.After(o.ExpiryDate)
}

// IsListedOn reports whether o was listed on the same UTC calendar day as now.
func IsListedOn(o models.Opportunity, now time.Time) bool {
	y1, m1, d1 := o.ListedDate.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Metrics bundles the derived values shown next to an opportunity.
type Metrics struct {
	FundingPercentage float64         `json:"funding_percentage"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	Grade             string          `json:"grade"`
	DaysUntilExpiry   int             `json:"days_until_expiry"`
	ExpiringSoon      bool            `json:"expiring_soon"`
	// ExpectedReturnOnMin is the payoff of committing the minimum investment.
	ExpectedReturnOnMin decimal.Decimal `json:"expected_return_on_min"`
}

// Derive computes Metrics for o. An opportunity with a non-positive requested
// amount reports zero funding percentage.
func Derive(o models.Opportunity, now time.Time, grades GradeTable) Metrics {
	pct, err := FundingPercentage(o)
	if err != nil {
		pct = 0
	}
	return Metrics{
		FundingPercentage:   pct,
		RemainingAmount:     RemainingAmount(o),
		Grade:               grades.Grade(o.MerchantScore),
		DaysUntilExpiry:     DaysUntilExpiry(o, now),
		ExpiringSoon:        IsExpiringSoon(o, now),
		ExpectedReturnOnMin: ExpectedReturn(o.MinInvestment, o),
	}
}
