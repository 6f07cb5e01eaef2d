package marketplace

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
)

// ValidateOpportunity checks the structural invariants of a listing.
func ValidateOpportunity(o models.Opportunity) error {
	invalid := func(format string, args ...any) error {
		return apperrors.WithMessage(apperrors.ErrInvalidOpportunity, fmt.Sprintf(format, args...))
	}

	switch {
	case strings.TrimSpace(o.VendorID) == "":
		return invalid("vendor id is required")
	case strings.TrimSpace(o.VendorName) == "":
		return invalid("vendor name is required")
	case !o.RequestedAmount.IsPositive():
		return invalid("requested amount must be positive")
	case o.FundedAmount.IsNegative():
		return invalid("funded amount must not be negative")
	case o.FundedAmount.GreaterThan(o.RequestedAmount):
		return invalid("funded amount %s exceeds requested amount %s", o.FundedAmount, o.RequestedAmount)
	case !o.MinInvestment.IsPositive():
		return invalid("min investment must be positive")
	case o.MinInvestment.GreaterThan(o.MaxInvestment):
		return invalid("min investment %s exceeds max investment %s", o.MinInvestment, o.MaxInvestment)
	case o.MaxInvestment.GreaterThan(o.RequestedAmount):
		return invalid("max investment %s exceeds requested amount %s", o.MaxInvestment, o.RequestedAmount)
	case o.MerchantScore < models.MinMerchantScore || o.MerchantScore > models.MaxMerchantScore:
		return invalid("merchant score %d outside [%d, %d]", o.MerchantScore, models.MinMerchantScore, models.MaxMerchantScore)
	case o.TermMonths <= 0:
		return invalid("term must be positive")
	case o.APR < 0:
		return invalid("apr must not be negative")
	case o.DefaultProbability < 0 || o.DefaultProbability > 100:
		return invalid("default probability must be between 0 and 100")
	case o.TimeOnPlatform < 0:
		return invalid("time on platform must not be negative")
	case !o.ExpiryDate.After(o.ListedDate):
		return invalid("expiry date must be after listed date")
	case !o.Category.Valid():
		return invalid("unknown category %q", o.Category)
	case !o.UseOfFunds.Valid():
		return invalid("unknown use of funds %q", o.UseOfFunds)
	case !o.RiskLevel.Valid():
		return invalid("unknown risk level %q", o.RiskLevel)
	case !o.Status.Valid():
		return invalid("unknown status %q", o.Status)
	}
	return nil
}

// StatusFor derives the funding status from the funded amount. Expired
// opportunities stay expired.
func StatusFor(o models.Opportunity) models.OpportunityStatus {
	switch {
	case o.Status == models.StatusExpired:
		return models.StatusExpired
	case !o.FundedAmount.IsPositive():
		return models.StatusAvailable
	case o.FundedAmount.GreaterThanOrEqual(o.RequestedAmount):
		return models.StatusFullyFunded
	default:
		return models.StatusPartiallyFunded
	}
}

// CheckInvestmentAmount validates amount against o's per-investment bounds
// and funding gap. When the gap is smaller than the minimum investment, only
// an amount that exactly closes the gap is accepted.
func CheckInvestmentAmount(o models.Opportunity, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInvestmentAmount, "amount must be positive")
	}
	remaining := RemainingAmount(o)
	if amount.GreaterThan(remaining) {
		return apperrors.WithMessage(apperrors.ErrOverFunding,
			fmt.Sprintf("amount %s exceeds remaining %s", amount, remaining))
	}
	if amount.GreaterThan(o.MaxInvestment) {
		return apperrors.WithMessage(apperrors.ErrInvalidInvestmentAmount,
			fmt.Sprintf("amount %s exceeds max investment %s", amount, o.MaxInvestment))
	}
	if amount.LessThan(o.MinInvestment) && !amount.Equal(remaining) {
		return apperrors.WithMessage(apperrors.ErrInvalidInvestmentAmount,
			fmt.Sprintf("amount %s is below min investment %s", amount, o.MinInvestment))
	}
	return nil
}

// ApplyFunding returns o with amount added to its funded total and its status
// advanced. o itself is left untouched.
func ApplyFunding(o models.Opportunity, amount decimal.Decimal, now time.Time) (models.Opportunity, error) {
	if !o.Status.Open() || IsExpired(o, now) {
		return o, apperrors.ErrOpportunityClosed
	}
	if err := CheckInvestmentAmount(o, amount); err != nil {
		return o, err
	}
	next := o
	next.FundedAmount = o.FundedAmount.Add(amount)
	next.Status = StatusFor(next)
	return next, nil
}

// Expire moves o to expired once now is past its expiry date, regardless of
// funding level. The boolean reports whether the status changed.
func Expire(o models.Opportunity, now time.Time) (models.Opportunity, bool) {
	if o.Status == models.StatusExpired || !IsExpired(o, now) {
		return o, false
	}
	next := o
	next.Status = models.StatusExpired
	return next, true
}

// IsOpen reports whether o can still receive funding at now.
func IsOpen(o models.Opportunity, now time.Time) bool {
	return o.Status.Open() && !IsExpired(o, now)
}
