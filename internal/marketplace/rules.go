package marketplace

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
)

// Check names one criterion of an auto-invest rule.
type Check string

const (
	CheckMinScore   Check = "min_merchant_score"
	CheckMaxScore   Check = "max_merchant_score"
	CheckMinAmount  Check = "min_loan_amount"
	CheckMaxAmount  Check = "max_loan_amount"
	CheckTerm       Check = "preferred_terms"
	CheckUseOfFunds Check = "preferred_use_of_funds"
	CheckCategory   Check = "preferred_categories"
	CheckTenure     Check = "min_time_on_platform"
	CheckRisk       Check = "max_risk_level"
)

type ruleCheck struct {
	check Check
	pass  func(o models.Opportunity, r models.AutoInvestRule) bool
}

// ruleChecks are evaluated in order and stop at the first failure.
var ruleChecks = []ruleCheck{
	{CheckMinScore, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return o.MerchantScore >= r.MinMerchantScore
	}},
	{CheckMaxScore, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return r.MaxMerchantScore == nil || o.MerchantScore <= *r.MaxMerchantScore
	}},
	{CheckMinAmount, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return !r.MinLoanAmount.Valid || o.RequestedAmount.GreaterThanOrEqual(r.MinLoanAmount.Decimal)
	}},
	{CheckMaxAmount, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return !r.MaxLoanAmount.Valid || o.RequestedAmount.LessThanOrEqual(r.MaxLoanAmount.Decimal)
	}},
	{CheckTerm, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return inSet(o.TermMonths, r.PreferredTerms)
	}},
	{CheckUseOfFunds, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return inSet(o.UseOfFunds, r.PreferredUseOfFunds)
	}},
	{CheckCategory, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return inSet(o.Category, r.PreferredCategories)
	}},
	{CheckTenure, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return r.MinTimeOnPlatform == nil || o.TimeOnPlatform >= *r.MinTimeOnPlatform
	}},
	{CheckRisk, func(o models.Opportunity, r models.AutoInvestRule) bool {
		return r.MaxRiskLevel == "" || o.RiskLevel.Rank() <= r.MaxRiskLevel.Rank()
	}},
}

// Mismatch returns the first check o fails against r, or false if o
// satisfies every criterion.
func Mismatch(o models.Opportunity, r models.AutoInvestRule) (Check, bool) {
	for _, c := range ruleChecks {
		if !c.pass(o, r) {
			return c.check, true
		}
	}
	return "", false
}

// Matches reports whether o satisfies every criterion of r. Whether the rule
// is active, and the lender's capital and caps, are the caller's concern.
func Matches(o models.Opportunity, r models.AutoInvestRule) bool {
	_, failed := Mismatch(o, r)
	return !failed
}

// MatchingOpportunities returns the subset of opps that r matches, in input order.
func MatchingOpportunities(opps []models.Opportunity, r models.AutoInvestRule) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if Matches(o, r) {
			out = append(out, o)
		}
	}
	return out
}

// RecordInvestment returns r with its running totals advanced by one
// commitment of amount at the given time. r itself is left untouched.
func RecordInvestment(r models.AutoInvestRule, amount decimal.Decimal, at time.Time) models.AutoInvestRule {
	next := r
	next.TotalInvested = r.TotalInvested.Add(amount)
	next.InvestmentCount = r.InvestmentCount + 1
	triggered := at
	next.LastTriggeredAt = &triggered

	next.MaxMerchantScore = clonePtr(r.MaxMerchantScore)
	next.MinTimeOnPlatform = clonePtr(r.MinTimeOnPlatform)
	next.MaxDailyInvestments = clonePtr(r.MaxDailyInvestments)
	next.MaxMonthlyInvestments = clonePtr(r.MaxMonthlyInvestments)
	next.PreferredTerms = slices.Clone(r.PreferredTerms)
	next.PreferredUseOfFunds = slices.Clone(r.PreferredUseOfFunds)
	next.PreferredCategories = slices.Clone(r.PreferredCategories)
	return next
}

// ValidateRule rejects rules whose criteria are contradictory or out of range.
func ValidateRule(r models.AutoInvestRule) error {
	invalid := func(format string, args ...any) error {
		return apperrors.WithMessage(apperrors.ErrInvalidRule, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	if !r.MaxInvestmentPerVendor.IsPositive() {
		return invalid("max investment per vendor must be positive")
	}
	if r.MinMerchantScore < 0 || r.MinMerchantScore > models.MaxMerchantScore {
		return invalid("min merchant score must be between 0 and %d", models.MaxMerchantScore)
	}
	if r.MaxMerchantScore != nil {
		if *r.MaxMerchantScore > models.MaxMerchantScore {
			return invalid("max merchant score must not exceed %d", models.MaxMerchantScore)
		}
		if r.MinMerchantScore > *r.MaxMerchantScore {
			return invalid("min merchant score %d exceeds max merchant score %d", r.MinMerchantScore, *r.MaxMerchantScore)
		}
	}
	if r.MinLoanAmount.Valid && !r.MinLoanAmount.Decimal.IsPositive() {
		return invalid("min loan amount must be positive")
	}
	if r.MaxLoanAmount.Valid && !r.MaxLoanAmount.Decimal.IsPositive() {
		return invalid("max loan amount must be positive")
	}
	if r.MinLoanAmount.Valid && r.MaxLoanAmount.Valid && r.MinLoanAmount.Decimal.GreaterThan(r.MaxLoanAmount.Decimal) {
		return invalid("min loan amount %s exceeds max loan amount %s", r.MinLoanAmount.Decimal, r.MaxLoanAmount.Decimal)
	}
	for _, term := range r.PreferredTerms {
		if term <= 0 {
			return invalid("preferred terms must be positive, got %d", term)
		}
	}
	for _, u := range r.PreferredUseOfFunds {
		if !u.Valid() {
			return invalid("unknown use of funds %q", u)
		}
	}
	for _, c := range r.PreferredCategories {
		if !c.Valid() {
			return invalid("unknown category %q", c)
		}
	}
	if r.MinTimeOnPlatform != nil && *r.MinTimeOnPlatform < 0 {
		return invalid("min time on platform must not be negative")
	}
	if r.MaxRiskLevel != "" && !r.MaxRiskLevel.Valid() {
		return invalid("unknown risk level %q", r.MaxRiskLevel)
	}
	if r.MinAvailableCapital.IsNegative() {
		return invalid("min available capital must not be negative")
	}
	if r.MaxDailyInvestments != nil && *r.MaxDailyInvestments <= 0 {
		return invalid("max daily investments must be positive")
	}
	if r.MaxMonthlyInvestments != nil && *r.MaxMonthlyInvestments <= 0 {
		return invalid("max monthly investments must be positive")
	}
	return nil
}
