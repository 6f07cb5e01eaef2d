package marketplace

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"lendhub/internal/models"
)

// Every predicate returns true for an empty or unset criterion.

// MatchesSearch does a case-insensitive substring match of query against the
// vendor name, the category label and the use-of-funds label.
func MatchesSearch(o models.Opportunity, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.VendorName), q) ||
		strings.Contains(strings.ToLower(o.Category.Label()), q) ||
		strings.Contains(strings.ToLower(o.UseOfFunds.Label()), q)
}

// InScoreRange checks the merchant score against an inclusive range.
func InScoreRange(o models.Opportunity, minScore, maxScore *int) bool {
	if minScore != nil && o.MerchantScore < *minScore {
		return false
	}
	if maxScore != nil && o.MerchantScore > *maxScore {
		return false
	}
	return true
}

// InAmountRange checks the requested amount against an inclusive range.
func InAmountRange(o models.Opportunity, minAmount, maxAmount *decimal.Decimal) bool {
	if minAmount != nil && o.RequestedAmount.LessThan(*minAmount) {
		return false
	}
	if maxAmount != nil && o.RequestedAmount.GreaterThan(*maxAmount) {
		return false
	}
	return true
}

func HasTerm(o models.Opportunity, terms []int) bool {
	return inSet(o.TermMonths, terms)
}

func HasUseOfFunds(o models.Opportunity, uses []models.UseOfFunds) bool {
	return inSet(o.UseOfFunds, uses)
}

func HasCategory(o models.Opportunity, categories []models.Category) bool {
	return inSet(o.Category, categories)
}

// MeetsTenure checks time on platform in months. Zero or less means any.
func MeetsTenure(o models.Opportunity, minMonths int) bool {
	return minMonths <= 0 || o.TimeOnPlatform >= minMonths
}

func HasStatus(o models.Opportunity, statuses []models.OpportunityStatus) bool {
	return inSet(o.Status, statuses)
}

func HasRiskLevel(o models.Opportunity, levels []models.RiskLevel) bool {
	return inSet(o.RiskLevel, levels)
}

func inSet[T comparable](v T, set []T) bool {
	return len(set) == 0 || slices.Contains(set, v)
}
