package marketplace

import (
	"cmp"
	"slices"
	"strings"

	"lendhub/internal/models"
)

// SortMode selects the ordering of a result set.
type SortMode string

const (
	SortScoreDesc  SortMode = "score-desc"
	SortScoreAsc   SortMode = "score-asc"
	SortAmountDesc SortMode = "amount-desc"
	SortAmountAsc  SortMode = "amount-asc"
	SortAPRDesc    SortMode = "apr-desc"
	SortAPRAsc     SortMode = "apr-asc"
	SortTermAsc    SortMode = "term-asc"
	SortExpiryAsc  SortMode = "expiry-asc"
	SortNewest     SortMode = "newest"
	SortPopular    SortMode = "popular"
)

// DefaultSortMode is used for empty and unknown modes.
const DefaultSortMode = SortScoreDesc

type comparator func(a, b models.Opportunity) int

var comparators = map[SortMode]comparator{
	SortScoreDesc:  func(a, b models.Opportunity) int { return cmp.Compare(b.MerchantScore, a.MerchantScore) },
	SortScoreAsc:   func(a, b models.Opportunity) int { return cmp.Compare(a.MerchantScore, b.MerchantScore) },
	SortAmountDesc: func(a, b models.Opportunity) int { return b.RequestedAmount.Cmp(a.RequestedAmount) },
	SortAmountAsc:  func(a, b models.Opportunity) int { return a.RequestedAmount.Cmp(b.RequestedAmount) },
	SortAPRDesc:    func(a, b models.Opportunity) int { return cmp.Compare(b.APR, a.APR) },
	SortAPRAsc:     func(a, b models.Opportunity) int { return cmp.Compare(a.APR, b.APR) },
	SortTermAsc:    func(a, b models.Opportunity) int { return cmp.Compare(a.TermMonths, b.TermMonths) },
	SortExpiryAsc:  func(a, b models.Opportunity) int { return a.ExpiryDate.Compare(b.ExpiryDate) },
	SortNewest:     func(a, b models.Opportunity) int { return b.ListedDate.Compare(a.ListedDate) },
	SortPopular:    func(a, b models.Opportunity) int { return cmp.Compare(b.InterestedInvestors, a.InterestedInvestors) },
}

// SortModes lists every supported mode.
func SortModes() []SortMode {
	return []SortMode{
		SortScoreDesc, SortScoreAsc, SortAmountDesc, SortAmountAsc, SortAPRDesc,
		SortAPRAsc, SortTermAsc, SortExpiryAsc, SortNewest, SortPopular,
	}
}

// ParseSortMode reports whether s names a supported mode. The empty string
// parses as DefaultSortMode.
func ParseSortMode(s string) (SortMode, bool) {
	if s == "" {
		return DefaultSortMode, true
	}
	mode := SortMode(s)
	_, ok := comparators[mode]
	return mode, ok
}

// Sort returns a new slice ordered by mode. Ties are broken by ascending ID,
// so the order is total and repeatable.
func Sort(opps []models.Opportunity, mode SortMode) []models.Opportunity {
	compare, ok := comparators[mode]
	if !ok {
		compare = comparators[DefaultSortMode]
	}
	out := slices.Clone(opps)
	slices.SortFunc(out, func(a, b models.Opportunity) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Apply runs the filter pipeline followed by the sort engine.
func Apply(opps []models.Opportunity, state FilterState) []models.Opportunity {
	return Sort(Filter(opps, state), state.Sort)
}
