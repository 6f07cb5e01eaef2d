package marketplace

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"lendhub/internal/models"
)

// ViewMode is the lender's chosen presentation of results.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// Valid reports whether v is a known view mode.
func (v ViewMode) Valid() bool { return v == ViewGrid || v == ViewList }

// FilterState is the full set of criteria a lender has applied. The zero value
// has every dimension empty and matches every opportunity.
type FilterState struct {
	Search            string                     `json:"search"`
	MinScore          *int                       `json:"min_score,omitempty"`
	MaxScore          *int                       `json:"max_score,omitempty"`
	MinAmount         *decimal.Decimal           `json:"min_amount,omitempty"`
	MaxAmount         *decimal.Decimal           `json:"max_amount,omitempty"`
	Terms             []int                      `json:"terms"`
	UseOfFunds        []models.UseOfFunds        `json:"use_of_funds"`
	Categories        []models.Category          `json:"categories"`
	MinTimeOnPlatform int                        `json:"min_time_on_platform"`
	Statuses          []models.OpportunityStatus `json:"statuses"`
	RiskLevels        []models.RiskLevel         `json:"risk_levels"`
	Sort              SortMode                   `json:"sort"`
	View              ViewMode                   `json:"view"`
}

// Clone returns a deep copy of s.
func (s FilterState) Clone() FilterState {
	out := s
	out.MinScore = clonePtr(s.MinScore)
	out.MaxScore = clonePtr(s.MaxScore)
	out.MinAmount = clonePtr(s.MinAmount)
	out.MaxAmount = clonePtr(s.MaxAmount)
	out.Terms = slices.Clone(s.Terms)
	out.UseOfFunds = slices.Clone(s.UseOfFunds)
	out.Categories = slices.Clone(s.Categories)
	out.Statuses = slices.Clone(s.Statuses)
	out.RiskLevels = slices.Clone(s.RiskLevels)
	return out
}

// ActiveStages returns the names of the pipeline stages s would apply.
func (s FilterState) ActiveStages() []string {
	var names []string
	for _, st := range stages {
		if st.active(s) {
			names = append(names, st.name)
		}
	}
	return names
}

// IsEmpty reports whether s filters nothing out.
func (s FilterState) IsEmpty() bool {
	return len(s.ActiveStages()) == 0
}

type stage struct {
	name   string
	active func(FilterState) bool
	keep   func(models.Opportunity, FilterState) bool
}

// stages run in this order. A stage whose criterion is empty is skipped.
var stages = []stage{
	{
		name:   "search",
		active: func(s FilterState) bool { return strings.TrimSpace(s.Search) != "" },
		keep:   func(o models.Opportunity, s FilterState) bool { return MatchesSearch(o, s.Search) },
	},
	{
		name:   "score",
		active: func(s FilterState) bool { return s.MinScore != nil || s.MaxScore != nil },
		keep:   func(o models.Opportunity, s FilterState) bool { return InScoreRange(o, s.MinScore, s.MaxScore) },
	},
	{
		name:   "amount",
		active: func(s FilterState) bool { return s.MinAmount != nil || s.MaxAmount != nil },
		keep:   func(o models.Opportunity, s FilterState) bool { return InAmountRange(o, s.MinAmount, s.MaxAmount) },
	},
	{
		name:   "term",
		active: func(s FilterState) bool { return len(s.Terms) > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return HasTerm(o, s.Terms) },
	},
	{
		name:   "use_of_funds",
		active: func(s FilterState) bool { return len(s.UseOfFunds) > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return HasUseOfFunds(o, s.UseOfFunds) },
	},
	{
		name:   "category",
		active: func(s FilterState) bool { return len(s.Categories) > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return HasCategory(o, s.Categories) },
	},
	{
		name:   "tenure",
		active: func(s FilterState) bool { return s.MinTimeOnPlatform > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return MeetsTenure(o, s.MinTimeOnPlatform) },
	},
	{
		name:   "status",
		active: func(s FilterState) bool { return len(s.Statuses) > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return HasStatus(o, s.Statuses) },
	},
	{
		name:   "risk",
		active: func(s FilterState) bool { return len(s.RiskLevels) > 0 },
		keep:   func(o models.Opportunity, s FilterState) bool { return HasRiskLevel(o, s.RiskLevels) },
	},
}

// Filter returns the opportunities that pass every active stage, in input
// order. The input slice is never modified and the result never aliases it.
func Filter(opps []models.Opportunity, state FilterState) []models.Opportunity {
	out := slices.Clone(opps)
	if out == nil {
		out = []models.Opportunity{}
	}
	for _, st := range stages {
		if !st.active(state) {
			continue
		}
		kept := out[:0]
		for _, o := range out {
			if st.keep(o, state) {
				kept = append(kept, o)
			}
		}
		out = kept
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
