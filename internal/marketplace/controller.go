package marketplace

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"lendhub/internal/models"
)

// QueryController owns one lender's interactive filter state over a catalog
// snapshot. Every change recomputes the filtered and sorted result under the
// controller's lock, so readers never observe a half-applied state.
type QueryController struct {
	mu      sync.Mutex
	catalog []models.Opportunity
	state   FilterState
	results []models.Opportunity
}

// NewQueryController returns a controller over catalog with an empty filter
// state, the default sort mode and the grid view.
func NewQueryController(catalog []models.Opportunity) *QueryController {
	c := &QueryController{
		catalog: slices.Clone(catalog),
		state:   FilterState{Sort: DefaultSortMode, View: ViewGrid},
	}
	c.recompute()
	return c
}

// State returns a copy of the current filter state.
func (c *QueryController) State() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Results returns a copy of the current filtered and sorted opportunities.
func (c *QueryController) Results() []models.Opportunity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// Snapshot returns the state and results as seen by a single recomputation.
func (c *QueryController) Snapshot() (FilterState, []models.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone(), slices.Clone(c.results)
}

// SetCatalog swaps in a fresh catalog snapshot and recomputes.
func (c *QueryController) SetCatalog(catalog []models.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = slices.Clone(catalog)
	c.recompute()
}

func (c *QueryController) SetSearch(query string) {
	c.update(func(s *FilterState) { s.Search = query })
}

func (c *QueryController) SetScoreRange(minScore, maxScore *int) {
	c.update(func(s *FilterState) {
		s.MinScore = clonePtr(minScore)
		s.MaxScore = clonePtr(maxScore)
	})
}

func (c *QueryController) SetAmountRange(minAmount, maxAmount *decimal.Decimal) {
	c.update(func(s *FilterState) {
		s.MinAmount = clonePtr(minAmount)
		s.MaxAmount = clonePtr(maxAmount)
	})
}

func (c *QueryController) SetMinTimeOnPlatform(months int) {
	c.update(func(s *FilterState) { s.MinTimeOnPlatform = months })
}

func (c *QueryController) ToggleTerm(term int) {
	c.update(func(s *FilterState) { s.Terms = toggle(s.Terms, term) })
}

func (c *QueryController) ToggleUseOfFunds(u models.UseOfFunds) {
	c.update(func(s *FilterState) { s.UseOfFunds = toggle(s.UseOfFunds, u) })
}

func (c *QueryController) ToggleCategory(cat models.Category) {
	c.update(func(s *FilterState) { s.Categories = toggle(s.Categories, cat) })
}

func (c *QueryController) ToggleStatus(status models.OpportunityStatus) {
	c.update(func(s *FilterState) { s.Statuses = toggle(s.Statuses, status) })
}

func (c *QueryController) ToggleRiskLevel(level models.RiskLevel) {
	c.update(func(s *FilterState) { s.RiskLevels = toggle(s.RiskLevels, level) })
}

// SetSort changes the sort mode. Unknown modes fall back to DefaultSortMode.
func (c *QueryController) SetSort(mode SortMode) {
	if _, ok := comparators[mode]; !ok {
		mode = DefaultSortMode
	}
	c.update(func(s *FilterState) { s.Sort = mode })
}

// SetView changes the presentation mode. Results are unaffected.
func (c *QueryController) SetView(view ViewMode) {
	if !view.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = view
}

// Replace installs state wholesale.
func (c *QueryController) Replace(state FilterState) {
	c.update(func(s *FilterState) {
		sortMode, view := s.Sort, s.View
		*s = state.Clone()
		if s.Sort == "" {
			s.Sort = sortMode
		}
		if s.View == "" {
			s.View = view
		}
	})
}

// Clear resets every filter dimension, keeping the sort and view modes.
func (c *QueryController) Clear() {
	c.update(func(s *FilterState) {
		*s = FilterState{Sort: s.Sort, View: s.View}
	})
}

func (c *QueryController) update(fn func(*FilterState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.recompute()
}

// recompute must be called with mu held.
func (c *QueryController) recompute() {
	c.results = Apply(c.catalog, c.state)
}

// toggle removes v from set if present, otherwise appends it. The input
// slice is never modified.
func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
