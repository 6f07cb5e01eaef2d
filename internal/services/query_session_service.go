package services

import (
	"strconv"
	"sync"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// querySessionService keeps one query controller per lender in memory.
// Sessions do not survive a restart.
type querySessionService struct {
	lenderService      LenderServicer
	opportunityService OpportunityServicer
	settings           MarketSettings
	clock              Clock

	mu       sync.Mutex
	sessions map[string]*marketplace.QueryController
}

// NewQuerySessionService creates a new QuerySessionServicer.
func NewQuerySessionService(lenderService LenderServicer, opportunityService OpportunityServicer, settings MarketSettings, clock Clock) QuerySessionServicer {
	return &querySessionService{
		lenderService:      lenderService,
		opportunityService: opportunityService,
		settings:           settings,
		clock:              clock.orDefault(),
		sessions:           make(map[string]*marketplace.QueryController),
	}
}

// session returns the lender's controller with a freshly loaded catalog.
func (s *querySessionService) session(lenderID string) (*marketplace.QueryController, *models.Lender, error) {
	lender, err := s.lenderService.GetLenderByID(lenderID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := s.opportunityService.Catalog()
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	ctrl, ok := s.sessions[lenderID]
	if !ok {
		ctrl = marketplace.NewQueryController(catalog)
		s.sessions[lenderID] = ctrl
	}
	s.mu.Unlock()

	if ok {
		ctrl.SetCatalog(catalog)
	}
	return ctrl, lender, nil
}

func (s *querySessionService) view(ctrl *marketplace.QueryController, lender *models.Lender, page pagination.PageRequest) *SessionView {
	page.Defaults()

	state, results := ctrl.Snapshot()
	stats := marketplace.Aggregate(results, lender.AvailableCapital, s.clock(), marketplace.AggregateOptions{
		ExpiringWindowDays: s.settings.ExpiringWindowDays,
	})
	return &SessionView{
		State:   state,
		Results: pagination.Slice(s.opportunityService.Views(results), page),
		Stats:   stats,
	}
}

// GetView returns the lender's current state, results and stats.
func (s *querySessionService) GetView(lenderID string, page pagination.PageRequest) (*SessionView, error) {
	ctrl, lender, err := s.session(lenderID)
	if err != nil {
		return nil, err
	}
	return s.view(ctrl, lender, page), nil
}

// ReplaceState installs a whole filter state. An empty sort or view keeps
// the session's current one.
func (s *querySessionService) ReplaceState(lenderID string, state marketplace.FilterState, page pagination.PageRequest) (*SessionView, error) {
	if state.View != "" && !state.View.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown view mode")
	}
	ctrl, lender, err := s.session(lenderID)
	if err != nil {
		return nil, err
	}
	ctrl.Replace(state)
	if state.Sort != "" {
		ctrl.SetSort(state.Sort)
	}
	return s.view(ctrl, lender, page), nil
}

// Toggle adds value to the named set dimension, or removes it if present.
func (s *querySessionService) Toggle(lenderID string, dimension ToggleDimension, value string, page pagination.PageRequest) (*SessionView, error) {
	apply, err := toggleFunc(dimension, value)
	if err != nil {
		return nil, err
	}
	ctrl, lender, err := s.session(lenderID)
	if err != nil {
		return nil, err
	}
	apply(ctrl)
	return s.view(ctrl, lender, page), nil
}

// Clear resets every filter dimension of the session.
func (s *querySessionService) Clear(lenderID string, page pagination.PageRequest) (*SessionView, error) {
	ctrl, lender, err := s.session(lenderID)
	if err != nil {
		return nil, err
	}
	ctrl.Clear()
	return s.view(ctrl, lender, page), nil
}

func toggleFunc(dimension ToggleDimension, value string) (func(*marketplace.QueryController), error) {
	invalid := func(msg string) error {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, msg)
	}

	switch dimension {
	case ToggleTerm:
		term, err := strconv.Atoi(value)
		if err != nil || term <= 0 {
			return nil, invalid("Term must be a positive number of months")
		}
		return func(c *marketplace.QueryController) { c.ToggleTerm(term) }, nil
	case ToggleCategory:
		cat := models.Category(value)
		if !cat.Valid() {
			return nil, invalid("Unknown category")
		}
		return func(c *marketplace.QueryController) { c.ToggleCategory(cat) }, nil
	case ToggleUseOfFunds:
		use := models.UseOfFunds(value)
		if !use.Valid() {
			return nil, invalid("Unknown use of funds")
		}
		return func(c *marketplace.QueryController) { c.ToggleUseOfFunds(use) }, nil
	case ToggleStatus:
		status := models.OpportunityStatus(value)
		if !status.Valid() {
			return nil, invalid("Unknown status")
		}
		return func(c *marketplace.QueryController) { c.ToggleStatus(status) }, nil
	case ToggleRiskLevel:
		level := models.RiskLevel(value)
		if !level.Valid() {
			return nil, invalid("Unknown risk level")
		}
		return func(c *marketplace.QueryController) { c.ToggleRiskLevel(level) }, nil
	default:
		return nil, invalid("Unknown filter dimension")
	}
}
