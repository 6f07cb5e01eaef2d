package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/logger"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// opportunityService handles the opportunity catalog.
type opportunityService struct {
	db            *gorm.DB
	lenderService LenderServicer
	settings      MarketSettings
	clock         Clock
}

// NewOpportunityService creates a new OpportunityServicer.
func NewOpportunityService(db *gorm.DB, lenderService LenderServicer, settings MarketSettings, clock Clock) OpportunityServicer {
	if len(settings.Grades) == 0 {
		settings.Grades = marketplace.DefaultGradeTable
	}
	return &opportunityService{
		db:            db,
		lenderService: lenderService,
		settings:      settings,
		clock:         clock.orDefault(),
	}
}

// CreateOpportunity validates and lists a new opportunity. The status is
// derived from the funded amount.
func (s *opportunityService) CreateOpportunity(o *models.Opportunity) (*models.Opportunity, error) {
	now := s.clock()

	o.ID = ""
	o.VendorID = strings.TrimSpace(o.VendorID)
	o.VendorName = strings.TrimSpace(o.VendorName)
	o.RequestedAmount = o.RequestedAmount.Round(2)
	o.FundedAmount = o.FundedAmount.Round(2)
	o.MinInvestment = o.MinInvestment.Round(2)
	o.MaxInvestment = o.MaxInvestment.Round(2)
	if o.ListedDate.IsZero() {
		o.ListedDate = now
	}
	o.ListedDate = o.ListedDate.UTC()
	o.ExpiryDate = o.ExpiryDate.UTC()
	if o.Status == "" || o.Status.Open() {
		o.Status = models.StatusAvailable
	}
	o.Status = marketplace.StatusFor(*o)

	if err := marketplace.ValidateOpportunity(*o); err != nil {
		return nil, err
	}

	if err := s.db.Create(o).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	logger.Get().Infow("opportunity listed",
		"opportunity_id", o.ID,
		"vendor_id", o.VendorID,
		"requested_amount", o.RequestedAmount.String(),
	)
	return o, nil
}

// GetOpportunityByID retrieves an opportunity by ID.
func (s *opportunityService) GetOpportunityByID(id string) (*models.Opportunity, error) {
	var o models.Opportunity
	if err := s.db.Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOpportunityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &o, nil
}

// ViewOpportunity returns the opportunity with its metrics and counts the view.
func (s *opportunityService) ViewOpportunity(id string) (*OpportunityView, error) {
	return s.bumpCounter(id, "views")
}

// RecordInterest registers a lender's interest in the opportunity.
func (s *opportunityService) RecordInterest(id string) (*OpportunityView, error) {
	return s.bumpCounter(id, "interested_investors")
}

func (s *opportunityService) bumpCounter(id, column string) (*OpportunityView, error) {
	if _, err := s.GetOpportunityByID(id); err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Opportunity{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	o, err := s.GetOpportunityByID(id)
	if err != nil {
		return nil, err
	}
	views := s.Views([]models.Opportunity{s.settle(*o)})
	return &views[0], nil
}

// Catalog loads every listed opportunity. Listings whose expiry has passed
// are reported as expired even before the expiry sweep persists it.
func (s *opportunityService) Catalog() ([]models.Opportunity, error) {
	var opps []models.Opportunity
	if err := s.db.Order("id ASC").Find(&opps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range opps {
		opps[i] = s.settle(opps[i])
	}
	return opps, nil
}

func (s *opportunityService) settle(o models.Opportunity) models.Opportunity {
	expired, _ := marketplace.Expire(o, s.clock())
	return expired
}

// ListOpportunities runs the catalog through the filter pipeline and sort
// engine, then pages the result.
func (s *opportunityService) ListOpportunities(state marketplace.FilterState, page pagination.PageRequest) (*pagination.PageResponse[OpportunityView], error) {
	page.Defaults()

	catalog, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	result := pagination.Slice(s.Views(marketplace.Apply(catalog, state)), page)
	return &result, nil
}

// GetMarketplaceStats aggregates stats over the filtered view or the whole
// catalog. Available capital is the lender's balance when lenderID is set,
// otherwise the total across active lenders.
func (s *opportunityService) GetMarketplaceStats(lenderID string, state marketplace.FilterState, scope StatsScope) (*marketplace.MarketplaceStats, error) {
	catalog, err := s.Catalog()
	if err != nil {
		return nil, err
	}

	var capital decimal.Decimal
	if lenderID != "" {
		lender, err := s.lenderService.GetLenderByID(lenderID)
		if err != nil {
			return nil, err
		}
		capital = lender.AvailableCapital
	} else {
		capital, err = s.lenderService.TotalAvailableCapital()
		if err != nil {
			return nil, err
		}
	}

	opps := catalog
	if scope != StatsScopeCatalog {
		opps = marketplace.Filter(catalog, state)
	}
	stats := marketplace.Aggregate(opps, capital, s.clock(), marketplace.AggregateOptions{
		ExpiringWindowDays: s.settings.ExpiringWindowDays,
	})
	return &stats, nil
}

// ExpireOpportunities persists the expired status for every listing past its
// expiry date, funded or not, and returns how many changed.
func (s *opportunityService) ExpireOpportunities() (int, error) {
	now := s.clock()

	var due []models.Opportunity
	if err := s.db.
		Where("status <> ? AND expiry_date < ?", models.StatusExpired, now.UTC()).
		Find(&due).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for _, o := range due {
		next, changed := marketplace.Expire(o, now)
		if !changed {
			continue
		}
		result := s.db.Model(&models.Opportunity{}).
			Where("id = ? AND status = ?", o.ID, o.Status).
			Update("status", next.Status)
		if result.Error != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		count += int(result.RowsAffected)
	}

	if count > 0 {
		logger.Get().Infow("expired opportunities", "count", count)
	}
	return count, nil
}

// Views attaches derived metrics to each opportunity.
func (s *opportunityService) Views(opps []models.Opportunity) []OpportunityView {
	now := s.clock()
	views := make([]OpportunityView, len(opps))
	for i, o := range opps {
		views[i] = OpportunityView{Opportunity: o, Metrics: marketplace.Derive(o, now, s.settings.Grades)}
	}
	return views
}
