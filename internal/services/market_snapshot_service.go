package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// marketSnapshotService records marketplace history.
type marketSnapshotService struct {
	db                 *gorm.DB
	lenderService      LenderServicer
	opportunityService OpportunityServicer
	settings           MarketSettings
}

// NewMarketSnapshotService creates a new MarketSnapshotServicer.
func NewMarketSnapshotService(db *gorm.DB, lenderService LenderServicer, opportunityService OpportunityServicer, settings MarketSettings) MarketSnapshotServicer {
	return &marketSnapshotService{
		db:                 db,
		lenderService:      lenderService,
		opportunityService: opportunityService,
		settings:           settings,
	}
}

// RecordSnapshot aggregates the listings open at recordedAt and stores the
// result. Recording twice for the same instant overwrites the earlier row.
func (s *marketSnapshotService) RecordSnapshot(recordedAt time.Time) (*models.MarketSnapshot, error) {
	recordedAt = recordedAt.UTC()

	catalog, err := s.opportunityService.Catalog()
	if err != nil {
		return nil, err
	}
	open := make([]models.Opportunity, 0, len(catalog))
	for _, o := range catalog {
		if marketplace.IsOpen(o, recordedAt) {
			open = append(open, o)
		}
	}
	capital, err := s.lenderService.TotalAvailableCapital()
	if err != nil {
		return nil, err
	}

	stats := marketplace.Aggregate(open, capital, recordedAt, marketplace.AggregateOptions{
		ExpiringWindowDays: s.settings.ExpiringWindowDays,
	})
	snapshot := &models.MarketSnapshot{
		RecordedAt:         recordedAt,
		TotalOpportunities: stats.TotalOpportunities,
		AvailableCapital:   stats.AvailableCapital,
		TotalFundingNeeded: stats.TotalFundingNeeded,
		AverageScore:       stats.AverageScore,
		NewToday:           stats.NewToday,
		ExpiringSoon:       stats.ExpiringSoon,
	}

	var existing models.MarketSnapshot
	err = s.db.Where("recorded_at = ?", recordedAt).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err == nil {
		if err := s.db.Model(&existing).Updates(map[string]any{
			"total_opportunities":  snapshot.TotalOpportunities,
			"available_capital":    snapshot.AvailableCapital,
			"total_funding_needed": snapshot.TotalFundingNeeded,
			"average_score":        snapshot.AverageScore,
			"new_today":            snapshot.NewToday,
			"expiring_soon":        snapshot.ExpiringSoon,
		}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		snapshot.ID = existing.ID
		return snapshot, nil
	}

	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshot, nil
}

// GetSnapshots returns snapshots recorded within [from, to], oldest first.
// A zero bound leaves that side open.
func (s *marketSnapshotService) GetSnapshots(from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.MarketSnapshot], error) {
	page.Defaults()

	query := s.db.Model(&models.MarketSnapshot{})
	if !from.IsZero() {
		query = query.Where("recorded_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		query = query.Where("recorded_at <= ?", to.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.MarketSnapshot
	if err := query.Order("recorded_at ASC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, total)
	return &result, nil
}
