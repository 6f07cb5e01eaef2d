package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendhub/internal/uuid"
)

// MarketSnapshot is a point-in-time record of catalog-wide marketplace statistics.
// Immutable time-series data: no Base embed, no soft deletes.
type MarketSnapshot struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	RecordedAt         time.Time       `gorm:"not null;uniqueIndex" json:"recorded_at"`
	TotalOpportunities int             `gorm:"not null" json:"total_opportunities"`
	AvailableCapital   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"available_capital"`
	TotalFundingNeeded decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_funding_needed"`
	AverageScore       int             `gorm:"not null" json:"average_score"`
	NewToday           int             `gorm:"not null" json:"new_today"`
	ExpiringSoon       int             `gorm:"not null" json:"expiring_soon"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (m *MarketSnapshot) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New()
	}
	return nil
}
