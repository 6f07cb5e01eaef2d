package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentSource records how a commitment was made.
type InvestmentSource string

const (
	InvestmentSourceManual InvestmentSource = "manual"
	InvestmentSourceAuto   InvestmentSource = "auto"
)

// Investment is a lender's capital commitment to one opportunity.
type Investment struct {
	Base
	LenderID       string           `gorm:"type:uuid;not null;index" json:"lender_id"`
	OpportunityID  string           `gorm:"type:uuid;not null;index" json:"opportunity_id"`
	VendorID       string           `gorm:"size:64;not null;index" json:"vendor_id"`
	RuleID         *string          `gorm:"type:uuid;index" json:"rule_id,omitempty"`
	Category       Category         `gorm:"not null" json:"category"`
	Amount         decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"amount"`
	ExpectedReturn decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"expected_return"`
	APR            float64          `gorm:"not null" json:"apr"`
	TermMonths     int              `gorm:"not null" json:"term_months"`
	Source         InvestmentSource `gorm:"not null" json:"source"`
	CommittedAt    time.Time        `gorm:"not null;index" json:"committed_at"`
}
