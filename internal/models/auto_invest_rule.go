package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AutoInvestRule is a lender's standing instruction to commit capital to
// opportunities that satisfy all of its criteria. Empty sets match anything.
type AutoInvestRule struct {
	Base
	LenderID               string              `gorm:"type:uuid;not null;index" json:"lender_id"`
	Name                   string              `gorm:"not null" json:"name"`
	IsActive               bool                `gorm:"not null;default:true" json:"is_active"`
	MaxInvestmentPerVendor decimal.Decimal     `gorm:"type:numeric(20,2);not null" json:"max_investment_per_vendor"`
	MinMerchantScore       int                 `gorm:"not null;default:0" json:"min_merchant_score"`
	MaxMerchantScore       *int                `json:"max_merchant_score,omitempty"`
	MinLoanAmount          decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"min_loan_amount"`
	MaxLoanAmount          decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"max_loan_amount"`

	PreferredTerms      datatypes.JSONSlice[int]        `json:"preferred_terms"`
	PreferredUseOfFunds datatypes.JSONSlice[UseOfFunds] `json:"preferred_use_of_funds"`
	PreferredCategories datatypes.JSONSlice[Category]   `json:"preferred_categories"`

	MinTimeOnPlatform     *int            `json:"min_time_on_platform,omitempty"`
	MaxRiskLevel          RiskLevel       `gorm:"not null;default:'high'" json:"max_risk_level"`
	MinAvailableCapital   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"min_available_capital"`
	MaxDailyInvestments   *int            `json:"max_daily_investments,omitempty"`
	MaxMonthlyInvestments *int            `json:"max_monthly_investments,omitempty"`

	TotalInvested   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_invested"`
	InvestmentCount int             `gorm:"not null;default:0" json:"investment_count"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
}
