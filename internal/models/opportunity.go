package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant score bounds.
const (
	MinMerchantScore = 300
	MaxMerchantScore = 900
)

// Opportunity is a vendor's request for financing listed on the marketplace.
type Opportunity struct {
	Base
	VendorID            string            `gorm:"size:64;not null;index" json:"vendor_id"`
	VendorName          string            `gorm:"not null" json:"vendor_name"`
	Category            Category          `gorm:"not null;index" json:"category"`
	MerchantScore       int               `gorm:"not null" json:"merchant_score"`
	RequestedAmount     decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"requested_amount"`
	FundedAmount        decimal.Decimal   `gorm:"type:numeric(20,2);not null;default:0" json:"funded_amount"`
	MinInvestment       decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"min_investment"`
	MaxInvestment       decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"max_investment"`
	TermMonths          int               `gorm:"not null" json:"term_months"`
	APR                 float64           `gorm:"not null" json:"apr"`
	UseOfFunds          UseOfFunds        `gorm:"not null" json:"use_of_funds"`
	TimeOnPlatform      int               `gorm:"not null;default:0" json:"time_on_platform"`
	TotalRevenue        decimal.Decimal   `gorm:"type:numeric(20,2);not null;default:0" json:"total_revenue"`
	MonthlyRevenue      decimal.Decimal   `gorm:"type:numeric(20,2);not null;default:0" json:"monthly_revenue"`
	RepaidLoans         int               `gorm:"not null;default:0" json:"repaid_loans"`
	ListedDate          time.Time         `gorm:"not null" json:"listed_date"`
	ExpiryDate          time.Time         `gorm:"not null;index" json:"expiry_date"`
	Status              OpportunityStatus `gorm:"not null;index;default:'available'" json:"status"`
	RiskLevel           RiskLevel         `gorm:"not null" json:"risk_level"`
	DefaultProbability  float64           `gorm:"not null;default:0" json:"default_probability"`
	Views               int               `gorm:"not null;default:0" json:"views"`
	InterestedInvestors int               `gorm:"not null;default:0" json:"interested_investors"`
	Description         string            `json:"description"`
}
