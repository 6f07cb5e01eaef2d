package models

import "github.com/shopspring/decimal"

// Lender is a capital provider. AvailableCapital is the uncommitted wallet balance.
type Lender struct {
	Base
	Name             string          `gorm:"not null" json:"name"`
	Email            string          `gorm:"uniqueIndex;not null" json:"email"`
	AvailableCapital decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"available_capital"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`

	Rules []AutoInvestRule `gorm:"foreignKey:LenderID" json:"rules,omitempty"`
}
