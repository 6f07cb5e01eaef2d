package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendhub/internal/models"
)

// RefTime is the fixed "now" used across tests. Fixtures are listed and
// expire relative to it.
var RefTime = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

// Clock returns RefTime. Pass it wherever a service takes a clock.
func Clock() time.Time { return RefTime }

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, panicking on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewOpportunity returns a valid, unsaved opportunity with a sortable
// identifier. Mutators are applied in order.
func NewOpportunity(mutators ...func(*models.Opportunity)) models.Opportunity {
	n := nextID()
	o := models.Opportunity{
		Base:                models.Base{ID: fmt.Sprintf("opp-%06d", n)},
		VendorID:            fmt.Sprintf("vendor-%d", n),
		VendorName:          fmt.Sprintf("Test Vendor %d", n),
		Category:            models.CategoryFashion,
		MerchantScore:       750,
		RequestedAmount:     Dec("15000"),
		FundedAmount:        decimal.Zero,
		MinInvestment:       Dec("100"),
		MaxInvestment:       Dec("5000"),
		TermMonths:          6,
		APR:                 12,
		UseOfFunds:          models.UseOfFundsInventory,
		TimeOnPlatform:      18,
		TotalRevenue:        Dec("250000"),
		MonthlyRevenue:      Dec("20000"),
		RepaidLoans:         2,
		ListedDate:          RefTime.AddDate(0, 0, -5),
		ExpiryDate:          RefTime.AddDate(0, 0, 25),
		Status:              models.StatusAvailable,
		RiskLevel:           models.RiskLow,
		DefaultProbability:  2.5,
		InterestedInvestors: 3,
	}
	for _, m := range mutators {
		m(&o)
	}
	return o
}

// NewRule returns a valid, unsaved rule that accepts any opportunity.
func NewRule(lenderID string, mutators ...func(*models.AutoInvestRule)) models.AutoInvestRule {
	r := models.AutoInvestRule{
		LenderID:               lenderID,
		Name:                   fmt.Sprintf("Test Rule %d", nextID()),
		IsActive:               true,
		MaxInvestmentPerVendor: Dec("1000"),
		MinMerchantScore:       models.MinMerchantScore,
		MaxRiskLevel:           models.RiskHigh,
		MinAvailableCapital:    decimal.Zero,
		TotalInvested:          decimal.Zero,
	}
	for _, m := range mutators {
		m(&r)
	}
	return r
}

// CreateTestLender creates an active lender with the given capital.
func CreateTestLender(t *testing.T, db *gorm.DB, capital string) *models.Lender {
	t.Helper()

	n := nextID()
	lender := &models.Lender{
		Name:             fmt.Sprintf("Test Lender %d", n),
		Email:            fmt.Sprintf("lender%d@test.com", n),
		AvailableCapital: Dec(capital),
		IsActive:         true,
	}
	if err := db.Create(lender).Error; err != nil {
		t.Fatalf("failed to create test lender: %v", err)
	}
	return lender
}

// CreateTestOpportunity persists NewOpportunity with a generated UUID.
func CreateTestOpportunity(t *testing.T, db *gorm.DB, mutators ...func(*models.Opportunity)) *models.Opportunity {
	t.Helper()

	o := NewOpportunity(mutators...)
	if len(o.ID) > 4 && o.ID[:4] == "opp-" {
		o.ID = ""
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("failed to create test opportunity: %v", err)
	}
	return &o
}

// CreateTestRule persists NewRule for the lender.
func CreateTestRule(t *testing.T, db *gorm.DB, lenderID string, mutators ...func(*models.AutoInvestRule)) *models.AutoInvestRule {
	t.Helper()

	r := NewRule(lenderID, mutators...)
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return &r
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// DecPtr parses s and returns a pointer to it.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}
