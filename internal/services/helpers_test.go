package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"lendhub/internal/models"
	"lendhub/internal/testutil"
)

// testServices wires every service against one in-memory database and the
// fixed test clock.
type testServices struct {
	db            *gorm.DB
	lenders       LenderServicer
	opportunities OpportunityServicer
	rules         RuleServicer
	investments   InvestmentServicer
	autoInvest    AutoInvestServicer
	snapshots     MarketSnapshotServicer
	sessions      QuerySessionServicer
	audit         AuditServicer
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	settings := MarketSettings{ExpiringWindowDays: 7}
	clock := Clock(testutil.Clock)

	s := &testServices{db: db}
	s.audit = NewAuditService(db)
	s.lenders = NewLenderService(db)
	s.opportunities = NewOpportunityService(db, s.lenders, settings, clock)
	s.rules = NewRuleService(db, s.lenders, s.opportunities, clock)
	s.investments = NewInvestmentService(db, s.lenders, clock)
	s.autoInvest = NewAutoInvestService(db, s.lenders, s.rules, s.opportunities, s.investments, s.audit, clock)
	s.snapshots = NewMarketSnapshotService(db, s.lenders, s.opportunities, settings)
	s.sessions = NewQuerySessionService(s.lenders, s.opportunities, settings, clock)
	return s
}

func expired(o *models.Opportunity) {
	o.ListedDate = testutil.RefTime.AddDate(0, 0, -10)
	o.ExpiryDate = testutil.RefTime.Add(-time.Hour)
}

func reloadOpportunity(t *testing.T, db *gorm.DB, id string) models.Opportunity {
	t.Helper()
	var o models.Opportunity
	if err := db.Where("id = ?", id).First(&o).Error; err != nil {
		t.Fatalf("failed to reload opportunity: %v", err)
	}
	return o
}

func reloadLender(t *testing.T, db *gorm.DB, id string) models.Lender {
	t.Helper()
	var l models.Lender
	if err := db.Where("id = ?", id).First(&l).Error; err != nil {
		t.Fatalf("failed to reload lender: %v", err)
	}
	return l
}
