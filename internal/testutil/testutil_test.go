package testutil_test

import (
	"testing"

	"lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"lenders", "opportunities", "auto_invest_rules", "investments", "market_snapshots", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestLender(t, first, "100")

	var count int64
	if err := second.Model(&models.Lender{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected second database to be empty, got %d lenders", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	lender := testutil.CreateTestLender(t, db, "5000")
	if lender.ID == "" {
		t.Fatal("lender should have an ID")
	}
	testutil.AssertDecimal(t, lender.AvailableCapital, "5000")

	opp := testutil.CreateTestOpportunity(t, db)
	if opp.ID == "" || opp.ID[:4] == "opp-" {
		t.Errorf("persisted opportunity should get a generated UUID, got %q", opp.ID)
	}
	if err := marketplace.ValidateOpportunity(*opp); err != nil {
		t.Errorf("fixture opportunity should be valid: %v", err)
	}

	rule := testutil.CreateTestRule(t, db, lender.ID, func(r *models.AutoInvestRule) {
		r.PreferredTerms = []int{6, 9}
	})
	if err := marketplace.ValidateRule(*rule); err != nil {
		t.Errorf("fixture rule should be valid: %v", err)
	}

	var stored models.AutoInvestRule
	if err := db.First(&stored, "id = ?", rule.ID).Error; err != nil {
		t.Fatalf("reload rule: %v", err)
	}
	if len(stored.PreferredTerms) != 2 || stored.PreferredTerms[1] != 9 {
		t.Errorf("expected preferred terms [6 9] after round trip, got %v", stored.PreferredTerms)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrRuleNotFound, "custom message")
	testutil.AssertAppError(t, err, "RULE_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
