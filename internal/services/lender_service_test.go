package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"lendhub/internal/testutil"
)

func TestCreateLender(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := newTestServices(t)

		lender, err := s.lenders.CreateLender("Ada Capital", " Ada@Example.com ", testutil.Dec("2500.456"))
		testutil.AssertNoError(t, err)

		if lender.ID == "" {
			t.Fatal("expected generated lender ID")
		}
		if lender.Email != "ada@example.com" {
			t.Errorf("expected normalized email, got %s", lender.Email)
		}
		testutil.AssertDecimal(t, lender.AvailableCapital, "2500.46")
		if !lender.IsActive {
			t.Error("expected lender to be active")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.lenders.CreateLender("First", "dup@example.com", decimal.Zero)
		testutil.AssertNoError(t, err)
		_, err = s.lenders.CreateLender("Second", "DUP@example.com", decimal.Zero)
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("negative_capital", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.lenders.CreateLender("Neg", "neg@example.com", testutil.Dec("-1"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_name", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.lenders.CreateLender("  ", "x@example.com", decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetLenderByID(t *testing.T) {
	s := newTestServices(t)
	lender := testutil.CreateTestLender(t, s.db, "100")

	got, err := s.lenders.GetLenderByID(lender.ID)
	testutil.AssertNoError(t, err)
	if got.Email != lender.Email {
		t.Errorf("expected email %s, got %s", lender.Email, got.Email)
	}

	_, err = s.lenders.GetLenderByID("missing")
	testutil.AssertAppError(t, err, "LENDER_NOT_FOUND")
}

func TestDepositAndWithdraw(t *testing.T) {
	t.Run("deposit_credits_wallet", func(t *testing.T) {
		s := newTestServices(t)
		lender := testutil.CreateTestLender(t, s.db, "1000")

		got, err := s.lenders.Deposit(lender.ID, testutil.Dec("250.50"))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, got.AvailableCapital, "1250.50")
	})

	t.Run("deposit_rejects_non_positive", func(t *testing.T) {
		s := newTestServices(t)
		lender := testutil.CreateTestLender(t, s.db, "1000")

		_, err := s.lenders.Deposit(lender.ID, decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("withdraw_debits_wallet", func(t *testing.T) {
		s := newTestServices(t)
		lender := testutil.CreateTestLender(t, s.db, "1000")

		got, err := s.lenders.Withdraw(lender.ID, testutil.Dec("400"))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, got.AvailableCapital, "600")
	})

	t.Run("withdraw_cannot_overdraw", func(t *testing.T) {
		s := newTestServices(t)
		lender := testutil.CreateTestLender(t, s.db, "1000")

		_, err := s.lenders.Withdraw(lender.ID, testutil.Dec("1000.01"))
		testutil.AssertAppError(t, err, "INSUFFICIENT_CAPITAL")
		testutil.AssertDecimal(t, reloadLender(t, s.db, lender.ID).AvailableCapital, "1000")
	})

	t.Run("unknown_lender", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.lenders.Withdraw("missing", testutil.Dec("1"))
		testutil.AssertAppError(t, err, "LENDER_NOT_FOUND")
	})
}

func TestDebitCapital(t *testing.T) {
	t.Run("unknown_lender", func(t *testing.T) {
		s := newTestServices(t)

		err := s.lenders.DebitCapital(s.db, "missing", testutil.Dec("1"))
		testutil.AssertAppError(t, err, "LENDER_NOT_FOUND")
	})

	t.Run("exact_balance", func(t *testing.T) {
		s := newTestServices(t)
		lender := testutil.CreateTestLender(t, s.db, "300")

		testutil.AssertNoError(t, s.lenders.DebitCapital(s.db, lender.ID, testutil.Dec("300")))
		testutil.AssertDecimal(t, reloadLender(t, s.db, lender.ID).AvailableCapital, "0")
	})
}

func TestActiveLenders(t *testing.T) {
	s := newTestServices(t)
	a := testutil.CreateTestLender(t, s.db, "1000")
	b := testutil.CreateTestLender(t, s.db, "250.25")
	c := testutil.CreateTestLender(t, s.db, "5000")
	if err := s.db.Model(c).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate lender: %v", err)
	}

	ids, err := s.lenders.ListActiveLenderIDs()
	testutil.AssertNoError(t, err)
	if len(ids) != 2 {
		t.Fatalf("expected 2 active lenders, got %d", len(ids))
	}
	for _, id := range ids {
		if id != a.ID && id != b.ID {
			t.Errorf("unexpected lender %s", id)
		}
	}

	total, err := s.lenders.TotalAvailableCapital()
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, total, "1250.25")
}
