package marketplace

import (
	"testing"
	"time"

	"lendhub/internal/models"
	"lendhub/internal/testutil"
)

func TestValidateOpportunity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Opportunity)
		wantErr bool
	}{
		{name: "valid", mutate: func(*models.Opportunity) {}},
		{name: "zero requested amount", mutate: func(o *models.Opportunity) { o.RequestedAmount = testutil.Dec("0") }, wantErr: true},
		{name: "funded exceeds requested", mutate: func(o *models.Opportunity) { o.FundedAmount = testutil.Dec("15000.01") }, wantErr: true},
		{name: "negative funded", mutate: func(o *models.Opportunity) { o.FundedAmount = testutil.Dec("-1") }, wantErr: true},
		{name: "min above max investment", mutate: func(o *models.Opportunity) { o.MinInvestment = testutil.Dec("6000") }, wantErr: true},
		{name: "max investment above requested", mutate: func(o *models.Opportunity) { o.MaxInvestment = testutil.Dec("20000") }, wantErr: true},
		{name: "score below scale", mutate: func(o *models.Opportunity) { o.MerchantScore = 250 }, wantErr: true},
		{name: "score above scale", mutate: func(o *models.Opportunity) { o.MerchantScore = 901 }, wantErr: true},
		{name: "zero term", mutate: func(o *models.Opportunity) { o.TermMonths = 0 }, wantErr: true},
		{name: "negative apr", mutate: func(o *models.Opportunity) { o.APR = -1 }, wantErr: true},
		{name: "default probability above 100", mutate: func(o *models.Opportunity) { o.DefaultProbability = 120 }, wantErr: true},
		{name: "expiry before listing", mutate: func(o *models.Opportunity) { o.ExpiryDate = o.ListedDate.Add(-time.Hour) }, wantErr: true},
		{name: "unknown category", mutate: func(o *models.Opportunity) { o.Category = "jewelry" }, wantErr: true},
		{name: "unknown risk", mutate: func(o *models.Opportunity) { o.RiskLevel = "" }, wantErr: true},
		{name: "missing vendor", mutate: func(o *models.Opportunity) { o.VendorID = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testutil.NewOpportunity(tt.mutate)
			err := ValidateOpportunity(o)
			if tt.wantErr {
				testutil.AssertAppError(t, err, "INVALID_OPPORTUNITY")
				return
			}
			testutil.AssertNoError(t, err)
		})
	}
}

func TestApplyFunding(t *testing.T) {
	now := testutil.RefTime

	t.Run("advances status through the funding lifecycle", func(t *testing.T) {
		o := testutil.NewOpportunity()

		first, err := ApplyFunding(o, testutil.Dec("5000"), now)
		testutil.AssertNoError(t, err)
		if first.Status != models.StatusPartiallyFunded {
			t.Errorf("status = %s, want partially-funded", first.Status)
		}
		testutil.AssertDecimal(t, first.FundedAmount, "5000")
		testutil.AssertDecimal(t, o.FundedAmount, "0")

		second, err := ApplyFunding(first, testutil.Dec("5000"), now)
		testutil.AssertNoError(t, err)
		third, err := ApplyFunding(second, testutil.Dec("5000"), now)
		testutil.AssertNoError(t, err)
		if third.Status != models.StatusFullyFunded {
			t.Errorf("status = %s, want fully-funded", third.Status)
		}

		_, err = ApplyFunding(third, testutil.Dec("100"), now)
		testutil.AssertAppError(t, err, "OPPORTUNITY_CLOSED")
	})

	t.Run("rejects amounts over the remaining gap", func(t *testing.T) {
		o := testutil.NewOpportunity(func(o *models.Opportunity) {
			o.FundedAmount = testutil.Dec("13000")
			o.Status = models.StatusPartiallyFunded
		})
		_, err := ApplyFunding(o, testutil.Dec("3000"), now)
		testutil.AssertAppError(t, err, "OVER_FUNDING")
	})

	t.Run("enforces investment bounds", func(t *testing.T) {
		o := testutil.NewOpportunity()
		_, err := ApplyFunding(o, testutil.Dec("50"), now)
		testutil.AssertAppError(t, err, "INVALID_INVESTMENT_AMOUNT")
		_, err = ApplyFunding(o, testutil.Dec("6000"), now)
		testutil.AssertAppError(t, err, "INVALID_INVESTMENT_AMOUNT")
		_, err = ApplyFunding(o, testutil.Dec("0"), now)
		testutil.AssertAppError(t, err, "INVALID_INVESTMENT_AMOUNT")
	})

	t.Run("allows closing a gap smaller than the minimum", func(t *testing.T) {
		o := testutil.NewOpportunity(func(o *models.Opportunity) {
			o.FundedAmount = testutil.Dec("14940")
			o.Status = models.StatusPartiallyFunded
		})
		_, err := ApplyFunding(o, testutil.Dec("50"), now)
		testutil.AssertAppError(t, err, "INVALID_INVESTMENT_AMOUNT")

		closed, err := ApplyFunding(o, testutil.Dec("60"), now)
		testutil.AssertNoError(t, err)
		if closed.Status != models.StatusFullyFunded {
			t.Errorf("status = %s, want fully-funded", closed.Status)
		}
	})

	t.Run("rejects expired opportunities", func(t *testing.T) {
		past := testutil.NewOpportunity(func(o *models.Opportunity) { o.ExpiryDate = now.Add(-time.Minute) })
		_, err := ApplyFunding(past, testutil.Dec("500"), now)
		testutil.AssertAppError(t, err, "OPPORTUNITY_CLOSED")

		marked := testutil.NewOpportunity(func(o *models.Opportunity) { o.Status = models.StatusExpired })
		_, err = ApplyFunding(marked, testutil.Dec("500"), now)
		testutil.AssertAppError(t, err, "OPPORTUNITY_CLOSED")
	})
}

func TestExpire(t *testing.T) {
	now := testutil.RefTime
	tests := []struct {
		name        string
		status      models.OpportunityStatus
		expiry      time.Time
		wantStatus  models.OpportunityStatus
		wantChanged bool
	}{
		{name: "open and past expiry", status: models.StatusAvailable, expiry: now.Add(-time.Hour), wantStatus: models.StatusExpired, wantChanged: true},
		{name: "fully funded and past expiry", status: models.StatusFullyFunded, expiry: now.Add(-time.Hour), wantStatus: models.StatusExpired, wantChanged: true},
		{name: "not yet expired", status: models.StatusPartiallyFunded, expiry: now.Add(time.Hour), wantStatus: models.StatusPartiallyFunded},
		{name: "already expired", status: models.StatusExpired, expiry: now.Add(-48 * time.Hour), wantStatus: models.StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testutil.NewOpportunity(func(o *models.Opportunity) {
				o.Status = tt.status
				o.ListedDate = now.AddDate(0, 0, -30)
				o.ExpiryDate = tt.expiry
			})
			got, changed := Expire(o, now)
			if got.Status != tt.wantStatus || changed != tt.wantChanged {
				t.Errorf("Expire() = (%s, %v), want (%s, %v)", got.Status, changed, tt.wantStatus, tt.wantChanged)
			}
			if o.Status != tt.status {
				t.Error("Expire mutated its input")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	o := testutil.NewOpportunity()
	if got := StatusFor(o); got != models.StatusAvailable {
		t.Errorf("unfunded status = %s", got)
	}
	o.FundedAmount = testutil.Dec("1")
	if got := StatusFor(o); got != models.StatusPartiallyFunded {
		t.Errorf("partially funded status = %s", got)
	}
	o.FundedAmount = o.RequestedAmount
	if got := StatusFor(o); got != models.StatusFullyFunded {
		t.Errorf("fully funded status = %s", got)
	}
	o.Status = models.StatusExpired
	if got := StatusFor(o); got != models.StatusExpired {
		t.Errorf("expired status = %s", got)
	}
}
