package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
	"lendhub/internal/services"
)

func TestInvestmentHandler_Invest(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotLender, gotOpp string
		var gotAmount decimal.Decimal
		svc := &testServices{investments: &mockInvestmentService{
			investFn: func(lenderID, opportunityID string, amount decimal.Decimal) (*models.Investment, error) {
				gotLender, gotOpp, gotAmount = lenderID, opportunityID, amount
				return &models.Investment{
					LenderID:       lenderID,
					OpportunityID:  opportunityID,
					Amount:         amount,
					ExpectedReturn: decimal.NewFromInt(2650),
					Source:         models.InvestmentSourceManual,
				}, nil
			},
		}}
		r := svc.router()

		rec := doRequest(r, "POST", "/lenders/"+testLenderID+"/investments",
			`{"opportunity_id":"`+testOpportunityID+`","amount":"2500"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotLender != testLenderID || gotOpp != testOpportunityID || !gotAmount.Equal(decimal.NewFromInt(2500)) {
			t.Errorf("unexpected call: %s %s %s", gotLender, gotOpp, gotAmount)
		}
		inv := parseJSON(t, rec)["investment"].(map[string]any)
		if inv["expected_return"] != "2650" {
			t.Errorf("expected_return = %v", inv["expected_return"])
		}
		if svc.audit.actions[0] != "INVEST" {
			t.Errorf("expected INVEST audit, got %v", svc.audit.actions)
		}
	})

	t.Run("returns 400 on bad opportunity id", func(t *testing.T) {
		r := (&testServices{}).router()

		rec := doRequest(r, "POST", "/lenders/"+testLenderID+"/investments", `{"opportunity_id":"abc","amount":"100"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "amount outside bounds", err: apperrors.ErrInvalidInvestmentAmount, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INVESTMENT_AMOUNT"},
		{name: "over funding", err: apperrors.ErrOverFunding, wantStatus: http.StatusConflict, wantCode: "OVER_FUNDING"},
		{name: "closed", err: apperrors.ErrOpportunityClosed, wantStatus: http.StatusConflict, wantCode: "OPPORTUNITY_CLOSED"},
		{name: "insufficient capital", err: apperrors.ErrInsufficientCapital, wantStatus: http.StatusBadRequest, wantCode: "INSUFFICIENT_CAPITAL"},
		{name: "missing opportunity", err: apperrors.ErrOpportunityNotFound, wantStatus: http.StatusNotFound, wantCode: "OPPORTUNITY_NOT_FOUND"},
	}
	for _, tt := range errorCases {
		t.Run("maps "+tt.name, func(t *testing.T) {
			svc := &testServices{investments: &mockInvestmentService{
				investFn: func(string, string, decimal.Decimal) (*models.Investment, error) { return nil, tt.err },
			}}
			r := svc.router()

			rec := doRequest(r, "POST", "/lenders/"+testLenderID+"/investments",
				`{"opportunity_id":"`+testOpportunityID+`","amount":"100"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			if len(svc.audit.actions) != 0 {
				t.Errorf("failed investment was audited: %v", svc.audit.actions)
			}
		})
	}
}

func TestInvestmentHandler_GetPortfolio(t *testing.T) {
	r := (&testServices{investments: &mockInvestmentService{
		getLenderPortfolioFn: func(lenderID string) (*services.PortfolioSummary, error) {
			return &services.PortfolioSummary{
				LenderID:        lenderID,
				TotalInvested:   decimal.NewFromInt(3000),
				InvestmentCount: 2,
				WeightedAPR:     16,
			}, nil
		},
	}}).router()

	rec := doRequest(r, "GET", "/lenders/"+testLenderID+"/portfolio", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	portfolio := parseJSON(t, rec)["portfolio"].(map[string]any)
	if portfolio["weighted_apr"].(float64) != 16 || portfolio["total_invested"] != "3000" {
		t.Errorf("unexpected portfolio: %v", portfolio)
	}
}

func TestInvestmentHandler_GetInvestments(t *testing.T) {
	r := (&testServices{}).router()

	rec := doRequest(r, "GET", "/lenders/"+testLenderID+"/investments?page=1&page_size=5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := parseJSON(t, rec)["data"].([]any); !ok {
		t.Error("expected data array")
	}
}

func TestAutoInvestHandler_RunAutoInvest(t *testing.T) {
	t.Run("returns sweep result", func(t *testing.T) {
		var gotCtx context.Context
		svc := &testServices{autoInvest: &mockAutoInvestService{
			runForLenderFn: func(ctx context.Context, lenderID string) (*services.SweepResult, error) {
				gotCtx = ctx
				return &services.SweepResult{
					LenderID:      lenderID,
					Matches:       3,
					Investments:   []models.Investment{{Amount: decimal.NewFromInt(500)}},
					TotalInvested: decimal.NewFromInt(500),
					Skipped:       map[string]int{"vendor_cap": 2},
				}, nil
			},
		}}
		r := svc.router()

		rec := doRequest(r, "POST", "/lenders/"+testLenderID+"/auto-invest/run", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCtx == nil {
			t.Error("expected request context to be passed")
		}
		result := parseJSON(t, rec)["result"].(map[string]any)
		if result["matches"].(float64) != 3 || result["total_invested"] != "500" {
			t.Errorf("unexpected result: %v", result)
		}
		if svc.audit.actions[0] != "RUN_AUTO_INVEST" {
			t.Errorf("expected RUN_AUTO_INVEST audit, got %v", svc.audit.actions)
		}
	})

	t.Run("returns 404 for unknown lender", func(t *testing.T) {
		r := (&testServices{autoInvest: &mockAutoInvestService{
			runForLenderFn: func(context.Context, string) (*services.SweepResult, error) {
				return nil, apperrors.ErrLenderNotFound
			},
		}}).router()

		rec := doRequest(r, "POST", "/lenders/"+testLenderID+"/auto-invest/run", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
