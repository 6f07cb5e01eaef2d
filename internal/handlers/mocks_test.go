package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
	"lendhub/internal/services"
	"lendhub/internal/validator"
)

const (
	testLenderID      = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	testOpportunityID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a6c"
	testRuleID        = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a7d"
)

// --- mock services ---

type mockOpportunityService struct {
	createOpportunityFn   func(o *models.Opportunity) (*models.Opportunity, error)
	viewOpportunityFn     func(id string) (*services.OpportunityView, error)
	recordInterestFn      func(id string) (*services.OpportunityView, error)
	listOpportunitiesFn   func(state marketplace.FilterState, page pagination.PageRequest) (*pagination.PageResponse[services.OpportunityView], error)
	getMarketplaceStatsFn func(lenderID string, state marketplace.FilterState, scope services.StatsScope) (*marketplace.MarketplaceStats, error)
}

func (m *mockOpportunityService) CreateOpportunity(o *models.Opportunity) (*models.Opportunity, error) {
	if m.createOpportunityFn != nil {
		return m.createOpportunityFn(o)
	}
	return o, nil
}

func (m *mockOpportunityService) GetOpportunityByID(string) (*models.Opportunity, error) {
	return &models.Opportunity{}, nil
}

func (m *mockOpportunityService) ViewOpportunity(id string) (*services.OpportunityView, error) {
	if m.viewOpportunityFn != nil {
		return m.viewOpportunityFn(id)
	}
	return &services.OpportunityView{}, nil
}

func (m *mockOpportunityService) RecordInterest(id string) (*services.OpportunityView, error) {
	if m.recordInterestFn != nil {
		return m.recordInterestFn(id)
	}
	return &services.OpportunityView{}, nil
}

func (m *mockOpportunityService) ListOpportunities(state marketplace.FilterState, page pagination.PageRequest) (*pagination.PageResponse[services.OpportunityView], error) {
	if m.listOpportunitiesFn != nil {
		return m.listOpportunitiesFn(state, page)
	}
	resp := pagination.NewPageResponse([]services.OpportunityView{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockOpportunityService) GetMarketplaceStats(lenderID string, state marketplace.FilterState, scope services.StatsScope) (*marketplace.MarketplaceStats, error) {
	if m.getMarketplaceStatsFn != nil {
		return m.getMarketplaceStatsFn(lenderID, state, scope)
	}
	return &marketplace.MarketplaceStats{}, nil
}

func (m *mockOpportunityService) ExpireOpportunities() (int, error) { return 0, nil }

func (m *mockOpportunityService) Catalog() ([]models.Opportunity, error) { return nil, nil }

func (m *mockOpportunityService) Views(opps []models.Opportunity) []services.OpportunityView {
	return nil
}

var _ services.OpportunityServicer = (*mockOpportunityService)(nil)

type mockLenderService struct {
	createLenderFn  func(name, email string, initialCapital decimal.Decimal) (*models.Lender, error)
	getLenderByIDFn func(lenderID string) (*models.Lender, error)
	depositFn       func(lenderID string, amount decimal.Decimal) (*models.Lender, error)
	withdrawFn      func(lenderID string, amount decimal.Decimal) (*models.Lender, error)
}

func (m *mockLenderService) CreateLender(name, email string, initialCapital decimal.Decimal) (*models.Lender, error) {
	if m.createLenderFn != nil {
		return m.createLenderFn(name, email, initialCapital)
	}
	return &models.Lender{}, nil
}

func (m *mockLenderService) GetLenderByID(lenderID string) (*models.Lender, error) {
	if m.getLenderByIDFn != nil {
		return m.getLenderByIDFn(lenderID)
	}
	return &models.Lender{}, nil
}

func (m *mockLenderService) Deposit(lenderID string, amount decimal.Decimal) (*models.Lender, error) {
	if m.depositFn != nil {
		return m.depositFn(lenderID, amount)
	}
	return &models.Lender{}, nil
}

func (m *mockLenderService) Withdraw(lenderID string, amount decimal.Decimal) (*models.Lender, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(lenderID, amount)
	}
	return &models.Lender{}, nil
}

func (m *mockLenderService) ListActiveLenderIDs() ([]string, error) { return nil, nil }

func (m *mockLenderService) TotalAvailableCapital() (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *mockLenderService) DebitCapital(*gorm.DB, string, decimal.Decimal) error { return nil }

var _ services.LenderServicer = (*mockLenderService)(nil)

type mockRuleService struct {
	createRuleFn     func(lenderID string, input services.RuleInput) (*models.AutoInvestRule, error)
	getLenderRulesFn func(lenderID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AutoInvestRule], error)
	getRuleByIDFn    func(lenderID, ruleID string) (*models.AutoInvestRule, error)
	updateRuleFn     func(lenderID, ruleID string, input services.RuleInput) (*models.AutoInvestRule, error)
	setRuleActiveFn  func(lenderID, ruleID string, active bool) (*models.AutoInvestRule, error)
	getRuleMatchesFn func(lenderID, ruleID string, page pagination.PageRequest) (*pagination.PageResponse[services.OpportunityView], error)
}

func (m *mockRuleService) CreateRule(lenderID string, input services.RuleInput) (*models.AutoInvestRule, error) {
	if m.createRuleFn != nil {
		return m.createRuleFn(lenderID, input)
	}
	return &models.AutoInvestRule{}, nil
}

func (m *mockRuleService) GetLenderRules(lenderID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AutoInvestRule], error) {
	if m.getLenderRulesFn != nil {
		return m.getLenderRulesFn(lenderID, page, isActive)
	}
	resp := pagination.NewPageResponse([]models.AutoInvestRule{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRuleService) GetRuleByID(lenderID, ruleID string) (*models.AutoInvestRule, error) {
	if m.getRuleByIDFn != nil {
		return m.getRuleByIDFn(lenderID, ruleID)
	}
	return &models.AutoInvestRule{}, nil
}

func (m *mockRuleService) UpdateRule(lenderID, ruleID string, input services.RuleInput) (*models.AutoInvestRule, error) {
	if m.updateRuleFn != nil {
		return m.updateRuleFn(lenderID, ruleID, input)
	}
	return &models.AutoInvestRule{}, nil
}

func (m *mockRuleService) SetRuleActive(lenderID, ruleID string, active bool) (*models.AutoInvestRule, error) {
	if m.setRuleActiveFn != nil {
		return m.setRuleActiveFn(lenderID, ruleID, active)
	}
	return &models.AutoInvestRule{}, nil
}

func (m *mockRuleService) GetRuleMatches(lenderID, ruleID string, page pagination.PageRequest) (*pagination.PageResponse[services.OpportunityView], error) {
	if m.getRuleMatchesFn != nil {
		return m.getRuleMatchesFn(lenderID, ruleID, page)
	}
	resp := pagination.NewPageResponse([]services.OpportunityView{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRuleService) GetActiveRules(string) ([]models.AutoInvestRule, error) { return nil, nil }

func (m *mockRuleService) SaveRuleTotals(*gorm.DB, models.AutoInvestRule) error { return nil }

var _ services.RuleServicer = (*mockRuleService)(nil)

type mockInvestmentService struct {
	investFn               func(lenderID, opportunityID string, amount decimal.Decimal) (*models.Investment, error)
	getLenderInvestmentsFn func(lenderID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	getLenderPortfolioFn   func(lenderID string) (*services.PortfolioSummary, error)
}

func (m *mockInvestmentService) Invest(lenderID, opportunityID string, amount decimal.Decimal) (*models.Investment, error) {
	if m.investFn != nil {
		return m.investFn(lenderID, opportunityID, amount)
	}
	return &models.Investment{}, nil
}

func (m *mockInvestmentService) Commit(*gorm.DB, services.CommitRequest) (*models.Investment, *models.Opportunity, error) {
	return &models.Investment{}, &models.Opportunity{}, nil
}

func (m *mockInvestmentService) GetLenderInvestments(lenderID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	if m.getLenderInvestmentsFn != nil {
		return m.getLenderInvestmentsFn(lenderID, page)
	}
	resp := pagination.NewPageResponse([]models.Investment{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockInvestmentService) GetLenderPortfolio(lenderID string) (*services.PortfolioSummary, error) {
	if m.getLenderPortfolioFn != nil {
		return m.getLenderPortfolioFn(lenderID)
	}
	return &services.PortfolioSummary{}, nil
}

var _ services.InvestmentServicer = (*mockInvestmentService)(nil)

type mockAutoInvestService struct {
	runForLenderFn func(ctx context.Context, lenderID string) (*services.SweepResult, error)
}

func (m *mockAutoInvestService) RunForLender(ctx context.Context, lenderID string) (*services.SweepResult, error) {
	if m.runForLenderFn != nil {
		return m.runForLenderFn(ctx, lenderID)
	}
	return &services.SweepResult{LenderID: lenderID}, nil
}

func (m *mockAutoInvestService) RunAll(context.Context) ([]services.SweepResult, error) {
	return nil, nil
}

var _ services.AutoInvestServicer = (*mockAutoInvestService)(nil)

type mockSnapshotService struct {
	getSnapshotsFn func(from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.MarketSnapshot], error)
}

func (m *mockSnapshotService) RecordSnapshot(at time.Time) (*models.MarketSnapshot, error) {
	return &models.MarketSnapshot{RecordedAt: at}, nil
}

func (m *mockSnapshotService) GetSnapshots(from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.MarketSnapshot], error) {
	if m.getSnapshotsFn != nil {
		return m.getSnapshotsFn(from, to, page)
	}
	resp := pagination.NewPageResponse([]models.MarketSnapshot{}, 1, 20, 0)
	return &resp, nil
}

var _ services.MarketSnapshotServicer = (*mockSnapshotService)(nil)

type mockSessionService struct {
	getViewFn      func(lenderID string, page pagination.PageRequest) (*services.SessionView, error)
	replaceStateFn func(lenderID string, state marketplace.FilterState, page pagination.PageRequest) (*services.SessionView, error)
	toggleFn       func(lenderID string, dimension services.ToggleDimension, value string, page pagination.PageRequest) (*services.SessionView, error)
	clearFn        func(lenderID string, page pagination.PageRequest) (*services.SessionView, error)
}

func (m *mockSessionService) GetView(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
	if m.getViewFn != nil {
		return m.getViewFn(lenderID, page)
	}
	return &services.SessionView{}, nil
}

func (m *mockSessionService) ReplaceState(lenderID string, state marketplace.FilterState, page pagination.PageRequest) (*services.SessionView, error) {
	if m.replaceStateFn != nil {
		return m.replaceStateFn(lenderID, state, page)
	}
	return &services.SessionView{State: state}, nil
}

func (m *mockSessionService) Toggle(lenderID string, dimension services.ToggleDimension, value string, page pagination.PageRequest) (*services.SessionView, error) {
	if m.toggleFn != nil {
		return m.toggleFn(lenderID, dimension, value, page)
	}
	return &services.SessionView{}, nil
}

func (m *mockSessionService) Clear(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
	if m.clearFn != nil {
		return m.clearFn(lenderID, page)
	}
	return &services.SessionView{}, nil
}

var _ services.QuerySessionServicer = (*mockSessionService)(nil)

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]any) {
	m.actions = append(m.actions, action)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// testServices holds the mocks behind a router. Nil fields get defaults.
type testServices struct {
	opportunities *mockOpportunityService
	lenders       *mockLenderService
	rules         *mockRuleService
	investments   *mockInvestmentService
	autoInvest    *mockAutoInvestService
	sessions      *mockSessionService
	snapshots     *mockSnapshotService
	audit         *mockAuditService
}

func (s *testServices) router() *gin.Engine {
	if s.opportunities == nil {
		s.opportunities = &mockOpportunityService{}
	}
	if s.lenders == nil {
		s.lenders = &mockLenderService{}
	}
	if s.rules == nil {
		s.rules = &mockRuleService{}
	}
	if s.investments == nil {
		s.investments = &mockInvestmentService{}
	}
	if s.autoInvest == nil {
		s.autoInvest = &mockAutoInvestService{}
	}
	if s.sessions == nil {
		s.sessions = &mockSessionService{}
	}
	if s.snapshots == nil {
		s.snapshots = &mockSnapshotService{}
	}
	if s.audit == nil {
		s.audit = &mockAuditService{}
	}

	r := gin.New()
	RegisterRoutes(r.Group(""), Handlers{
		Opportunity: NewOpportunityHandler(s.opportunities, s.audit),
		Lender:      NewLenderHandler(s.lenders, s.audit),
		Rule:        NewRuleHandler(s.rules, s.audit),
		Investment:  NewInvestmentHandler(s.investments, s.audit),
		AutoInvest:  NewAutoInvestHandler(s.autoInvest, s.audit),
		View:        NewViewHandler(s.sessions),
		Market:      NewMarketHandler(s.snapshots),
	})
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]any, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
