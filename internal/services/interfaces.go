package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// MarketSettings carries the configurable engine parameters.
type MarketSettings struct {
	Grades             marketplace.GradeTable
	ExpiringWindowDays int
}

// OpportunityView is an opportunity together with its derived metrics.
type OpportunityView struct {
	models.Opportunity
	Metrics marketplace.Metrics `json:"metrics"`
}

// StatsScope states which opportunities marketplace stats are computed over.
type StatsScope string

const (
	StatsScopeFiltered StatsScope = "filtered"
	StatsScopeCatalog  StatsScope = "catalog"
)

// OpportunityServicer defines the contract for the opportunity catalog.
type OpportunityServicer interface {
	CreateOpportunity(o *models.Opportunity) (*models.Opportunity, error)
	GetOpportunityByID(id string) (*models.Opportunity, error)
	ViewOpportunity(id string) (*OpportunityView, error)
	RecordInterest(id string) (*OpportunityView, error)
	ListOpportunities(state marketplace.FilterState, page pagination.PageRequest) (*pagination.PageResponse[OpportunityView], error)
	GetMarketplaceStats(lenderID string, state marketplace.FilterState, scope StatsScope) (*marketplace.MarketplaceStats, error)
	ExpireOpportunities() (int, error)
	Catalog() ([]models.Opportunity, error)
	Views(opps []models.Opportunity) []OpportunityView
}

// LenderServicer defines the contract for lender wallets.
type LenderServicer interface {
	CreateLender(name, email string, initialCapital decimal.Decimal) (*models.Lender, error)
	GetLenderByID(lenderID string) (*models.Lender, error)
	Deposit(lenderID string, amount decimal.Decimal) (*models.Lender, error)
	Withdraw(lenderID string, amount decimal.Decimal) (*models.Lender, error)
	ListActiveLenderIDs() ([]string, error)
	TotalAvailableCapital() (decimal.Decimal, error)
	DebitCapital(tx *gorm.DB, lenderID string, amount decimal.Decimal) error
}

// RuleInput holds the lender-editable criteria of an auto-invest rule.
type RuleInput struct {
	Name                   string
	MaxInvestmentPerVendor decimal.Decimal
	MinMerchantScore       int
	MaxMerchantScore       *int
	MinLoanAmount          *decimal.Decimal
	MaxLoanAmount          *decimal.Decimal
	PreferredTerms         []int
	PreferredUseOfFunds    []models.UseOfFunds
	PreferredCategories    []models.Category
	MinTimeOnPlatform      *int
	MaxRiskLevel           models.RiskLevel
	MinAvailableCapital    decimal.Decimal
	MaxDailyInvestments    *int
	MaxMonthlyInvestments  *int
}

// RuleServicer defines the contract for auto-invest rule management.
type RuleServicer interface {
	CreateRule(lenderID string, input RuleInput) (*models.AutoInvestRule, error)
	GetLenderRules(lenderID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AutoInvestRule], error)
	GetRuleByID(lenderID, ruleID string) (*models.AutoInvestRule, error)
	UpdateRule(lenderID, ruleID string, input RuleInput) (*models.AutoInvestRule, error)
	SetRuleActive(lenderID, ruleID string, active bool) (*models.AutoInvestRule, error)
	GetRuleMatches(lenderID, ruleID string, page pagination.PageRequest) (*pagination.PageResponse[OpportunityView], error)
	GetActiveRules(lenderID string) ([]models.AutoInvestRule, error)
	SaveRuleTotals(tx *gorm.DB, rule models.AutoInvestRule) error
}

// CommitRequest describes one capital commitment.
type CommitRequest struct {
	LenderID      string
	OpportunityID string
	Amount        decimal.Decimal
	RuleID        *string
	Source        models.InvestmentSource
	At            time.Time
}

// CategorySummary aggregates a lender's investments in one category.
type CategorySummary struct {
	Invested decimal.Decimal `json:"invested"`
	Count    int             `json:"count"`
}

// PortfolioSummary contains aggregated data across a lender's investments.
type PortfolioSummary struct {
	LenderID         string                              `json:"lender_id"`
	AvailableCapital decimal.Decimal                     `json:"available_capital"`
	TotalInvested    decimal.Decimal                     `json:"total_invested"`
	ExpectedReturn   decimal.Decimal                     `json:"expected_return"`
	ExpectedProfit   decimal.Decimal                     `json:"expected_profit"`
	InvestmentCount  int                                 `json:"investment_count"`
	WeightedAPR      float64                             `json:"weighted_apr"`
	ByCategory       map[models.Category]CategorySummary `json:"by_category"`
}

// InvestmentServicer defines the contract for capital commitments.
type InvestmentServicer interface {
	Invest(lenderID, opportunityID string, amount decimal.Decimal) (*models.Investment, error)
	Commit(tx *gorm.DB, req CommitRequest) (*models.Investment, *models.Opportunity, error)
	GetLenderInvestments(lenderID string, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	GetLenderPortfolio(lenderID string) (*PortfolioSummary, error)
}

// SweepResult reports what one auto-invest pass did for a lender.
type SweepResult struct {
	LenderID       string              `json:"lender_id"`
	RulesEvaluated int                 `json:"rules_evaluated"`
	Matches        int                 `json:"matches"`
	Investments    []models.Investment `json:"investments"`
	TotalInvested  decimal.Decimal     `json:"total_invested"`
	Skipped        map[string]int      `json:"skipped"`
}

// AutoInvestServicer defines the contract for running auto-invest rules.
type AutoInvestServicer interface {
	RunForLender(ctx context.Context, lenderID string) (*SweepResult, error)
	RunAll(ctx context.Context) ([]SweepResult, error)
}

// MarketSnapshotServicer defines the contract for marketplace history.
type MarketSnapshotServicer interface {
	RecordSnapshot(recordedAt time.Time) (*models.MarketSnapshot, error)
	GetSnapshots(from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.MarketSnapshot], error)
}

// ToggleDimension names a set-valued filter dimension of a query session.
type ToggleDimension string

const (
	ToggleTerm       ToggleDimension = "term"
	ToggleCategory   ToggleDimension = "category"
	ToggleUseOfFunds ToggleDimension = "use_of_funds"
	ToggleStatus     ToggleDimension = "status"
	ToggleRiskLevel  ToggleDimension = "risk_level"
)

// SessionView is a lender's current filter state with its results and stats.
type SessionView struct {
	State   marketplace.FilterState                  `json:"state"`
	Results pagination.PageResponse[OpportunityView] `json:"results"`
	Stats   marketplace.MarketplaceStats             `json:"stats"`
}

// QuerySessionServicer defines the contract for per-lender interactive queries.
type QuerySessionServicer interface {
	GetView(lenderID string, page pagination.PageRequest) (*SessionView, error)
	ReplaceState(lenderID string, state marketplace.FilterState, page pagination.PageRequest) (*SessionView, error)
	Toggle(lenderID string, dimension ToggleDimension, value string, page pagination.PageRequest) (*SessionView, error)
	Clear(lenderID string, page pagination.PageRequest) (*SessionView, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
