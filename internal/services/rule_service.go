package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
)

// ruleService handles auto-invest rule management.
type ruleService struct {
	db                 *gorm.DB
	lenderService      LenderServicer
	opportunityService OpportunityServicer
	clock              Clock
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB, lenderService LenderServicer, opportunityService OpportunityServicer, clock Clock) RuleServicer {
	return &ruleService{
		db:                 db,
		lenderService:      lenderService,
		opportunityService: opportunityService,
		clock:              clock.orDefault(),
	}
}

// applyInput copies the editable criteria onto rule. Running totals are untouched.
func applyInput(rule *models.AutoInvestRule, input RuleInput) {
	rule.Name = strings.TrimSpace(input.Name)
	rule.MaxInvestmentPerVendor = input.MaxInvestmentPerVendor.Round(2)
	rule.MinMerchantScore = input.MinMerchantScore
	rule.MaxMerchantScore = input.MaxMerchantScore
	rule.MinLoanAmount = nullDecimal(input.MinLoanAmount)
	rule.MaxLoanAmount = nullDecimal(input.MaxLoanAmount)
	rule.PreferredTerms = input.PreferredTerms
	rule.PreferredUseOfFunds = input.PreferredUseOfFunds
	rule.PreferredCategories = input.PreferredCategories
	rule.MinTimeOnPlatform = input.MinTimeOnPlatform
	rule.MaxRiskLevel = input.MaxRiskLevel
	if rule.MaxRiskLevel == "" {
		rule.MaxRiskLevel = models.RiskHigh
	}
	rule.MinAvailableCapital = input.MinAvailableCapital.Round(2)
	rule.MaxDailyInvestments = input.MaxDailyInvestments
	rule.MaxMonthlyInvestments = input.MaxMonthlyInvestments
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// CreateRule validates and stores a new active rule for the lender.
func (s *ruleService) CreateRule(lenderID string, input RuleInput) (*models.AutoInvestRule, error) {
	if _, err := s.lenderService.GetLenderByID(lenderID); err != nil {
		return nil, err
	}

	rule := &models.AutoInvestRule{
		LenderID:      lenderID,
		IsActive:      true,
		TotalInvested: decimal.Zero,
	}
	applyInput(rule, input)
	if err := marketplace.ValidateRule(*rule); err != nil {
		return nil, err
	}

	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// GetLenderRules returns a paginated list of the lender's rules, oldest first.
func (s *ruleService) GetLenderRules(lenderID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AutoInvestRule], error) {
	page.Defaults()

	if _, err := s.lenderService.GetLenderByID(lenderID); err != nil {
		return nil, err
	}

	query := s.db.Model(&models.AutoInvestRule{}).Where("lender_id = ?", lenderID)
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rules []models.AutoInvestRule
	if err := query.Order("created_at ASC, id ASC").Scopes(pagination.Paginate(page)).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rules, page.Page, page.PageSize, total)
	return &result, nil
}

// GetRuleByID retrieves a rule, ensuring it belongs to the lender.
func (s *ruleService) GetRuleByID(lenderID, ruleID string) (*models.AutoInvestRule, error) {
	var rule models.AutoInvestRule
	if err := s.db.Where("id = ? AND lender_id = ?", ruleID, lenderID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule replaces the rule's criteria. Activity flag and totals are kept.
func (s *ruleService) UpdateRule(lenderID, ruleID string, input RuleInput) (*models.AutoInvestRule, error) {
	rule, err := s.GetRuleByID(lenderID, ruleID)
	if err != nil {
		return nil, err
	}

	applyInput(rule, input)
	if err := marketplace.ValidateRule(*rule); err != nil {
		return nil, err
	}

	if err := s.db.Save(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// SetRuleActive turns the rule on or off.
func (s *ruleService) SetRuleActive(lenderID, ruleID string, active bool) (*models.AutoInvestRule, error) {
	rule, err := s.GetRuleByID(lenderID, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(rule).Update("is_active", active).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	rule.IsActive = active
	return rule, nil
}

// GetRuleMatches returns the open opportunities the rule currently matches,
// ordered by the default sort mode.
func (s *ruleService) GetRuleMatches(lenderID, ruleID string, page pagination.PageRequest) (*pagination.PageResponse[OpportunityView], error) {
	page.Defaults()

	rule, err := s.GetRuleByID(lenderID, ruleID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.opportunityService.Catalog()
	if err != nil {
		return nil, err
	}

	now := s.clock()
	open := make([]models.Opportunity, 0, len(catalog))
	for _, o := range catalog {
		if marketplace.IsOpen(o, now) {
			open = append(open, o)
		}
	}
	matched := marketplace.Sort(marketplace.MatchingOpportunities(open, *rule), marketplace.DefaultSortMode)

	result := pagination.Slice(s.opportunityService.Views(matched), page)
	return &result, nil
}

// GetActiveRules returns the lender's active rules in creation order.
func (s *ruleService) GetActiveRules(lenderID string) ([]models.AutoInvestRule, error) {
	var rules []models.AutoInvestRule
	if err := s.db.Where("lender_id = ? AND is_active = ?", lenderID, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// SaveRuleTotals persists the rule's running totals using tx.
func (s *ruleService) SaveRuleTotals(tx *gorm.DB, rule models.AutoInvestRule) error {
	if err := tx.Model(&models.AutoInvestRule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]any{
			"total_invested":    rule.TotalInvested,
			"investment_count":  rule.InvestmentCount,
			"last_triggered_at": rule.LastTriggeredAt,
		}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
