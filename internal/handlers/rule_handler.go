package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
	"lendhub/internal/services"
)

// RuleHandler handles auto-invest rule requests.
type RuleHandler struct {
	ruleService  services.RuleServicer
	auditService services.AuditServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer, auditService services.AuditServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService, auditService: auditService}
}

// RuleRequest represents the payload for creating or replacing a rule.
type RuleRequest struct {
	Name                   string              `json:"name" binding:"required,min=1,max=100"`
	MaxInvestmentPerVendor decimal.Decimal     `json:"max_investment_per_vendor" binding:"gt=0"`
	MinMerchantScore       int                 `json:"min_merchant_score" binding:"min=0,max=900"`
	MaxMerchantScore       *int                `json:"max_merchant_score" binding:"omitempty,min=0,max=900"`
	MinLoanAmount          *decimal.Decimal    `json:"min_loan_amount" binding:"omitempty,gte=0"`
	MaxLoanAmount          *decimal.Decimal    `json:"max_loan_amount" binding:"omitempty,gte=0"`
	PreferredTerms         []int               `json:"preferred_terms" binding:"omitempty,dive,gt=0"`
	PreferredUseOfFunds    []models.UseOfFunds `json:"preferred_use_of_funds" binding:"omitempty,dive,use_of_funds"`
	PreferredCategories    []models.Category   `json:"preferred_categories" binding:"omitempty,dive,category"`
	MinTimeOnPlatform      *int                `json:"min_time_on_platform" binding:"omitempty,min=0"`
	MaxRiskLevel           models.RiskLevel    `json:"max_risk_level" binding:"omitempty,risk_level"`
	MinAvailableCapital    decimal.Decimal     `json:"min_available_capital" binding:"gte=0"`
	MaxDailyInvestments    *int                `json:"max_daily_investments" binding:"omitempty,gt=0"`
	MaxMonthlyInvestments  *int                `json:"max_monthly_investments" binding:"omitempty,gt=0"`
}

func (r RuleRequest) input() services.RuleInput {
	return services.RuleInput{
		Name:                   r.Name,
		MaxInvestmentPerVendor: r.MaxInvestmentPerVendor,
		MinMerchantScore:       r.MinMerchantScore,
		MaxMerchantScore:       r.MaxMerchantScore,
		MinLoanAmount:          r.MinLoanAmount,
		MaxLoanAmount:          r.MaxLoanAmount,
		PreferredTerms:         r.PreferredTerms,
		PreferredUseOfFunds:    r.PreferredUseOfFunds,
		PreferredCategories:    r.PreferredCategories,
		MinTimeOnPlatform:      r.MinTimeOnPlatform,
		MaxRiskLevel:           r.MaxRiskLevel,
		MinAvailableCapital:    r.MinAvailableCapital,
		MaxDailyInvestments:    r.MaxDailyInvestments,
		MaxMonthlyInvestments:  r.MaxMonthlyInvestments,
	}
}

// CreateRule handles creating an auto-invest rule.
// @Summary     Create an auto-invest rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Param       lenderID path string      true "Lender ID"
// @Param       request  body RuleRequest true "Rule criteria"
// @Success     201 {object} models.AutoInvestRule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input or rule"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(lenderID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lenderID, "CREATE_RULE", "auto_invest_rule", rule.ID, c.ClientIP(),
		map[string]any{"name": rule.Name, "max_investment_per_vendor": rule.MaxInvestmentPerVendor.String()})

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetRules handles listing a lender's rules.
// @Summary     List auto-invest rules
// @Tags        rules
// @Produce     json
// @Param       lenderID  path  string true  "Lender ID"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AutoInvestRule] "Paginated rules"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/rules [get]
func (h *RuleHandler) GetRules(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	isActive, err := parseOptionalBool(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ruleService.GetLenderRules(lenderID, page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRule handles retrieving one rule.
// @Summary     Get auto-invest rule
// @Tags        rules
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Param       id       path string true "Rule ID"
// @Success     200 {object} models.AutoInvestRule "Rule details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/rules/{id} [get]
func (h *RuleHandler) GetRule(c *gin.Context) {
	lenderID, ruleID, err := ruleIDs(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.GetRuleByID(lenderID, ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// UpdateRule handles replacing a rule's criteria. Running totals are kept.
// @Summary     Update auto-invest rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Param       lenderID path string      true "Lender ID"
// @Param       id       path string      true "Rule ID"
// @Param       request  body RuleRequest true "Rule criteria"
// @Success     200 {object} models.AutoInvestRule "Rule updated"
// @Failure     400 {object} ErrorResponse "Invalid input or rule"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	lenderID, ruleID, err := ruleIDs(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(lenderID, ruleID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lenderID, "UPDATE_RULE", "auto_invest_rule", rule.ID, c.ClientIP(),
		map[string]any{"name": rule.Name})

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// ActivateRule handles turning a rule on.
// @Summary     Activate auto-invest rule
// @Tags        rules
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Param       id       path string true "Rule ID"
// @Success     200 {object} models.AutoInvestRule "Rule activated"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /lenders/{lenderID}/rules/{id}/activate [post]
func (h *RuleHandler) ActivateRule(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateRule handles turning a rule off.
// @Summary     Deactivate auto-invest rule
// @Tags        rules
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Param       id       path string true "Rule ID"
// @Success     200 {object} models.AutoInvestRule "Rule deactivated"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /lenders/{lenderID}/rules/{id}/deactivate [post]
func (h *RuleHandler) DeactivateRule(c *gin.Context) {
	h.setActive(c, false)
}

func (h *RuleHandler) setActive(c *gin.Context, active bool) {
	lenderID, ruleID, err := ruleIDs(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.SetRuleActive(lenderID, ruleID, active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "DEACTIVATE_RULE"
	if active {
		action = "ACTIVATE_RULE"
	}
	h.auditService.Log(lenderID, action, "auto_invest_rule", rule.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// GetRuleMatches handles previewing the open opportunities a rule matches.
// @Summary     Preview rule matches
// @Description List open opportunities that satisfy every criterion of the rule
// @Tags        rules
// @Produce     json
// @Param       lenderID  path  string true  "Lender ID"
// @Param       id        path  string true  "Rule ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.OpportunityView] "Matching opportunities"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/rules/{id}/matches [get]
func (h *RuleHandler) GetRuleMatches(c *gin.Context) {
	lenderID, ruleID, err := ruleIDs(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ruleService.GetRuleMatches(lenderID, ruleID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func ruleIDs(c *gin.Context) (string, string, error) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		return "", "", err
	}
	ruleID, err := parsePathID(c, "id")
	if err != nil {
		return "", "", err
	}
	return lenderID, ruleID, nil
}
