package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/services"
)

// OpportunityHandler handles opportunity catalog requests.
type OpportunityHandler struct {
	opportunityService services.OpportunityServicer
	auditService       services.AuditServicer
}

// NewOpportunityHandler creates a new OpportunityHandler.
func NewOpportunityHandler(opportunityService services.OpportunityServicer, auditService services.AuditServicer) *OpportunityHandler {
	return &OpportunityHandler{opportunityService: opportunityService, auditService: auditService}
}

// CreateOpportunityRequest represents the request payload for listing an opportunity.
type CreateOpportunityRequest struct {
	VendorID           string            `json:"vendor_id" binding:"required,max=64"`
	VendorName         string            `json:"vendor_name" binding:"required,max=200"`
	Category           models.Category   `json:"category" binding:"required,category"`
	MerchantScore      int               `json:"merchant_score" binding:"required,min=300,max=900"`
	RequestedAmount    decimal.Decimal   `json:"requested_amount" binding:"gt=0"`
	FundedAmount       decimal.Decimal   `json:"funded_amount" binding:"gte=0"`
	MinInvestment      decimal.Decimal   `json:"min_investment" binding:"gt=0"`
	MaxInvestment      decimal.Decimal   `json:"max_investment" binding:"gt=0"`
	TermMonths         int               `json:"term_months" binding:"required,gt=0"`
	APR                float64           `json:"apr" binding:"gte=0"`
	UseOfFunds         models.UseOfFunds `json:"use_of_funds" binding:"required,use_of_funds"`
	TimeOnPlatform     int               `json:"time_on_platform" binding:"gte=0"`
	TotalRevenue       decimal.Decimal   `json:"total_revenue" binding:"gte=0"`
	MonthlyRevenue     decimal.Decimal   `json:"monthly_revenue" binding:"gte=0"`
	RepaidLoans        int               `json:"repaid_loans" binding:"gte=0"`
	ListedDate         *time.Time        `json:"listed_date"`
	ExpiryDate         time.Time         `json:"expiry_date" binding:"required"`
	RiskLevel          models.RiskLevel  `json:"risk_level" binding:"required,risk_level"`
	DefaultProbability float64           `json:"default_probability" binding:"gte=0,lte=100"`
	Description        string            `json:"description" binding:"max=2000"`
}

// OpportunityQuery holds the filter and sort query parameters. Set-valued
// dimensions are repeated parameters, e.g. ?category=fashion&category=electronics.
type OpportunityQuery struct {
	Search            string   `form:"search" binding:"omitempty,max=200"`
	MinScore          *int     `form:"min_score" binding:"omitempty,min=0,max=900"`
	MaxScore          *int     `form:"max_score" binding:"omitempty,min=0,max=900"`
	MinAmount         string   `form:"min_amount"`
	MaxAmount         string   `form:"max_amount"`
	Terms             []int    `form:"term" binding:"omitempty,dive,gt=0"`
	UseOfFunds        []string `form:"use_of_funds" binding:"omitempty,dive,use_of_funds"`
	Categories        []string `form:"category" binding:"omitempty,dive,category"`
	MinTimeOnPlatform int      `form:"min_time_on_platform" binding:"omitempty,min=0"`
	Statuses          []string `form:"status" binding:"omitempty,dive,opportunity_status"`
	RiskLevels        []string `form:"risk_level" binding:"omitempty,dive,risk_level"`
	Sort              string   `form:"sort" binding:"omitempty,sort_mode"`
	View              string   `form:"view" binding:"omitempty,view_mode"`
}

// FilterState converts the query into an engine filter state.
func (q OpportunityQuery) FilterState() (marketplace.FilterState, error) {
	minAmount, err := parseAmount("min_amount", q.MinAmount)
	if err != nil {
		return marketplace.FilterState{}, err
	}
	maxAmount, err := parseAmount("max_amount", q.MaxAmount)
	if err != nil {
		return marketplace.FilterState{}, err
	}

	state := marketplace.FilterState{
		Search:            q.Search,
		MinScore:          q.MinScore,
		MaxScore:          q.MaxScore,
		MinAmount:         minAmount,
		MaxAmount:         maxAmount,
		Terms:             q.Terms,
		MinTimeOnPlatform: q.MinTimeOnPlatform,
		Sort:              marketplace.SortMode(q.Sort),
		View:              marketplace.ViewMode(q.View),
	}
	for _, u := range q.UseOfFunds {
		state.UseOfFunds = append(state.UseOfFunds, models.UseOfFunds(u))
	}
	for _, c := range q.Categories {
		state.Categories = append(state.Categories, models.Category(c))
	}
	for _, s := range q.Statuses {
		state.Statuses = append(state.Statuses, models.OpportunityStatus(s))
	}
	for _, r := range q.RiskLevels {
		state.RiskLevels = append(state.RiskLevels, models.RiskLevel(r))
	}
	return state, nil
}

func parseAmount(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be a non-negative amount")
	}
	return &d, nil
}

func bindOpportunityQuery(c *gin.Context) (marketplace.FilterState, error) {
	var q OpportunityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return marketplace.FilterState{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return q.FilterState()
}

// CreateOpportunity handles listing a new opportunity.
// @Summary     List an opportunity
// @Description Validate and list a vendor's financing request
// @Tags        opportunities
// @Accept      json
// @Produce     json
// @Param       request body CreateOpportunityRequest true "Opportunity details"
// @Success     201 {object} models.Opportunity "Opportunity listed"
// @Failure     400 {object} ErrorResponse "Invalid input or opportunity"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /opportunities [post]
func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	var req CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	o := &models.Opportunity{
		VendorID:           req.VendorID,
		VendorName:         req.VendorName,
		Category:           req.Category,
		MerchantScore:      req.MerchantScore,
		RequestedAmount:    req.RequestedAmount,
		FundedAmount:       req.FundedAmount,
		MinInvestment:      req.MinInvestment,
		MaxInvestment:      req.MaxInvestment,
		TermMonths:         req.TermMonths,
		APR:                req.APR,
		UseOfFunds:         req.UseOfFunds,
		TimeOnPlatform:     req.TimeOnPlatform,
		TotalRevenue:       req.TotalRevenue,
		MonthlyRevenue:     req.MonthlyRevenue,
		RepaidLoans:        req.RepaidLoans,
		ExpiryDate:         req.ExpiryDate,
		RiskLevel:          req.RiskLevel,
		DefaultProbability: req.DefaultProbability,
		Description:        req.Description,
	}
	if req.ListedDate != nil {
		o.ListedDate = *req.ListedDate
	}

	created, err := h.opportunityService.CreateOpportunity(o)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(created.VendorID, "CREATE_OPPORTUNITY", "opportunity", created.ID, c.ClientIP(),
		map[string]any{"requested_amount": created.RequestedAmount.String(), "category": created.Category})

	c.JSON(http.StatusCreated, gin.H{"opportunity": created})
}

// ListOpportunities handles filtered, sorted catalog queries.
// @Summary     List opportunities
// @Description Filter and sort the catalog. Empty filters match everything.
// @Tags        opportunities
// @Produce     json
// @Param       search               query string   false "Case-insensitive search over vendor name, category label and use-of-funds label"
// @Param       min_score            query int      false "Minimum merchant score"
// @Param       max_score            query int      false "Maximum merchant score"
// @Param       min_amount           query string   false "Minimum requested amount"
// @Param       max_amount           query string   false "Maximum requested amount"
// @Param       term                 query []int    false "Allowed terms in months" collectionFormat(multi)
// @Param       use_of_funds         query []string false "Allowed uses of funds" collectionFormat(multi)
// @Param       category             query []string false "Allowed categories" collectionFormat(multi)
// @Param       min_time_on_platform query int      false "Minimum months on platform"
// @Param       status               query []string false "Allowed statuses" collectionFormat(multi)
// @Param       risk_level           query []string false "Allowed risk levels" collectionFormat(multi)
// @Param       sort                 query string   false "Sort mode (default score-desc)"
// @Param       page                 query int      false "Page number (default 1)"
// @Param       page_size            query int      false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.OpportunityView] "Paginated opportunities"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /opportunities [get]
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	state, err := bindOpportunityQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.opportunityService.ListOpportunities(state, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOpportunity handles retrieving one opportunity with its metrics.
// @Summary     Get opportunity by ID
// @Description Get an opportunity and its derived metrics. Counts as a view.
// @Tags        opportunities
// @Produce     json
// @Param       id path string true "Opportunity ID"
// @Success     200 {object} services.OpportunityView "Opportunity details"
// @Failure     400 {object} ErrorResponse "Invalid opportunity ID"
// @Failure     404 {object} ErrorResponse "Opportunity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /opportunities/{id} [get]
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.opportunityService.ViewOpportunity(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": view})
}

// RecordInterest handles a lender flagging interest in an opportunity.
// @Summary     Register interest
// @Description Increment the opportunity's interested investor count
// @Tags        opportunities
// @Produce     json
// @Param       id path string true "Opportunity ID"
// @Success     200 {object} services.OpportunityView "Updated opportunity"
// @Failure     400 {object} ErrorResponse "Invalid opportunity ID"
// @Failure     404 {object} ErrorResponse "Opportunity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /opportunities/{id}/interest [post]
func (h *OpportunityHandler) RecordInterest(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.opportunityService.RecordInterest(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": view})
}

// GetMarketplaceStats handles marketplace summary requests.
// @Summary     Marketplace stats
// @Description Aggregate the filtered view (default) or the whole catalog
// @Tags        opportunities
// @Produce     json
// @Param       lender_id query string false "Report this lender's available capital instead of the market total"
// @Param       scope     query string false "filtered or catalog"
// @Success     200 {object} marketplace.MarketplaceStats "Marketplace stats"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /opportunities/stats [get]
func (h *OpportunityHandler) GetMarketplaceStats(c *gin.Context) {
	state, err := bindOpportunityQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope := services.StatsScope(c.DefaultQuery("scope", string(services.StatsScopeFiltered)))
	if scope != services.StatsScopeFiltered && scope != services.StatsScopeCatalog {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "scope must be 'filtered' or 'catalog'"))
		return
	}

	lenderID := c.Query("lender_id")
	if lenderID != "" {
		if lenderID, err = parseQueryID(lenderID, "lender_id"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	stats, err := h.opportunityService.GetMarketplaceStats(lenderID, state, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
