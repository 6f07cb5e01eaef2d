package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/services"
	"lendhub/internal/uuid"
)

// InvestmentHandler handles manual investments and portfolio reads.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService, auditService: auditService}
}

// InvestRequest represents the request payload for a manual investment.
type InvestRequest struct {
	OpportunityID string          `json:"opportunity_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"gt=0"`
}

// Invest handles committing lender capital to an opportunity.
// @Summary     Invest in an opportunity
// @Description Commit capital within the opportunity's min/max bounds and remaining gap
// @Tags        investments
// @Accept      json
// @Produce     json
// @Param       lenderID path string        true "Lender ID"
// @Param       request  body InvestRequest true "Investment details"
// @Success     201 {object} models.Investment "Investment committed"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient capital"
// @Failure     404 {object} ErrorResponse "Lender or opportunity not found"
// @Failure     409 {object} ErrorResponse "Opportunity closed or over-funded"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/investments [post]
func (h *InvestmentHandler) Invest(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	opportunityID, err := uuid.Parse(req.OpportunityID)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid opportunity_id"))
		return
	}

	investment, err := h.investmentService.Invest(lenderID, opportunityID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lenderID, "INVEST", "investment", investment.ID, c.ClientIP(),
		map[string]any{"opportunity_id": opportunityID, "amount": investment.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"investment": investment})
}

// GetInvestments handles listing a lender's investments.
// @Summary     List investments
// @Tags        investments
// @Produce     json
// @Param       lenderID  path  string true  "Lender ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Investment] "Paginated investments"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/investments [get]
func (h *InvestmentHandler) GetInvestments(c *gin.Context) {
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

	result, err := h.investmentService.GetLenderInvestments(lenderID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolio handles the lender portfolio summary.
// @Summary     Get portfolio summary
// @Tags        investments
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Success     200 {object} services.PortfolioSummary "Portfolio summary"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/portfolio [get]
func (h *InvestmentHandler) GetPortfolio(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.investmentService.GetLenderPortfolio(lenderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": summary})
}
