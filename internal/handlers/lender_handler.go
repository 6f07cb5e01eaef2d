package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/models"
	"lendhub/internal/services"
)

// LenderHandler handles lender wallet requests.
type LenderHandler struct {
	lenderService services.LenderServicer
	auditService  services.AuditServicer
}

// NewLenderHandler creates a new LenderHandler.
func NewLenderHandler(lenderService services.LenderServicer, auditService services.AuditServicer) *LenderHandler {
	return &LenderHandler{lenderService: lenderService, auditService: auditService}
}

// CreateLenderRequest represents the request payload for registering a lender.
type CreateLenderRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=100"`
	Email          string          `json:"email" binding:"required,email"`
	InitialCapital decimal.Decimal `json:"initial_capital" binding:"gte=0"`
}

// CapitalRequest represents a deposit or withdrawal.
type CapitalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"gt=0"`
}

// CreateLender handles lender registration.
// @Summary     Register a lender
// @Description Create a lender wallet with optional starting capital
// @Tags        lenders
// @Accept      json
// @Produce     json
// @Param       request body CreateLenderRequest true "Lender details"
// @Success     201 {object} models.Lender "Lender created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders [post]
func (h *LenderHandler) CreateLender(c *gin.Context) {
	var req CreateLenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	lender, err := h.lenderService.CreateLender(req.Name, req.Email, req.InitialCapital)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lender.ID, "CREATE_LENDER", "lender", lender.ID, c.ClientIP(),
		map[string]any{"email": lender.Email, "initial_capital": lender.AvailableCapital.String()})

	c.JSON(http.StatusCreated, gin.H{"lender": lender})
}

// GetLender handles retrieving a lender.
// @Summary     Get lender by ID
// @Tags        lenders
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Success     200 {object} models.Lender "Lender details"
// @Failure     400 {object} ErrorResponse "Invalid lender ID"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID} [get]
func (h *LenderHandler) GetLender(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	lender, err := h.lenderService.GetLenderByID(lenderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lender": lender})
}

// Deposit handles adding capital to a lender's wallet.
// @Summary     Deposit capital
// @Tags        lenders
// @Accept      json
// @Produce     json
// @Param       lenderID path string         true "Lender ID"
// @Param       request  body CapitalRequest true "Amount to deposit"
// @Success     200 {object} models.Lender "Updated lender"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/deposit [post]
func (h *LenderHandler) Deposit(c *gin.Context) {
	h.moveCapital(c, "DEPOSIT", h.lenderService.Deposit)
}

// Withdraw handles removing uncommitted capital from a lender's wallet.
// @Summary     Withdraw capital
// @Tags        lenders
// @Accept      json
// @Produce     json
// @Param       lenderID path string         true "Lender ID"
// @Param       request  body CapitalRequest true "Amount to withdraw"
// @Success     200 {object} models.Lender "Updated lender"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient capital"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/withdraw [post]
func (h *LenderHandler) Withdraw(c *gin.Context) {
	h.moveCapital(c, "WITHDRAW", h.lenderService.Withdraw)
}

func (h *LenderHandler) moveCapital(c *gin.Context, action string, fn func(string, decimal.Decimal) (*models.Lender, error)) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CapitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	lender, err := fn(lenderID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lenderID, action, "lender", lenderID, c.ClientIP(),
		map[string]any{"amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"lender": lender})
}
