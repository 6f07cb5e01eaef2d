package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/marketplace"
	"lendhub/internal/models"
	"lendhub/internal/pagination"
	"lendhub/internal/services"
)

// ViewHandler handles a lender's interactive query session.
type ViewHandler struct {
	sessionService services.QuerySessionServicer
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(sessionService services.QuerySessionServicer) *ViewHandler {
	return &ViewHandler{sessionService: sessionService}
}

// ViewStateRequest replaces the whole filter state of a session.
type ViewStateRequest struct {
	Search            string                     `json:"search" binding:"max=200"`
	MinScore          *int                       `json:"min_score" binding:"omitempty,min=0,max=900"`
	MaxScore          *int                       `json:"max_score" binding:"omitempty,min=0,max=900"`
	MinAmount         *decimal.Decimal           `json:"min_amount" binding:"omitempty,gte=0"`
	MaxAmount         *decimal.Decimal           `json:"max_amount" binding:"omitempty,gte=0"`
	Terms             []int                      `json:"terms" binding:"omitempty,dive,gt=0"`
	UseOfFunds        []models.UseOfFunds        `json:"use_of_funds" binding:"omitempty,dive,use_of_funds"`
	Categories        []models.Category          `json:"categories" binding:"omitempty,dive,category"`
	MinTimeOnPlatform int                        `json:"min_time_on_platform" binding:"min=0"`
	Statuses          []models.OpportunityStatus `json:"statuses" binding:"omitempty,dive,opportunity_status"`
	RiskLevels        []models.RiskLevel         `json:"risk_levels" binding:"omitempty,dive,risk_level"`
	Sort              string                     `json:"sort" binding:"omitempty,sort_mode"`
	View              string                     `json:"view" binding:"omitempty,view_mode"`
}

// ToggleRequest flips one value of a set-valued filter dimension.
type ToggleRequest struct {
	Dimension services.ToggleDimension `json:"dimension" binding:"required,oneof=term category use_of_funds status risk_level"`
	Value     string                   `json:"value" binding:"required"`
}

// GetView handles reading the session's current state and results.
// @Summary     Get query session
// @Tags        view
// @Produce     json
// @Param       lenderID  path  string true  "Lender ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} services.SessionView "Session state, results and stats"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/view [get]
func (h *ViewHandler) GetView(c *gin.Context) {
	h.respond(c, func(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
		return h.sessionService.GetView(lenderID, page)
	})
}

// ReplaceView handles replacing the session's filter state.
// @Summary     Replace query session state
// @Tags        view
// @Accept      json
// @Produce     json
// @Param       lenderID path string           true "Lender ID"
// @Param       request  body ViewStateRequest true "Filter state"
// @Success     200 {object} services.SessionView "Session state, results and stats"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/view [put]
func (h *ViewHandler) ReplaceView(c *gin.Context) {
	var req ViewStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	state := marketplace.FilterState{
		Search:            req.Search,
		MinScore:          req.MinScore,
		MaxScore:          req.MaxScore,
		MinAmount:         req.MinAmount,
		MaxAmount:         req.MaxAmount,
		Terms:             req.Terms,
		UseOfFunds:        req.UseOfFunds,
		Categories:        req.Categories,
		MinTimeOnPlatform: req.MinTimeOnPlatform,
		Statuses:          req.Statuses,
		RiskLevels:        req.RiskLevels,
		Sort:              marketplace.SortMode(req.Sort),
		View:              marketplace.ViewMode(req.View),
	}
	h.respond(c, func(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
		return h.sessionService.ReplaceState(lenderID, state, page)
	})
}

// ToggleFilter handles flipping one value in a set-valued filter.
// @Summary     Toggle a filter value
// @Tags        view
// @Accept      json
// @Produce     json
// @Param       lenderID path string        true "Lender ID"
// @Param       request  body ToggleRequest true "Dimension and value"
// @Success     200 {object} services.SessionView "Session state, results and stats"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/view/toggle [post]
func (h *ViewHandler) ToggleFilter(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.respond(c, func(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
		return h.sessionService.Toggle(lenderID, req.Dimension, req.Value, page)
	})
}

// ClearView handles resetting every filter. Sort and view mode are kept.
// @Summary     Clear query session filters
// @Tags        view
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Success     200 {object} services.SessionView "Session state, results and stats"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/view [delete]
func (h *ViewHandler) ClearView(c *gin.Context) {
	h.respond(c, func(lenderID string, page pagination.PageRequest) (*services.SessionView, error) {
		return h.sessionService.Clear(lenderID, page)
	})
}

func (h *ViewHandler) respond(c *gin.Context, fn func(string, pagination.PageRequest) (*services.SessionView, error)) {
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

	view, err := fn(lenderID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
