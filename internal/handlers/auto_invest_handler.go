package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lendhub/internal/services"
)

// AutoInvestHandler handles on-demand auto-invest sweeps.
type AutoInvestHandler struct {
	autoInvestService services.AutoInvestServicer
	auditService      services.AuditServicer
}

// NewAutoInvestHandler creates a new AutoInvestHandler.
func NewAutoInvestHandler(autoInvestService services.AutoInvestServicer, auditService services.AuditServicer) *AutoInvestHandler {
	return &AutoInvestHandler{autoInvestService: autoInvestService, auditService: auditService}
}

// RunAutoInvest handles running a lender's active rules against the open catalog.
// @Summary     Run auto-invest
// @Description Evaluate the lender's active rules and commit capital to matches
// @Tags        rules
// @Produce     json
// @Param       lenderID path string true "Lender ID"
// @Success     200 {object} services.SweepResult "Sweep result"
// @Failure     400 {object} ErrorResponse "Invalid lender ID or inactive lender"
// @Failure     404 {object} ErrorResponse "Lender not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /lenders/{lenderID}/auto-invest/run [post]
func (h *AutoInvestHandler) RunAutoInvest(c *gin.Context) {
	lenderID, err := parsePathID(c, "lenderID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.autoInvestService.RunForLender(c.Request.Context(), lenderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(lenderID, "RUN_AUTO_INVEST", "lender", lenderID, c.ClientIP(),
		map[string]any{"investments": len(result.Investments), "total_invested": result.TotalInvested.String()})

	c.JSON(http.StatusOK, gin.H{"result": result})
}
