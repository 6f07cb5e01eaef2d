package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lendhub/internal/errors"
	"lendhub/internal/services"
)

// MarketHandler handles marketplace history requests.
type MarketHandler struct {
	snapshotService services.MarketSnapshotServicer
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(snapshotService services.MarketSnapshotServicer) *MarketHandler {
	return &MarketHandler{snapshotService: snapshotService}
}

// SnapshotQuery holds the optional time bounds of a history query.
type SnapshotQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// GetSnapshots handles listing recorded market snapshots.
// @Summary     Market history
// @Description List periodic marketplace snapshots, oldest first
// @Tags        market
// @Produce     json
// @Param       from      query string false "Start time (RFC3339)"
// @Param       to        query string false "End time (RFC3339)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.MarketSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /market/snapshots [get]
func (h *MarketHandler) GetSnapshots(c *gin.Context) {
	var q SnapshotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from"))
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.snapshotService.GetSnapshots(q.From, q.To, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
