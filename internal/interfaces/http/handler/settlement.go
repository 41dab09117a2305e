package handler

import (
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// SettlementHandler handles settlement API endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *financeapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *financeapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// ===================== Request/Response DTOs =====================

// ReleaseDueResponse reports a manual settlement sweep
//
//	@Description	Settlement sweep response
type ReleaseDueResponse struct {
	Released int       `json:"released" example:"17"`
	SweptAt  time.Time `json:"swept_at"`
}

// ===================== Handler Methods =====================

// ReleaseDue godoc
//
//	@ID				releaseDueSettlements
//	@Summary		Release due settlements
//	@Description	Releases every settlement hold whose D+N date has passed. The background sweep does this on a schedule; this endpoint runs one sweep on demand.
//	@Tags			settlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[ReleaseDueResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/settlements/release-due [post]
func (h *SettlementHandler) ReleaseDue(c *gin.Context) {
	now := time.Now()
	released, err := h.settlementService.ReleaseDue(c.Request.Context(), now)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ReleaseDueResponse{Released: released, SweptAt: now})
}

// ReleaseNow godoc
//
//	@ID				releaseSettlementNow
//	@Summary		Release one settlement early
//	@Description	Releases a single pending settlement hold before its scheduled date
//	@Tags			settlements
//	@Produce		json
//	@Param			id	path	string	true	"Settlement ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/settlements/{id}/release [post]
func (h *SettlementHandler) ReleaseNow(c *gin.Context) {
	settlementID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID")
		return
	}

	if err := h.settlementService.ReleaseNow(c.Request.Context(), settlementID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
