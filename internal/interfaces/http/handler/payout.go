package handler

import (
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PayoutHandler handles driver payout API endpoints
type PayoutHandler struct {
	BaseHandler
	payoutService *financeapp.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(payoutService *financeapp.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

// ===================== Request/Response DTOs =====================

// RequestPayoutRequest represents a withdrawal request
//
//	@Description	Request body for requesting a payout
type RequestPayoutRequest struct {
	DriverID string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Amount   float64 `json:"amount" binding:"required,gt=0" example:"150.00"`
	PixKey   string  `json:"pix_key" binding:"required,pixkey" example:"driver@example.com"`
}

// PayoutResponse represents a payout in API responses
//
//	@Description	Payout response
type PayoutResponse struct {
	ID                    string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID              string     `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Amount                float64    `json:"amount" example:"150.00"`
	Currency              string     `json:"currency" example:"BRL"`
	Status                string     `json:"status" example:"PENDING"`
	Method                string     `json:"method" example:"PIX"`
	PixKey                string     `json:"pix_key" example:"driver@example.com"`
	Provider              string     `json:"provider,omitempty" example:"pix"`
	ProviderTransactionID *string    `json:"provider_transaction_id,omitempty"`
	FailureReason         string     `json:"failure_reason,omitempty"`
	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	FailedAt              *time.Time `json:"failed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// OutstandingPayoutsResponse represents the money tied up in in-flight payouts
//
//	@Description	Total of a driver's PENDING and PROCESSING payouts
type OutstandingPayoutsResponse struct {
	DriverID         string  `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	OutstandingTotal float64 `json:"outstanding_total" example:"150.00"`
}

// ===================== Handler Methods =====================

// RequestPayout godoc
//
//	@ID				requestPayout
//	@Summary		Request a payout
//	@Description	Reserves the requested amount from the driver's available balance and creates a PENDING payout
//	@Tags			payouts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RequestPayoutRequest	true	"Payout request"
//	@Success		201		{object}	APIResponse[PayoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/payouts [post]
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	p, err := h.payoutService.RequestPayout(c.Request.Context(), financeapp.RequestPayoutRequest{
		DriverID: driverID,
		Amount:   valueobject.NewMoneyBRLFromFloat(req.Amount),
		PixKey:   req.PixKey,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPayoutResponse(p))
}

// ExecutePayout godoc
//
//	@ID				executePayout
//	@Summary		Execute a payout
//	@Description	Sends a pending payout to the payment rail and records the outcome
//	@Tags			payouts
//	@Produce		json
//	@Param			id	path		string	true	"Payout ID"
//	@Success		200	{object}	APIResponse[PayoutResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Router			/payouts/{id}/execute [post]
func (h *PayoutHandler) ExecutePayout(c *gin.Context) {
	payoutID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid payout ID")
		return
	}

	p, err := h.payoutService.ExecutePayout(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPayoutResponse(p))
}

// GetPayout godoc
//
//	@ID				getPayout
//	@Summary		Get a payout
//	@Description	Returns a payout by ID
//	@Tags			payouts
//	@Produce		json
//	@Param			id	path		string	true	"Payout ID"
//	@Success		200	{object}	APIResponse[PayoutResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/payouts/{id} [get]
func (h *PayoutHandler) GetPayout(c *gin.Context) {
	payoutID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid payout ID")
		return
	}

	p, err := h.payoutService.GetPayout(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPayoutResponse(p))
}

// ListDriverPayouts godoc
//
//	@ID				listDriverPayouts
//	@Summary		List driver payouts
//	@Description	Returns the driver's payouts, newest first
//	@Tags			payouts
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]PayoutResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/payouts [get]
func (h *PayoutHandler) ListDriverPayouts(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := toDomainFilter(listReq)
	payouts, total, err := h.payoutService.ListDriverPayouts(c.Request.Context(), driverID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PayoutResponse, len(payouts))
	for i := range payouts {
		responses[i] = toPayoutResponse(&payouts[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// GetOutstandingPayouts godoc
//
//	@ID				getOutstandingPayouts
//	@Summary		Get outstanding payout total
//	@Description	Returns the total amount tied up in the driver's PENDING and PROCESSING payouts
//	@Tags			payouts
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Success		200			{object}	APIResponse[OutstandingPayoutsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/payouts/outstanding [get]
func (h *PayoutHandler) GetOutstandingPayouts(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	total, err := h.payoutService.OutstandingTotal(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, OutstandingPayoutsResponse{
		DriverID:         driverID.String(),
		OutstandingTotal: total.InexactFloat64(),
	})
}

// ===================== Response Conversion Functions =====================

func toPayoutResponse(p *payout.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                    p.ID.String(),
		DriverID:              p.DriverID.String(),
		Amount:                p.Amount.InexactFloat64(),
		Currency:              string(p.Currency),
		Status:                string(p.Status),
		Method:                string(p.Method),
		PixKey:                p.BankDetails.PixKey,
		Provider:              p.Provider,
		ProviderTransactionID: p.ProviderTransactionID,
		FailureReason:         p.FailureReason,
		ProcessingStartedAt:   p.ProcessingStartedAt,
		CompletedAt:           p.CompletedAt,
		FailedAt:              p.FailedAt,
		CreatedAt:             p.CreatedAt,
	}
}

// toDomainFilter converts list query parameters to a domain filter
func toDomainFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	return filter
}
