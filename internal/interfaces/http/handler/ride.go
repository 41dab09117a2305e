package handler

import (
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RideHandler handles ride settlement API endpoints
type RideHandler struct {
	BaseHandler
	ridePaymentService *financeapp.RidePaymentService
}

// NewRideHandler creates a new RideHandler
func NewRideHandler(ridePaymentService *financeapp.RidePaymentService) *RideHandler {
	return &RideHandler{
		ridePaymentService: ridePaymentService,
	}
}

// ===================== Request/Response DTOs =====================

// RideCompletedRequest represents a completed ride to settle
//
//	@Description	Request body for settling a completed ride
type RideCompletedRequest struct {
	RideID        string  `json:"ride_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID      string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	PassengerID   string  `json:"passenger_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	Fare          float64 `json:"fare" binding:"required,gt=0" example:"42.50"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=CARD PIX CASH" example:"CARD"`
	CompletedAt   *string `json:"completed_at,omitempty" example:"2026-08-30T18:45:00Z"`
}

// CancellationFeeRequest represents a late-cancellation charge
//
//	@Description	Request body for charging a cancellation fee
type CancellationFeeRequest struct {
	RideID      string  `json:"ride_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID    string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	PassengerID string  `json:"passenger_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	Fee         float64 `json:"fee" binding:"required,gt=0" example:"7.00"`
}

// CommissionBreakdownResponse represents the fare split for a ride
//
//	@Description	Commission breakdown response
type CommissionBreakdownResponse struct {
	Gross         float64 `json:"gross" example:"42.50"`
	DriverShare   float64 `json:"driver_share" example:"34.00"`
	PlatformShare float64 `json:"platform_share" example:"8.50"`
	Rate          float64 `json:"rate" example:"0.20"`
}

// RideSettlementResponse represents the records created for one ride
//
//	@Description	Ride settlement response
type RideSettlementResponse struct {
	Breakdown      CommissionBreakdownResponse `json:"breakdown"`
	EarningEventID string                      `json:"earning_event_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	TransactionID  string                      `json:"transaction_id" example:"550e8400-e29b-41d4-a716-446655440004"`
	SettlementID   *string                     `json:"settlement_id,omitempty"`
	AlreadySettled bool                        `json:"already_settled" example:"false"`
}

// CashConfirmationResponse reports the settlement released for a cash ride
//
//	@Description	Cash confirmation response
type CashConfirmationResponse struct {
	SettlementID string     `json:"settlement_id" example:"550e8400-e29b-41d4-a716-446655440005"`
	Status       string     `json:"status" example:"COMPLETED"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// ===================== Handler Methods =====================

// CompleteRide godoc
//
//	@ID				completeRide
//	@Summary		Settle a completed ride
//	@Description	Records the ride's financial events, posts balanced journal entries, holds the driver share for settlement, and refreshes the wallet. Safe to retry: a ride already settled returns the original result.
//	@Tags			rides
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RideCompletedRequest	true	"Completed ride"
//	@Success		200		{object}	APIResponse[RideSettlementResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/rides/complete [post]
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req RideCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rideID, err := uuid.Parse(req.RideID)
	if err != nil {
		h.BadRequest(c, "Invalid ride ID")
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}
	passengerID, err := uuid.Parse(req.PassengerID)
	if err != nil {
		h.BadRequest(c, "Invalid passenger ID")
		return
	}

	completedAt := time.Now()
	if req.CompletedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.CompletedAt)
		if err != nil {
			h.BadRequest(c, "Invalid completed_at format. Expected RFC3339")
			return
		}
		completedAt = t
	}

	result, err := h.ridePaymentService.OnRideCompleted(c.Request.Context(), financeapp.RideCompletedRequest{
		RideID:        rideID,
		DriverID:      driverID,
		PassengerID:   passengerID,
		Fare:          valueobject.NewMoneyBRLFromFloat(req.Fare),
		PaymentMethod: financeapp.PaymentMethod(req.PaymentMethod),
		CompletedAt:   completedAt,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRideSettlementResponse(result))
}

// ChargeCancellationFee godoc
//
//	@ID				chargeCancellationFee
//	@Summary		Charge a cancellation fee
//	@Description	Charges the passenger for a late cancel. The driver receives the full fee, no commission is taken.
//	@Tags			rides
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CancellationFeeRequest	true	"Cancellation fee"
//	@Success		200		{object}	APIResponse[EventResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/rides/cancellation-fee [post]
func (h *RideHandler) ChargeCancellationFee(c *gin.Context) {
	var req CancellationFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rideID, err := uuid.Parse(req.RideID)
	if err != nil {
		h.BadRequest(c, "Invalid ride ID")
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}
	passengerID, err := uuid.Parse(req.PassengerID)
	if err != nil {
		h.BadRequest(c, "Invalid passenger ID")
		return
	}

	event, err := h.ridePaymentService.ChargeCancellationFee(c.Request.Context(), financeapp.CancellationFeeRequest{
		RideID:      rideID,
		DriverID:    driverID,
		PassengerID: passengerID,
		Fee:         valueobject.NewMoneyBRLFromFloat(req.Fee),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponse(event))
}

// ConfirmCashPayment godoc
//
//	@ID				confirmCashPayment
//	@Summary		Confirm a cash fare
//	@Description	Confirms the driver collected a cash fare in person and releases the settlement hold immediately instead of waiting for the scheduled sweep. Confirming the same ride twice is a no-op.
//	@Tags			rides
//	@Produce		json
//	@Param			id	path		string	true	"Ride ID"
//	@Success		200	{object}	APIResponse[CashConfirmationResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/rides/{id}/confirm-cash [post]
func (h *RideHandler) ConfirmCashPayment(c *gin.Context) {
	rideID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid ride ID")
		return
	}

	hold, err := h.ridePaymentService.OnCashConfirmed(c.Request.Context(), rideID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CashConfirmationResponse{
		SettlementID: hold.ID.String(),
		Status:       string(hold.Status),
		ProcessedAt:  hold.ProcessedAt,
	})
}

// ===================== Response Conversion Functions =====================

func toRideSettlementResponse(r *financeapp.RideSettlementResult) RideSettlementResponse {
	resp := RideSettlementResponse{
		Breakdown: CommissionBreakdownResponse{
			Gross:         r.Breakdown.Gross.Amount().InexactFloat64(),
			DriverShare:   r.Breakdown.DriverShare.Amount().InexactFloat64(),
			PlatformShare: r.Breakdown.PlatformShare.Amount().InexactFloat64(),
			Rate:          r.Breakdown.Rate.InexactFloat64(),
		},
		EarningEventID: r.EarningEventID.String(),
		TransactionID:  r.TransactionID.String(),
		AlreadySettled: r.AlreadySettled,
	}
	if r.SettlementID != nil {
		s := r.SettlementID.String()
		resp.SettlementID = &s
	}
	return resp
}
