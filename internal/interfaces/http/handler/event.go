package handler

import (
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler handles financial event API endpoints
type EventHandler struct {
	BaseHandler
	eventService *financeapp.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService *financeapp.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// ===================== Request/Response DTOs =====================

// CreateEventRequest represents a financial event to record
//
//	@Description	Request body for recording a financial event
type CreateEventRequest struct {
	EventType             string            `json:"event_type" binding:"required" example:"WALLET_DEPOSIT"`
	Amount                float64           `json:"amount" binding:"required" example:"100.00"`
	Description           string            `json:"description" example:"Driver deposit via app"`
	DriverID              *string           `json:"driver_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	PassengerID           *string           `json:"passenger_id,omitempty"`
	RideID                *string           `json:"ride_id,omitempty"`
	ExternalTransactionID string            `json:"external_transaction_id,omitempty" example:"dep-20260830-001"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// FailEventRequest represents a failure reason for an event
//
//	@Description	Request body for failing an event
type FailEventRequest struct {
	Reason string `json:"reason" binding:"required" example:"Card charge declined"`
}

// ReverseEventRequest represents a reversal reason for an event
//
//	@Description	Request body for reversing an event
type ReverseEventRequest struct {
	Reason string `json:"reason" binding:"required" example:"Passenger chargeback"`
}

// AdjustmentRequest represents a manual operator adjustment
//
//	@Description	Request body for a manual balance adjustment
type AdjustmentRequest struct {
	DriverID    string  `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"25.00"`
	Debit       bool    `json:"debit" example:"false"`
	Description string  `json:"description" binding:"required" example:"Goodwill credit after app outage"`
	OperatorRef string  `json:"operator_ref" binding:"required" example:"ticket-8841"`
}

// EventResponse represents a financial event in API responses
//
//	@Description	Financial event response
type EventResponse struct {
	ID                    string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventType             string            `json:"event_type" example:"RIDE_EARNING"`
	Status                string            `json:"status" example:"COMPLETED"`
	Amount                float64           `json:"amount" example:"34.00"`
	Currency              string            `json:"currency" example:"BRL"`
	Description           string            `json:"description,omitempty"`
	DriverID              *string           `json:"driver_id,omitempty"`
	PassengerID           *string           `json:"passenger_id,omitempty"`
	RideID                *string           `json:"ride_id,omitempty"`
	ExternalTransactionID *string           `json:"external_transaction_id,omitempty"`
	ReversesEventID       *string           `json:"reverses_event_id,omitempty"`
	ReversedByEventID     *string           `json:"reversed_by_event_id,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	FailedAt              *time.Time        `json:"failed_at,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// EventHistoryQuery represents event history filter parameters
//
//	@Description	Query parameters for driver event history
type EventHistoryQuery struct {
	dto.ListRequest
	EventType string `form:"event_type"`
	Status    string `form:"status"`
	RideID    string `form:"ride_id"`
	From      string `form:"from"` // RFC3339
	To        string `form:"to"`   // RFC3339
}

// ===================== Handler Methods =====================

// CreateEvent godoc
//
//	@ID				createFinancialEvent
//	@Summary		Record a financial event
//	@Description	Appends a PENDING event to the financial log. Duplicate external transaction IDs return the existing event.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateEventRequest	true	"Financial event"
//	@Success		201		{object}	APIResponse[EventResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	appReq := financeapp.CreateEventRequest{
		EventType:             ledger.EventType(req.EventType),
		Amount:                moneyFromFloat(req.Amount),
		Description:           req.Description,
		ExternalTransactionID: req.ExternalTransactionID,
		Metadata:              req.Metadata,
	}

	var err error
	if appReq.DriverID, err = parseOptionalUUID(req.DriverID); err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}
	if appReq.PassengerID, err = parseOptionalUUID(req.PassengerID); err != nil {
		h.BadRequest(c, "Invalid passenger ID")
		return
	}
	if appReq.RideID, err = parseOptionalUUID(req.RideID); err != nil {
		h.BadRequest(c, "Invalid ride ID")
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toEventResponse(event))
}

// GetEvent godoc
//
//	@ID				getFinancialEvent
//	@Summary		Get a financial event
//	@Description	Returns a financial event by ID
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	APIResponse[EventResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponse(event))
}

// CompleteEvent godoc
//
//	@ID				completeFinancialEvent
//	@Summary		Complete a financial event
//	@Description	Marks a PENDING event COMPLETED; its amount becomes visible in balances
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	APIResponse[EventResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/events/{id}/complete [post]
func (h *EventHandler) CompleteEvent(c *gin.Context) {
	eventID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := h.eventService.CompleteEvent(c.Request.Context(), eventID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponse(event))
}

// FailEvent godoc
//
//	@ID				failFinancialEvent
//	@Summary		Fail a financial event
//	@Description	Marks a PENDING event FAILED with a reason; it never affects balances
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Event ID"
//	@Param			request	body		FailEventRequest	true	"Failure reason"
//	@Success		200		{object}	APIResponse[EventResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/events/{id}/fail [post]
func (h *EventHandler) FailEvent(c *gin.Context) {
	eventID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	var req FailEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.eventService.FailEvent(c.Request.Context(), eventID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponse(event))
}

// ReverseEvent godoc
//
//	@ID				reverseFinancialEvent
//	@Summary		Reverse a financial event
//	@Description	Creates a compensating REVERSAL event for a COMPLETED event. The original is never modified.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Event ID"
//	@Param			request	body		ReverseEventRequest	true	"Reversal reason"
//	@Success		200		{object}	APIResponse[EventResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/events/{id}/reverse [post]
func (h *EventHandler) ReverseEvent(c *gin.Context) {
	eventID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	var req ReverseEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reversal, err := h.eventService.ReverseEvent(c.Request.Context(), eventID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponse(reversal))
}

// ApplyAdjustment godoc
//
//	@ID				applyAdjustment
//	@Summary		Apply a manual adjustment
//	@Description	Records an operator-initiated debit or credit against a driver's balance
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AdjustmentRequest	true	"Adjustment"
//	@Success		201		{object}	APIResponse[EventResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/adjustments [post]
func (h *EventHandler) ApplyAdjustment(c *gin.Context) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	event, err := h.eventService.ApplyAdjustment(c.Request.Context(), financeapp.AdjustmentRequest{
		DriverID:    driverID,
		Amount:      moneyFromFloat(req.Amount),
		Debit:       req.Debit,
		Description: req.Description,
		OperatorRef: req.OperatorRef,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toEventResponse(event))
}

// GetDriverHistory godoc
//
//	@ID				getDriverEventHistory
//	@Summary		Get driver event history
//	@Description	Returns the driver's financial events, filtered and paginated
//	@Tags			events
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Param			event_type	query		string	false	"Filter by event type"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			ride_id		query		string	false	"Filter by ride"
//	@Param			from		query		string	false	"Created-at range start (RFC3339)"
//	@Param			to			query		string	false	"Created-at range end (RFC3339)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]EventResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/events [get]
func (h *EventHandler) GetDriverHistory(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	query := EventHistoryQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := toEventFilter(query)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	events, total, err := h.eventService.GetDriverHistory(c.Request.Context(), driverID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = toEventResponse(&events[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ===================== Response Conversion Functions =====================

func toEventResponse(e *ledger.FinancialEvent) EventResponse {
	return EventResponse{
		ID:                    e.ID.String(),
		EventType:             string(e.EventType),
		Status:                string(e.Status),
		Amount:                e.Amount.InexactFloat64(),
		Currency:              string(e.Currency),
		Description:           e.Description,
		DriverID:              uuidPtrToString(e.DriverID),
		PassengerID:           uuidPtrToString(e.PassengerID),
		RideID:                uuidPtrToString(e.RideID),
		ExternalTransactionID: e.ExternalTransactionID,
		ReversesEventID:       uuidPtrToString(e.ReversesEventID),
		ReversedByEventID:     uuidPtrToString(e.ReversedByEventID),
		Metadata:              e.Metadata,
		CompletedAt:           e.CompletedAt,
		FailedAt:              e.FailedAt,
		FailureReason:         e.FailureReason,
		CreatedAt:             e.CreatedAt,
	}
}

func toEventFilter(query EventHistoryQuery) (ledger.FinancialEventFilter, error) {
	filter := ledger.FinancialEventFilter{Filter: toDomainFilter(query.ListRequest)}

	if query.EventType != "" {
		et := ledger.EventType(query.EventType)
		filter.EventType = &et
	}
	if query.Status != "" {
		st := ledger.EventStatus(query.Status)
		filter.Status = &st
	}
	if query.RideID != "" {
		rideID, err := uuid.Parse(query.RideID)
		if err != nil {
			return filter, err
		}
		filter.RideID = &rideID
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &to
	}

	return filter, nil
}
