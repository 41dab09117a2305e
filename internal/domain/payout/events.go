package payout

import (
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PayoutRequestedEvent is raised when a driver requests a withdrawal
type PayoutRequestedEvent struct {
	shared.BaseDomainEvent
	PayoutID uuid.UUID       `json:"payout_id"`
	DriverID uuid.UUID       `json:"driver_id"`
	Amount   decimal.Decimal `json:"amount"`
	Method   Method          `json:"method"`
}

// EventType returns the event type name
func (e *PayoutRequestedEvent) EventType() string {
	return "PayoutRequested"
}

// NewPayoutRequestedEvent creates a new PayoutRequestedEvent
func NewPayoutRequestedEvent(p *Payout) *PayoutRequestedEvent {
	return &PayoutRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PayoutRequested", "Payout", p.ID),
		PayoutID:        p.ID,
		DriverID:        p.DriverID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PayoutCompletedEvent is raised when the rail confirms the transfer
type PayoutCompletedEvent struct {
	shared.BaseDomainEvent
	PayoutID              uuid.UUID       `json:"payout_id"`
	DriverID              uuid.UUID       `json:"driver_id"`
	Amount                decimal.Decimal `json:"amount"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
}

// EventType returns the event type name
func (e *PayoutCompletedEvent) EventType() string {
	return "PayoutCompleted"
}

// NewPayoutCompletedEvent creates a new PayoutCompletedEvent
func NewPayoutCompletedEvent(p *Payout) *PayoutCompletedEvent {
	txID := ""
	if p.ProviderTransactionID != nil {
		txID = *p.ProviderTransactionID
	}
	return &PayoutCompletedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent("PayoutCompleted", "Payout", p.ID),
		PayoutID:              p.ID,
		DriverID:              p.DriverID,
		Amount:                p.Amount,
		ProviderTransactionID: txID,
	}
}

// PayoutFailedEvent is raised when the rail rejects the transfer
type PayoutFailedEvent struct {
	shared.BaseDomainEvent
	PayoutID uuid.UUID       `json:"payout_id"`
	DriverID uuid.UUID       `json:"driver_id"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

// EventType returns the event type name
func (e *PayoutFailedEvent) EventType() string {
	return "PayoutFailed"
}

// NewPayoutFailedEvent creates a new PayoutFailedEvent
func NewPayoutFailedEvent(p *Payout, reason string) *PayoutFailedEvent {
	return &PayoutFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PayoutFailed", "Payout", p.ID),
		PayoutID:        p.ID,
		DriverID:        p.DriverID,
		Amount:          p.Amount,
		Reason:          reason,
	}
}
