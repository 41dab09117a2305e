package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SettlementScheduledEvent is raised when a D+N hold is created
type SettlementScheduledEvent struct {
	shared.BaseDomainEvent
	SettlementID     uuid.UUID       `json:"settlement_id"`
	FinancialEventID uuid.UUID       `json:"financial_event_id"`
	DriverID         uuid.UUID       `json:"driver_id"`
	Amount           decimal.Decimal `json:"amount"`
	ScheduledFor     time.Time       `json:"scheduled_for"`
}

// EventType returns the event type name
func (e *SettlementScheduledEvent) EventType() string {
	return "SettlementScheduled"
}

// NewSettlementScheduledEvent creates a new SettlementScheduledEvent
func NewSettlementScheduledEvent(s *Settlement) *SettlementScheduledEvent {
	return &SettlementScheduledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("SettlementScheduled", "Settlement", s.ID),
		SettlementID:     s.ID,
		FinancialEventID: s.FinancialEventID,
		DriverID:         s.DriverID,
		Amount:           s.Amount,
		ScheduledFor:     s.ScheduledFor,
	}
}

// SettlementReleasedEvent is raised when a hold is released to available
type SettlementReleasedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	DriverID     uuid.UUID       `json:"driver_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *SettlementReleasedEvent) EventType() string {
	return "SettlementReleased"
}

// NewSettlementReleasedEvent creates a new SettlementReleasedEvent
func NewSettlementReleasedEvent(s *Settlement) *SettlementReleasedEvent {
	return &SettlementReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementReleased", "Settlement", s.ID),
		SettlementID:    s.ID,
		DriverID:        s.DriverID,
		Amount:          s.Amount,
	}
}

// SettlementCancelledEvent is raised when a hold is cancelled before release
type SettlementCancelledEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	DriverID     uuid.UUID       `json:"driver_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *SettlementCancelledEvent) EventType() string {
	return "SettlementCancelled"
}

// NewSettlementCancelledEvent creates a new SettlementCancelledEvent
func NewSettlementCancelledEvent(s *Settlement) *SettlementCancelledEvent {
	return &SettlementCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SettlementCancelled", "Settlement", s.ID),
		SettlementID:    s.ID,
		DriverID:        s.DriverID,
		Amount:          s.Amount,
	}
}
