package ledger

import (
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountOpenedEvent is raised when a new account is added to the chart
type AccountOpenedEvent struct {
	shared.BaseDomainEvent
	AccountID   uuid.UUID   `json:"account_id"`
	AccountCode string      `json:"account_code"`
	AccountType AccountType `json:"account_type"`
}

// EventType returns the event type name
func (e *AccountOpenedEvent) EventType() string {
	return "AccountOpened"
}

// NewAccountOpenedEvent creates a new AccountOpenedEvent
func NewAccountOpenedEvent(a *Account) *AccountOpenedEvent {
	return &AccountOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AccountOpened", "Account", a.ID),
		AccountID:       a.ID,
		AccountCode:     a.Code,
		AccountType:     a.Type,
	}
}

// JournalPostedEvent is raised when a balanced group of entries is posted
type JournalPostedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	EntryCount    int             `json:"entry_count"`
	TotalDebits   decimal.Decimal `json:"total_debits"`
}

// EventType returns the event type name
func (e *JournalPostedEvent) EventType() string {
	return "JournalPosted"
}

// NewJournalPostedEvent creates a new JournalPostedEvent
func NewJournalPostedEvent(transactionID uuid.UUID, entryCount int, totalDebits decimal.Decimal) *JournalPostedEvent {
	return &JournalPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalPosted", "JournalTransaction", transactionID),
		TransactionID:   transactionID,
		EntryCount:      entryCount,
		TotalDebits:     totalDebits,
	}
}

// FinancialEventCompletedEvent is raised when an event reaches COMPLETED
type FinancialEventCompletedEvent struct {
	shared.BaseDomainEvent
	FinancialEventID uuid.UUID       `json:"financial_event_id"`
	FinancialType    EventType       `json:"financial_type"`
	Amount           decimal.Decimal `json:"amount"`
	DriverID         *uuid.UUID      `json:"driver_id,omitempty"`
	PassengerID      *uuid.UUID      `json:"passenger_id,omitempty"`
}

// EventType returns the event type name
func (e *FinancialEventCompletedEvent) EventType() string {
	return "FinancialEventCompleted"
}

// NewFinancialEventCompletedEvent creates a new FinancialEventCompletedEvent
func NewFinancialEventCompletedEvent(fe *FinancialEvent) *FinancialEventCompletedEvent {
	return &FinancialEventCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("FinancialEventCompleted", "FinancialEvent", fe.ID),
		FinancialEventID: fe.ID,
		FinancialType:    fe.EventType,
		Amount:           fe.Amount,
		DriverID:         fe.DriverID,
		PassengerID:      fe.PassengerID,
	}
}

// FinancialEventFailedEvent is raised when an event reaches FAILED
type FinancialEventFailedEvent struct {
	shared.BaseDomainEvent
	FinancialEventID uuid.UUID `json:"financial_event_id"`
	FinancialType    EventType `json:"financial_type"`
	Reason           string    `json:"reason"`
}

// EventType returns the event type name
func (e *FinancialEventFailedEvent) EventType() string {
	return "FinancialEventFailed"
}

// NewFinancialEventFailedEvent creates a new FinancialEventFailedEvent
func NewFinancialEventFailedEvent(fe *FinancialEvent, reason string) *FinancialEventFailedEvent {
	return &FinancialEventFailedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("FinancialEventFailed", "FinancialEvent", fe.ID),
		FinancialEventID: fe.ID,
		FinancialType:    fe.EventType,
		Reason:           reason,
	}
}

// FinancialEventReversedEvent is raised when a COMPLETED event gets linked to
// its offsetting reversal
type FinancialEventReversedEvent struct {
	shared.BaseDomainEvent
	OriginalEventID uuid.UUID       `json:"original_event_id"`
	ReversalEventID uuid.UUID       `json:"reversal_event_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *FinancialEventReversedEvent) EventType() string {
	return "FinancialEventReversed"
}

// NewFinancialEventReversedEvent creates a new FinancialEventReversedEvent
func NewFinancialEventReversedEvent(original, reversal *FinancialEvent) *FinancialEventReversedEvent {
	return &FinancialEventReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialEventReversed", "FinancialEvent", original.ID),
		OriginalEventID: original.ID,
		ReversalEventID: reversal.ID,
		Amount:          original.Amount,
	}
}
