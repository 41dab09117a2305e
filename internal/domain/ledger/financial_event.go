package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EventType enumerates the business meaning of a financial event.
// The values are a wire contract consumed by other subsystems and must not
// be renamed.
type EventType string

const (
	EventTypeRidePayment        EventType = "RIDE_PAYMENT"        // Passenger pays for a ride
	EventTypeRideEarning        EventType = "RIDE_EARNING"        // Driver earns from a ride
	EventTypePlatformCommission EventType = "PLATFORM_COMMISSION" // Platform takes its cut
	EventTypeCancellationFee    EventType = "CANCELLATION_FEE"    // Passenger charged for late cancel
	EventTypeWalletDeposit      EventType = "WALLET_DEPOSIT"      // Driver deposits money
	EventTypeWalletWithdrawal   EventType = "WALLET_WITHDRAWAL"   // Driver withdraws money
	EventTypeSettlementHold     EventType = "SETTLEMENT_HOLD"     // Hold for D+N settlement
	EventTypeSettlementRelease  EventType = "SETTLEMENT_RELEASE"  // Release after D+N
	EventTypePayoutProcessing   EventType = "PAYOUT_PROCESSING"   // Payout initiated
	EventTypePayoutCompleted    EventType = "PAYOUT_COMPLETED"    // Payout confirmed
	EventTypePayoutFailed       EventType = "PAYOUT_FAILED"       // Payout failed
	EventTypeAdjustmentDebit    EventType = "ADJUSTMENT_DEBIT"    // Manual debit (support)
	EventTypeAdjustmentCredit   EventType = "ADJUSTMENT_CREDIT"   // Manual credit (refund, goodwill)
	EventTypeReversal           EventType = "REVERSAL"            // Offsets a previous event
	EventTypeIncentiveBonus     EventType = "INCENTIVE_BONUS"     // Performance bonus (cash)
	EventTypeIncentiveCredit    EventType = "INCENTIVE_CREDIT"    // Free usage credit (non-cash)
)

// IsValid checks if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeRidePayment, EventTypeRideEarning, EventTypePlatformCommission,
		EventTypeCancellationFee, EventTypeWalletDeposit, EventTypeWalletWithdrawal,
		EventTypeSettlementHold, EventTypeSettlementRelease, EventTypePayoutProcessing,
		EventTypePayoutCompleted, EventTypePayoutFailed, EventTypeAdjustmentDebit,
		EventTypeAdjustmentCredit, EventTypeReversal, EventTypeIncentiveBonus,
		EventTypeIncentiveCredit:
		return true
	}
	return false
}

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// IsSettlementEligible returns true for earning-class events that a D+N
// settlement hold is created for once they complete.
func (t EventType) IsSettlementEligible() bool {
	return t == EventTypeRideEarning || t == EventTypeIncentiveBonus || t == EventTypeAdjustmentCredit
}

// EventStatus is the lifecycle state of a financial event.
// PENDING is the only non-terminal state. A COMPLETED event stays COMPLETED
// forever; being reversed links it to a new offsetting event instead of
// mutating it.
type EventStatus string

const (
	EventStatusPending   EventStatus = "PENDING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusFailed    EventStatus = "FAILED"
)

// IsValid checks if the status is valid
func (s EventStatus) IsValid() bool {
	return s == EventStatusPending || s == EventStatusCompleted || s == EventStatusFailed
}

// String returns the string representation of EventStatus
func (s EventStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the event can no longer transition
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCompleted || s == EventStatusFailed
}

// FinancialEvent is one record in the append-only financial event log.
//
// Amount is signed: positive credits the subject, negative debits it.
// Driver and passenger balances are plain sums of COMPLETED event amounts.
type FinancialEvent struct {
	shared.BaseAggregateRoot
	EventType             EventType            `gorm:"type:varchar(30);not null;index:idx_events_type_status"`
	Status                EventStatus          `gorm:"type:varchar(15);not null;default:'PENDING';index:idx_events_type_status"`
	Amount                decimal.Decimal      `gorm:"type:decimal(19,4);not null"`
	Currency              valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	Description           string               `gorm:"type:varchar(500)"`
	PassengerID           *uuid.UUID           `gorm:"type:uuid;index:idx_events_passenger_status"`
	DriverID              *uuid.UUID           `gorm:"type:uuid;index:idx_events_driver_status"`
	RideID                *uuid.UUID           `gorm:"type:uuid;index"`
	ExternalTransactionID *string              `gorm:"type:varchar(255);index"`
	ReversesEventID       *uuid.UUID           `gorm:"type:uuid"`
	ReversedByEventID     *uuid.UUID           `gorm:"type:uuid"`
	Metadata              map[string]string    `gorm:"serializer:json"`
	CompletedAt           *time.Time
	FailedAt              *time.Time
	FailureReason         string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (FinancialEvent) TableName() string {
	return "financial_events"
}

// NewFinancialEvent creates a new PENDING financial event
func NewFinancialEvent(
	eventType EventType,
	amount valueobject.Money,
	description string,
) (*FinancialEvent, error) {
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", fmt.Sprintf("Unknown event type %q", eventType))
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Event amount cannot be zero")
	}

	e := &FinancialEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EventType:         eventType,
		Status:            EventStatusPending,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Description:       description,
		Metadata:          make(map[string]string),
	}

	return e, nil
}

// WithDriver attaches a driver subject
func (e *FinancialEvent) WithDriver(driverID uuid.UUID) *FinancialEvent {
	e.DriverID = &driverID
	return e
}

// WithPassenger attaches a passenger subject
func (e *FinancialEvent) WithPassenger(passengerID uuid.UUID) *FinancialEvent {
	e.PassengerID = &passengerID
	return e
}

// WithRide attaches the originating ride
func (e *FinancialEvent) WithRide(rideID uuid.UUID) *FinancialEvent {
	e.RideID = &rideID
	return e
}

// WithExternalTransactionID attaches the payment provider's transaction id
func (e *FinancialEvent) WithExternalTransactionID(txID string) *FinancialEvent {
	e.ExternalTransactionID = &txID
	return e
}

// WithMetadata sets one metadata key
func (e *FinancialEvent) WithMetadata(key, value string) *FinancialEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Complete transitions PENDING -> COMPLETED
func (e *FinancialEvent) Complete() error {
	if e.Status != EventStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete event %s in status %s", e.ID, e.Status))
	}

	now := time.Now()
	e.Status = EventStatusCompleted
	e.CompletedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewFinancialEventCompletedEvent(e))

	return nil
}

// Fail transitions PENDING -> FAILED and records the reason
func (e *FinancialEvent) Fail(reason string) error {
	if e.Status != EventStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot fail event %s in status %s", e.ID, e.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Failure reason is required")
	}

	now := time.Now()
	e.Status = EventStatusFailed
	e.FailedAt = &now
	e.FailureReason = reason
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewFinancialEventFailedEvent(e, reason))

	return nil
}

// IsReversed returns true if the event is linked to a reversal
func (e *FinancialEvent) IsReversed() bool {
	return e.ReversedByEventID != nil
}

// BuildReversal creates the offsetting REVERSAL event for a COMPLETED event
// and links the two. The reversal is born COMPLETED with the inverted amount;
// the original is never changed beyond gaining the link.
func (e *FinancialEvent) BuildReversal(reason string) (*FinancialEvent, error) {
	if e.Status != EventStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reverse event %s in status %s, only COMPLETED events can be reversed", e.ID, e.Status))
	}
	if e.IsReversed() {
		return nil, shared.NewDomainError("ALREADY_REVERSED",
			fmt.Sprintf("Event %s is already reversed by %s", e.ID, *e.ReversedByEventID))
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}

	now := time.Now()
	reversal := &FinancialEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EventType:         EventTypeReversal,
		Status:            EventStatusCompleted,
		Amount:            e.Amount.Neg(),
		Currency:          e.Currency,
		Description:       fmt.Sprintf("Reversal of event %s: %s", e.ID, reason),
		PassengerID:       e.PassengerID,
		DriverID:          e.DriverID,
		RideID:            e.RideID,
		ReversesEventID:   &e.ID,
		Metadata:          map[string]string{"reason": reason},
		CompletedAt:       &now,
	}

	e.ReversedByEventID = &reversal.ID
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewFinancialEventReversedEvent(e, reversal))

	return reversal, nil
}

// GetAmountMoney returns the signed amount as Money
func (e *FinancialEvent) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(e.Amount, e.Currency)
	return m
}
